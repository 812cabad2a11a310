// Package track defines the tracker-output documents every baseline writes
// and every checker and scorer reads.
package track

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/stats"
	"github.com/FocuswithJustin/dstckit/internal/archive"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
)

// Output is a tracker-output document. U is the per-utterance record of
// the task.
type Output[U any] struct {
	Dataset  string       `json:"dataset"`
	TaskType string       `json:"task_type,omitempty"`
	RoleType string       `json:"role_type,omitempty"`
	WallTime float64      `json:"wall_time"`
	RunID    string       `json:"run_id,omitempty"`
	Sessions []Session[U] `json:"sessions"`
}

// Session holds the records of one session.
type Session[U any] struct {
	SessionID  int `json:"session_id"`
	Utterances []U `json:"utterances"`
}

// MainUtterance is a main-task record. FrameLabel is nil for utterances
// whose topic the tracker does not cover.
type MainUtterance struct {
	UtterIndex int          `json:"utter_index"`
	FrameLabel *stats.Frame `json:"frame_label,omitempty"`
}

// SLUUtterance is an SLU record.
type SLUUtterance struct {
	UtterIndex     int                 `json:"utter_index"`
	SpeechAct      []dataset.SpeechAct `json:"speech_act"`
	SemanticTagged string              `json:"semantic_tagged"`
}

// SAPUtterance is an SAP record.
type SAPUtterance struct {
	UtterIndex int                 `json:"utter_index"`
	SpeechAct  []dataset.SpeechAct `json:"speech_act"`
}

// SLGUtterance is an SLG record.
type SLGUtterance struct {
	UtterIndex int    `json:"utter_index"`
	Generated  string `json:"generated"`
}

// New starts an output document with a fresh run id. The main task leaves
// task and role empty.
func New[U any](datasetName string, task dataset.Task, role dataset.Role) *Output[U] {
	o := &Output[U]{
		Dataset:  datasetName,
		RoleType: string(role),
		RunID:    uuid.NewString(),
		Sessions: []Session[U]{},
	}
	if task != dataset.TaskMain {
		o.TaskType = string(task)
	}
	return o
}

// Finish records the wall time since start. The recorded time is always
// positive.
func (o *Output[U]) Finish(start time.Time) {
	o.WallTime = max(time.Since(start).Seconds(), 1e-6)
}

// Write saves the document as indented JSON.
func (o *Output[U]) Write(path string) error {
	return archive.WriteJSON(path, o, true)
}

// Read loads a typed output document.
func Read[U any](path string) (*Output[U], error) {
	var o Output[U]
	if err := archive.ReadJSON(path, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Raw is an output document decoded without a schema, with numbers kept
// as json.Number so their JSON type can be checked.
type Raw map[string]any

// ReadRaw loads an output document for validation.
func ReadRaw(path string) (Raw, error) {
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, cerrors.NewParse("tracker output", path, err)
	}
	return raw, nil
}

// Decode converts a raw document into a typed one.
func Decode[U any](raw Raw) (*Output[U], error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, err
	}
	var o Output[U]
	if err := json.Unmarshal(buf.Bytes(), &o); err != nil {
		return nil, cerrors.NewParse("tracker output", "", err)
	}
	return &o, nil
}
