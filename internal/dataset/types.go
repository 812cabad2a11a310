package dataset

import (
	"strings"

	"github.com/FocuswithJustin/dstckit/core/projection"
	"github.com/FocuswithJustin/dstckit/core/semtag"
)

// SpeechAct is one act with its attributes, as found in label files and
// tracker outputs.
type SpeechAct struct {
	Act        string   `json:"act"`
	Attributes []string `json:"attributes"`
}

// Normalize upper-cases and trims the act and trims every attribute.
// Empty values become NONE.
func (a SpeechAct) Normalize() SpeechAct {
	out := SpeechAct{Act: strings.ToUpper(strings.TrimSpace(a.Act))}
	if out.Act == "" {
		out.Act = "NONE"
	}
	out.Attributes = make([]string, len(a.Attributes))
	for i, attr := range a.Attributes {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			attr = "NONE"
		}
		out.Attributes[i] = attr
	}
	return out
}

// Labels returns the act as ACT_ATTR strings, one per attribute.
func (a SpeechAct) Labels() []string {
	out := make([]string, len(a.Attributes))
	for i, attr := range a.Attributes {
		out[i] = a.Act + "_" + attr
	}
	return out
}

// SegmentInfo describes the sub-dialogue segment an utterance belongs to.
type SegmentInfo struct {
	Topic        string `json:"topic"`
	TargetBIO    string `json:"target_bio"`
	GuideAct     string `json:"guide_act,omitempty"`
	TouristAct   string `json:"tourist_act,omitempty"`
	Initiativity string `json:"initiativity,omitempty"`
}

// LogUtterance is one utterance of a log or pilot-task input file.
type LogUtterance struct {
	UtterIndex   int                 `json:"utter_index"`
	Speaker      string              `json:"speaker"`
	Transcript   string              `json:"transcript,omitempty"`
	SegmentInfo  *SegmentInfo        `json:"segment_info,omitempty"`
	SemanticTags []semtag.TaggedSpan `json:"semantic_tags,omitempty"`
	SpeechAct    []SpeechAct         `json:"speech_act,omitempty"`
}

// Topic returns the segment topic, or "" when there is no segment info.
func (u *LogUtterance) Topic() string {
	if u.SegmentInfo == nil {
		return ""
	}
	return u.SegmentInfo.Topic
}

// TargetBIO returns the segment target_bio, or "O" when there is no
// segment info.
func (u *LogUtterance) TargetBIO() string {
	if u.SegmentInfo == nil {
		return "O"
	}
	return u.SegmentInfo.TargetBIO
}

// Log is the content of log.json or of a {sap,slg}.<role>.in.json file.
type Log struct {
	SessionID  int            `json:"session_id"`
	RoleType   string         `json:"roletype,omitempty"`
	Utterances []LogUtterance `json:"utterances"`
}

// Hypothesis is one machine translation of an utterance.
type Hypothesis struct {
	Hyp   string                      `json:"hyp"`
	Align []projection.AlignmentEntry `json:"align,omitempty"`
}

// TranslationUtterance holds the n-best translations of one utterance.
type TranslationUtterance struct {
	UtterIndex int          `json:"utter_index"`
	Translated []Hypothesis `json:"translated"`
}

// Top returns the best translation, if any.
func (t *TranslationUtterance) Top() (Hypothesis, bool) {
	if t == nil || len(t.Translated) == 0 {
		return Hypothesis{}, false
	}
	return t.Translated[0], true
}

// Translations is the content of translations.json.
type Translations struct {
	SessionID  int                    `json:"session_id"`
	Utterances []TranslationUtterance `json:"utterances"`
}

// LabelUtterance is one utterance of a label file.
type LabelUtterance struct {
	UtterIndex     int                 `json:"utter_index"`
	Transcript     string              `json:"transcript,omitempty"`
	SemanticTagged []string            `json:"semantic_tagged,omitempty"`
	SpeechAct      []SpeechAct         `json:"speech_act,omitempty"`
	FrameLabel     map[string][]string `json:"frame_label,omitempty"`
}

// Labels is the content of label.json or of a {sap,slg}.<role>.label.json
// file.
type Labels struct {
	SessionID  int              `json:"session_id"`
	RoleType   string           `json:"roletype,omitempty"`
	Utterances []LabelUtterance `json:"utterances"`
}

// Turn is one utterance with its optional translation and label.
type Turn struct {
	Log         *LogUtterance
	Translation *TranslationUtterance
	Label       *LabelUtterance
}
