// Package convert derives pilot-task files from a labelled main-task
// corpus.
package convert

import (
	"context"
	"path/filepath"
	"time"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/internal/archive"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/metrics"
	"github.com/FocuswithJustin/dstckit/internal/workerpool"
)

// Options configure a conversion.
type Options struct {
	// Workers bounds the sessions converted concurrently.
	Workers int
	Metrics *metrics.Registry
}

// roles are the two sides every SLG session is converted for.
var roles = []dataset.Role{dataset.RoleGuide, dataset.RoleTourist}

// SLGFiles is the converted content of one session for one role.
type SLGFiles struct {
	// In lists every utterance with its tags and acts. Utterances of the
	// other speaker also carry their transcript.
	In dataset.Log
	// Label holds the transcripts the role is expected to generate.
	Label dataset.Labels
}

// SLGSession converts one session loaded with labels. Utterances without a
// label are skipped; tagged strings that do not parse contribute no tags.
func SLGSession(ctx context.Context, s *dataset.Session, reg *metrics.Registry) map[dataset.Role]*SLGFiles {
	out := make(map[dataset.Role]*SLGFiles, len(roles))
	for _, role := range roles {
		speaker := role.Speaker()
		out[role] = &SLGFiles{
			In:    dataset.Log{SessionID: s.Log.SessionID, RoleType: speaker, Utterances: []dataset.LogUtterance{}},
			Label: dataset.Labels{SessionID: s.Log.SessionID, RoleType: speaker, Utterances: []dataset.LabelUtterance{}},
		}
	}

	for _, turn := range s.Turns() {
		u := turn.Log
		if turn.Label == nil {
			logging.UtteranceSkipped(ctx, s.ID, u.UtterIndex, "no label", nil)
			reg.Skipped(string(dataset.TaskSLG))
			continue
		}
		tags := semanticTags(ctx, s.ID, turn.Label, reg)
		for _, role := range roles {
			files := out[role]
			in := dataset.LogUtterance{
				UtterIndex:   u.UtterIndex,
				Speaker:      u.Speaker,
				SemanticTags: tags,
				SpeechAct:    turn.Label.SpeechAct,
			}
			switch {
			case role.Speaks(u.Speaker):
				files.Label.Utterances = append(files.Label.Utterances, dataset.LabelUtterance{
					UtterIndex: u.UtterIndex,
					Transcript: u.Transcript,
				})
			case otherRole(role).Speaks(u.Speaker):
				in.Transcript = u.Transcript
			default:
				continue
			}
			files.In.Utterances = append(files.In.Utterances, in)
		}
	}
	return out
}

func otherRole(r dataset.Role) dataset.Role {
	if r == dataset.RoleGuide {
		return dataset.RoleTourist
	}
	return dataset.RoleGuide
}

// semanticTags collects the spans of every tagged string of a label.
func semanticTags(ctx context.Context, sessionID string, label *dataset.LabelUtterance, reg *metrics.Registry) []semtag.TaggedSpan {
	p := semtag.NewParser(semtag.ModeWord)
	var tags []semtag.TaggedSpan
	for _, text := range label.SemanticTagged {
		res, err := p.Parse(text)
		if err != nil {
			logging.UtteranceSkipped(ctx, sessionID, label.UtterIndex, "semantic_tagged does not parse", err)
			reg.ParseFailed("convert")
			continue
		}
		tags = append(tags, res.Spans()...)
	}
	return tags
}

// SLG writes slg.{guide,tourist}.{in,label}.json into every session
// directory of a labelled MAIN or SLU walker. It returns the number of
// sessions converted.
func SLG(ctx context.Context, w *dataset.Walker, opts Options) (int, error) {
	if t := w.Task(); t != dataset.TaskMain && t != dataset.TaskSLU {
		return 0, cerrors.NewValidation("task", "SLG files are converted from MAIN or SLU sessions, not "+string(t))
	}
	start := time.Now()
	logging.DatasetLoaded(ctx, w.Datasets()[0], w.Len(), "datasets", len(w.Datasets()))

	_, err := workerpool.Map(ctx, opts.Workers, w.Len(), func(ctx context.Context, i int) (struct{}, error) {
		s, err := w.Load(i)
		if err != nil {
			return struct{}{}, err
		}
		if s.Labels == nil {
			return struct{}{}, cerrors.NewNotFound("labels", s.ID)
		}
		for role, files := range SLGSession(ctx, s, opts.Metrics) {
			inName, labelName, err := dataset.Files(dataset.TaskSLG, role)
			if err != nil {
				return struct{}{}, err
			}
			if err := archive.WriteJSON(filepath.Join(s.Dir, inName), files.In, false); err != nil {
				return struct{}{}, err
			}
			if err := archive.WriteJSON(filepath.Join(s.Dir, labelName), files.Label, false); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return 0, err
	}
	logging.RunFinished(ctx, "convert-slg", time.Since(start), "sessions", w.Len())
	return w.Len(), nil
}
