// Package baseline implements the reference trackers of every task: the
// fuzzy-matching main-task tracker and the trained SLU, SAP and SLG
// systems. Each produces a tracker-output document for one dataset.
package baseline

import (
	"context"
	"slices"
	"strings"
	"time"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/internal/classify"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/metrics"
	"github.com/FocuswithJustin/dstckit/internal/track"
	"github.com/FocuswithJustin/dstckit/internal/workerpool"
)

// DefaultNeighbours is the number of neighbours the act classifiers vote
// over.
const DefaultNeighbours = 1

// Options configure a baseline run.
type Options struct {
	// Workers bounds the sessions processed concurrently. Zero uses one
	// worker per CPU.
	Workers int
	// Metrics receives skip and projection counters. It may be nil.
	Metrics *metrics.Registry
}

// run processes the sessions of w in parallel and assembles the output
// document in session order.
func run[U any](ctx context.Context, name string, w *dataset.Walker, opts Options,
	fn func(ctx context.Context, s *dataset.Session) []U) (*track.Output[U], error) {
	start := time.Now()
	out := track.New[U](name, w.Task(), w.Role())
	ctx = logging.WithRunID(ctx, out.RunID)
	logging.DatasetLoaded(ctx, name, w.Len(), "task", string(w.Task()))

	sessions, err := workerpool.Map(ctx, opts.Workers, w.Len(),
		func(ctx context.Context, i int) (track.Session[U], error) {
			s, err := w.Load(i)
			if err != nil {
				return track.Session[U]{}, err
			}
			utts := fn(ctx, s)
			if utts == nil {
				utts = []U{}
			}
			return track.Session[U]{SessionID: s.Log.SessionID, Utterances: utts}, nil
		})
	if err != nil {
		return nil, err
	}

	out.Sessions = sessions
	out.Finish(start)
	logging.RunFinished(ctx, string(w.Task()), time.Since(start), "sessions", len(sessions))
	return out, nil
}

// requireRole checks that a pilot-task walker names the role to play.
func requireRole(w *dataset.Walker) (dataset.Role, error) {
	if w.Role() == "" {
		return "", cerrors.NewValidation("roletype", "task "+string(w.Task())+" needs GUIDE or TOURIST")
	}
	return w.Role(), nil
}

// checkModelRole rejects a model trained for another role.
func checkModelRole(model, run dataset.Role) error {
	if model != "" && model != run {
		return cerrors.NewValidation("roletype", "model was trained for "+string(model)+", not "+string(run))
	}
	return nil
}

// actLabels returns the sorted unique ACT_ATTR labels of acts.
func actLabels(acts []dataset.SpeechAct) []string {
	var labels []string
	for _, a := range acts {
		labels = append(labels, a.Labels()...)
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

// groupActs turns ACT_ATTR labels back into speech acts, keeping the order
// in which acts first appear. Labels without an attribute are dropped.
func groupActs(labels []string) []dataset.SpeechAct {
	acts := []dataset.SpeechAct{}
	index := make(map[string]int)
	for _, l := range labels {
		act, attr, ok := strings.Cut(l, "_")
		if !ok || act == "" || attr == "" {
			continue
		}
		i, seen := index[act]
		if !seen {
			i = len(acts)
			index[act] = i
			acts = append(acts, dataset.SpeechAct{Act: act, Attributes: []string{}})
		}
		if !slices.Contains(acts[i].Attributes, attr) {
			acts[i].Attributes = append(acts[i].Attributes, attr)
		}
	}
	return acts
}

// SaveModel writes a trained model as JSON.
func SaveModel(path string, model any) error {
	return classify.Save(path, model)
}

// LoadModel reads a model written by SaveModel.
func LoadModel[M any](path string) (*M, error) {
	var m M
	if err := classify.Load(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// skipped logs and counts an utterance a baseline could not use.
func skipped(ctx context.Context, opts Options, task dataset.Task, s *dataset.Session, utter int, reason string, err error) {
	logging.UtteranceSkipped(ctx, s.ID, utter, reason, err)
	opts.Metrics.Skipped(string(task))
}
