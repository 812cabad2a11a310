package score

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/FocuswithJustin/dstckit/core/bleu"
	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/core/semtag"
	"github.com/FocuswithJustin/dstckit/core/stats"
	"github.com/FocuswithJustin/dstckit/internal/dataset"
	"github.com/FocuswithJustin/dstckit/internal/logging"
	"github.com/FocuswithJustin/dstckit/internal/track"
)

// actAttr is one attribute of one act.
type actAttr struct {
	Act, Attr string
}

// actStats scores speech acts by category and by category-attribute pair.
type actStats struct {
	act *stats.PrecisionRecall[string]
	all *stats.PrecisionRecall[actAttr]
}

func newActStats() *actStats {
	return &actStats{act: stats.NewPrecisionRecall[string](), all: stats.NewPrecisionRecall[actAttr]()}
}

func flattenActs(acts []dataset.SpeechAct) ([]string, []actAttr) {
	cats := make(map[string]bool)
	pairs := make(map[actAttr]bool)
	for _, a := range acts {
		a = a.Normalize()
		cats[a.Act] = true
		for _, attr := range a.Attributes {
			pairs[actAttr{Act: a.Act, Attr: attr}] = true
		}
	}
	return slices.Sorted(maps.Keys(cats)), slices.SortedFunc(maps.Keys(pairs), func(x, y actAttr) int {
		if c := strings.Compare(x.Act, y.Act); c != 0 {
			return c
		}
		return strings.Compare(x.Attr, y.Attr)
	})
}

func (s *actStats) add(ref, pred []dataset.SpeechAct) {
	refActs, refPairs := flattenActs(ref)
	predActs, predPairs := flattenActs(pred)
	s.act.AddList(predActs, refActs)
	s.all.AddList(predPairs, refPairs)
}

func (s *actStats) rows(t *Table) {
	t.add(string(t.Task), "speech_act", "act", s.act)
	t.add(string(t.Task), "speech_act", "all", s.all)
}

// semKey is what a word is compared by at one level of detail. Attrs
// holds the sorted KEY=VALUE attributes, NONE values left out.
type semKey struct {
	BIO   semtag.BIO
	Tag   string
	Attrs string
}

// semanticStats scores tagged words: detection compares span positions,
// class adds the category and all adds the attributes.
type semanticStats struct {
	detection, class, all *stats.PrecisionRecall[semKey]
}

func newSemanticStats() *semanticStats {
	return &semanticStats{
		detection: stats.NewPrecisionRecall[semKey](),
		class:     stats.NewPrecisionRecall[semKey](),
		all:       stats.NewPrecisionRecall[semKey](),
	}
}

func wordKey(w semtag.WordAnnotation, detail int) *semKey {
	if w.BIO == semtag.Outside {
		return nil
	}
	k := semKey{BIO: w.BIO}
	if detail > 0 {
		k.Tag = strings.ToUpper(w.Tag)
	}
	if detail > 1 {
		// Empty values count; only an explicit NONE is dropped.
		attrs := make(map[string]string, len(w.Attrs))
		for _, a := range w.Attrs {
			v := strings.ToUpper(strings.TrimSpace(a.Value))
			if v == "NONE" {
				continue
			}
			attrs[strings.ToUpper(strings.TrimSpace(a.Key))] = v
		}
		var parts []string
		for _, key := range slices.Sorted(maps.Keys(attrs)) {
			parts = append(parts, key+"="+attrs[key])
		}
		k.Attrs = strings.Join(parts, ";")
	}
	return &k
}

// add parses both utterances in character mode, aligns their words and
// scores every word. The utterances must have the same characters.
func (s *semanticStats) add(ref, pred string) error {
	p := semtag.NewParser(semtag.ModeChar)
	r, err := p.Parse(ref)
	if err != nil {
		return err
	}
	q, err := p.Parse(pred)
	if err != nil {
		return err
	}
	if err := semtag.Resegment(r, q); err != nil {
		return err
	}
	for i := range r.Words {
		s.detection.Add(wordKey(q.Words[i], 0), wordKey(r.Words[i], 0))
		s.class.Add(wordKey(q.Words[i], 1), wordKey(r.Words[i], 1))
		s.all.Add(wordKey(q.Words[i], 2), wordKey(r.Words[i], 2))
	}
	return nil
}

func (s *semanticStats) rows(t *Table) {
	t.add(string(t.Task), "semantic_tagged", "detection", s.detection)
	t.add(string(t.Task), "semantic_tagged", "class", s.class)
	t.add(string(t.Task), "semantic_tagged", "all", s.all)
}

// eachTurn pairs the labelled turns of the walker's role with the output
// records, session by session, and calls fn for every pair. Turns without
// a label are skipped.
func eachTurn[U any](ctx context.Context, w *dataset.Walker, out *track.Output[U], opts Options,
	fn func(s *dataset.Session, t dataset.Turn, rec U)) error {
	role := w.Role()
	if role == "" {
		return &cerrors.ValidationError{Field: "roletype", Message: "task " + string(w.Task()) + " needs GUIDE or TOURIST"}
	}
	for i := 0; i < min(w.Len(), len(out.Sessions)); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := w.Load(i)
		if err != nil {
			return err
		}
		if s.Labels == nil {
			return errNoLabels
		}
		turns := s.RoleTurns(role)
		recs := out.Sessions[i].Utterances
		for j := 0; j < min(len(turns), len(recs)); j++ {
			if turns[j].Label == nil {
				logging.UtteranceSkipped(ctx, s.ID, turns[j].Log.UtterIndex, "no label", nil)
				opts.Metrics.Skipped(string(w.Task()))
				continue
			}
			fn(s, turns[j], recs[j])
		}
	}
	return nil
}

func pilotTable[U any](w *dataset.Walker, out *track.Output[U]) *Table {
	return &Table{
		Task:     w.Task(),
		Role:     w.Role(),
		Dataset:  out.Dataset,
		RunID:    out.RunID,
		WallTime: out.WallTime,
		Header:   PilotHeader,
	}
}

// SLU scores speech acts and semantic tags. An utterance whose tags
// cannot be parsed or whose characters differ from the reference still
// counts for the acts.
func SLU(ctx context.Context, w *dataset.Walker, out *track.Output[track.SLUUtterance], opts Options) (*Table, error) {
	start := time.Now()
	acts, semantics := newActStats(), newSemanticStats()
	err := eachTurn(ctx, w, out, opts, func(s *dataset.Session, t dataset.Turn, rec track.SLUUtterance) {
		acts.add(t.Label.SpeechAct, rec.SpeechAct)
		ref := strings.Join(t.Label.SemanticTagged, " ")
		if err := semantics.add(ref, rec.SemanticTagged); err != nil {
			var mismatch *semtag.CharMismatchError
			if !errors.As(err, &mismatch) {
				opts.Metrics.ParseFailed("score")
			}
			opts.Metrics.Skipped(string(dataset.TaskSLU))
			logging.UtteranceSkipped(ctx, s.ID, t.Log.UtterIndex, "semantic tags not scored", err)
		}
	})
	if err != nil {
		return nil, err
	}
	t := pilotTable(w, out)
	acts.rows(t)
	semantics.rows(t)
	logging.RunFinished(ctx, "score "+string(dataset.TaskSLU), time.Since(start))
	return t, nil
}

// SAP scores speech acts.
func SAP(ctx context.Context, w *dataset.Walker, out *track.Output[track.SAPUtterance], opts Options) (*Table, error) {
	start := time.Now()
	acts := newActStats()
	err := eachTurn(ctx, w, out, opts, func(_ *dataset.Session, t dataset.Turn, rec track.SAPUtterance) {
		acts.add(t.Label.SpeechAct, rec.SpeechAct)
	})
	if err != nil {
		return nil, err
	}
	t := pilotTable(w, out)
	acts.rows(t)
	logging.RunFinished(ctx, "score "+string(dataset.TaskSAP), time.Since(start))
	return t, nil
}

func prepared(m stats.TextMetric) stats.TextMetric {
	if m == nil {
		return nil
	}
	return func(ref, pred string) float64 {
		return m(stats.PrepareText(ref, "cn"), stats.PrepareText(pred, "cn"))
	}
}

// SLG scores generated sentences against the reference transcripts with
// character-level smoothed BLEU, plus AM and FM when configured.
func SLG(ctx context.Context, w *dataset.Walker, out *track.Output[track.SLGUtterance], opts Options) (*Table, error) {
	start := time.Now()
	var scorer bleu.Scorer
	text := &stats.Text{
		BLEU: func(ref, pred string) float64 { return scorer.Sentence(ref, pred, true) },
		AM:   prepared(opts.AM),
		FM:   prepared(opts.FM),
	}
	err := eachTurn(ctx, w, out, opts, func(_ *dataset.Session, t dataset.Turn, rec track.SLGUtterance) {
		text.Add(t.Label.Transcript, rec.Generated)
	})
	if err != nil {
		return nil, err
	}
	t := pilotTable(w, out)
	t.add(string(dataset.TaskSLG), "generated", "all", text)
	logging.RunFinished(ctx, "score "+string(dataset.TaskSLG), time.Since(start))
	return t, nil
}
