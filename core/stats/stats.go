// Package stats accumulates the evaluation statistics reported by the
// scorers: accuracy, precision/recall/F1, frame precision/recall and
// averaged text metrics.
package stats

import (
	"strings"
)

// Result is one reported measure. Value is nil when the measure is
// undefined, e.g. precision with no predictions.
type Result struct {
	Name  string
	N     int
	Value *float64
}

// Stat is any accumulator that can report results.
type Stat interface {
	Results() []Result
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// Accuracy counts exact matches over the pairs where both prediction and
// reference are present.
type Accuracy[T any] struct {
	equal   func(a, b T) bool
	n       int
	correct int
}

// NewAccuracy returns an Accuracy comparing values with equal.
func NewAccuracy[T any](equal func(a, b T) bool) *Accuracy[T] {
	return &Accuracy[T]{equal: equal}
}

// Add records one pair. A nil side skips the pair.
func (a *Accuracy[T]) Add(pred, ref *T) {
	if pred == nil || ref == nil {
		return
	}
	a.n++
	if a.equal(*pred, *ref) {
		a.correct++
	}
}

// Results reports acc.
func (a *Accuracy[T]) Results() []Result {
	return []Result{{Name: "acc", N: a.n, Value: ratio(a.correct, a.n)}}
}

// counts holds true/false positives and false negatives.
type counts struct {
	tp, fp, fn int
}

func (c counts) results() []Result {
	precision := ratio(c.tp, c.tp+c.fp)
	recall := ratio(c.tp, c.tp+c.fn)
	var f1 *float64
	if precision != nil && recall != nil && *precision+*recall > 0 {
		v := 2 * *precision * *recall / (*precision + *recall)
		f1 = &v
	}
	return []Result{
		{Name: "precision", N: c.tp + c.fp, Value: precision},
		{Name: "recall", N: c.tp + c.fn, Value: recall},
		{Name: "f1", N: c.tp + c.fp + c.fn, Value: f1},
	}
}

// PrecisionRecall scores predictions either one item at a time or as lists.
type PrecisionRecall[T comparable] struct {
	c counts
}

// NewPrecisionRecall returns an empty accumulator.
func NewPrecisionRecall[T comparable]() *PrecisionRecall[T] {
	return &PrecisionRecall[T]{}
}

// Add scores a single optional prediction against a single optional
// reference. A present prediction is a true positive when it equals the
// reference and a false positive otherwise; a present reference that was
// not predicted exactly is a false negative.
func (p *PrecisionRecall[T]) Add(pred, ref *T) {
	equal := (pred == nil && ref == nil) || (pred != nil && ref != nil && *pred == *ref)
	if pred != nil {
		if equal {
			p.c.tp++
		} else {
			p.c.fp++
		}
	}
	if ref != nil && !equal {
		p.c.fn++
	}
}

// AddList scores a predicted list against a reference list by membership.
func (p *PrecisionRecall[T]) AddList(pred, ref []T) {
	for _, x := range pred {
		if contains(ref, x) {
			p.c.tp++
		} else {
			p.c.fp++
		}
	}
	for _, x := range ref {
		if !contains(pred, x) {
			p.c.fn++
		}
	}
}

// Results reports precision, recall and f1.
func (p *PrecisionRecall[T]) Results() []Result {
	return p.c.results()
}

func contains[T comparable](list []T, x T) bool {
	for _, y := range list {
		if y == x {
			return true
		}
	}
	return false
}

// Frame maps slots to their values, as in a main-task frame label.
type Frame map[string][]string

// Equal reports whether both frames have the same slots with the same
// values in the same order.
func (f Frame) Equal(o Frame) bool {
	if len(f) != len(o) {
		return false
	}
	for slot, vs := range f {
		ovs, ok := o[slot]
		if !ok || len(vs) != len(ovs) {
			return false
		}
		for i := range vs {
			if vs[i] != ovs[i] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	for slot, vs := range f {
		out[slot] = append([]string(nil), vs...)
	}
	return out
}

// Pairs flattens the frame into slot/value pairs.
func (f Frame) Pairs() []SlotValue {
	var out []SlotValue
	for slot, vs := range f {
		for _, v := range vs {
			out = append(out, SlotValue{Slot: slot, Value: v})
		}
	}
	return out
}

// Only returns the frame restricted to slot. A missing slot maps to an
// empty value list.
func (f Frame) Only(slot string) Frame {
	vs := f[slot]
	if vs == nil {
		vs = []string{}
	}
	return Frame{slot: vs}
}

// SlotValue is one value of one slot.
type SlotValue struct {
	Slot  string
	Value string
}

// FrameStat is implemented by the accumulators used for frame labels.
type FrameStat interface {
	Stat
	Add(pred, ref *Frame)
}

// NewFrameAccuracy returns an Accuracy over whole frames.
func NewFrameAccuracy() *Accuracy[Frame] {
	return NewAccuracy(func(a, b Frame) bool { return a.Equal(b) })
}

// FramePrecisionRecall scores the slot/value pairs of frames.
type FramePrecisionRecall struct {
	c counts
}

// NewFramePrecisionRecall returns an empty accumulator.
func NewFramePrecisionRecall() *FramePrecisionRecall {
	return &FramePrecisionRecall{}
}

// Add scores the pairs of pred against ref. A nil side skips the pair.
func (p *FramePrecisionRecall) Add(pred, ref *Frame) {
	if pred == nil || ref == nil {
		return
	}
	predPairs, refPairs := pred.Pairs(), ref.Pairs()
	for _, sv := range predPairs {
		if contains(refPairs, sv) {
			p.c.tp++
		} else {
			p.c.fp++
		}
	}
	for _, sv := range refPairs {
		if !contains(predPairs, sv) {
			p.c.fn++
		}
	}
}

// Results reports precision, recall and f1.
func (p *FramePrecisionRecall) Results() []Result {
	return p.c.results()
}

// TextMetric scores a generated sentence against its reference, usually
// in [0, 1].
type TextMetric func(ref, pred string) float64

// Text averages text metrics over sentence pairs. AM and FM are optional;
// when both are set their mean is also reported as amfm.
type Text struct {
	BLEU TextMetric
	AM   TextMetric
	FM   TextMetric

	n            int
	bleu, am, fm float64
	amfm         float64
}

// Add scores one sentence pair.
func (t *Text) Add(ref, pred string) {
	t.n++
	if t.BLEU != nil {
		t.bleu += t.BLEU(ref, pred)
	}
	var am, fm float64
	if t.AM != nil {
		am = t.AM(ref, pred)
		t.am += am
	}
	if t.FM != nil {
		fm = t.FM(ref, pred)
		t.fm += fm
	}
	if t.AM != nil && t.FM != nil {
		t.amfm += (am + fm) / 2
	}
}

// Results reports the mean of every configured metric.
func (t *Text) Results() []Result {
	mean := func(sum float64) *float64 {
		if t.n == 0 {
			return nil
		}
		v := sum / float64(t.n)
		return &v
	}
	var out []Result
	if t.BLEU != nil {
		out = append(out, Result{Name: "bleu", N: t.n, Value: mean(t.bleu)})
	}
	if t.AM != nil {
		out = append(out, Result{Name: "am", N: t.n, Value: mean(t.am)})
	}
	if t.FM != nil {
		out = append(out, Result{Name: "fm", N: t.n, Value: mean(t.fm)})
	}
	if t.AM != nil && t.FM != nil {
		out = append(out, Result{Name: "amfm", N: t.n, Value: mean(t.amfm)})
	}
	return out
}

// PrepareText normalizes a sentence before AM/FM scoring: tokens starting
// with % (fillers) are dropped, a trailing hyphen is removed and the
// result is lower-cased. Chinese text is split into characters. Empty
// input becomes _EMPTY_.
func PrepareText(s, lang string) string {
	if s == "" {
		return "_EMPTY_"
	}
	var tokens []string
	for _, word := range strings.Fields(s) {
		if lang == "cn" {
			for _, r := range word {
				tokens = append(tokens, string(r))
			}
			continue
		}
		tokens = append(tokens, word)
	}
	kept := tokens[:0]
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "%") {
			continue
		}
		kept = append(kept, strings.TrimSuffix(tok, "-"))
	}
	return strings.ToLower(strings.Join(kept, " "))
}
