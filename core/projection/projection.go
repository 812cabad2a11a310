// Package projection transfers semantic tags from a tagged source-language
// sentence onto a target-language utterance through a word alignment.
//
// Every target character votes with the labels of all source characters
// its token is aligned to. The label with the most votes wins; ties go to
// the smallest label. Characters whose token is missing from the utterance
// or has no alignment stay untagged. Projection never fails.
package projection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/dstckit/core/semtag"
)

// AlignmentEntry is one target token and the indices of the source tokens
// it aligns to. Its JSON form is ["word", [i, j]].
type AlignmentEntry struct {
	Word    string
	Aligned []int
}

// UnmarshalJSON decodes the two-element array form.
func (a *AlignmentEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("alignment entry has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &a.Word); err != nil {
		return fmt.Errorf("alignment word: %w", err)
	}
	a.Aligned = nil
	if err := json.Unmarshal(raw[1], &a.Aligned); err != nil {
		return fmt.Errorf("alignment indices: %w", err)
	}
	return nil
}

// MarshalJSON encodes the two-element array form.
func (a AlignmentEntry) MarshalJSON() ([]byte, error) {
	aligned := a.Aligned
	if aligned == nil {
		aligned = []int{}
	}
	return json.Marshal([]any{a.Word, aligned})
}

// Input is one utterance to project.
type Input struct {
	// Target is the untagged target-language utterance.
	Target string
	// TargetTokens are the tokens the alignment is indexed by. When nil
	// they are the whitespace-separated fields of Target.
	TargetTokens []string
	// Source is the source-language sentence the alignment points into.
	Source string
	// Alignment has one entry per target token.
	Alignment []AlignmentEntry
	// SourceTagged is the tagged segmentation of Source.
	SourceTagged []semtag.WordAnnotation
}

// Stats counts how much of the target could not be projected.
type Stats struct {
	Chars            int
	UnmappedChars    int
	UnalignedTokens  int
	UntaggedChars    int
	DroppedAlignment int
}

// Result is the projected label of every target rune.
type Result struct {
	Chars []semtag.LabeledChar
	Stats Stats
}

// Render returns the target utterance with the projected labels as markup.
func (r Result) Render() string {
	return semtag.Render(r.Chars)
}

// Recorder receives the stats of every projection.
type Recorder interface {
	RecordProjection(Stats)
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the logger used for per-utterance debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) { p.logger = logger }
}

// WithRecorder sets a recorder that receives the stats of every call.
func WithRecorder(r Recorder) Option {
	return func(p *Projector) { p.recorder = r }
}

// Projector projects labels. It is safe for concurrent use.
type Projector struct {
	logger   *slog.Logger
	recorder Recorder
}

// NewProjector returns a Projector.
func NewProjector(opts ...Option) *Projector {
	p := &Projector{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project assigns a label to every rune of in.Target.
func (p *Projector) Project(in Input) Result {
	target := []rune(in.Target)
	targetTokens := in.TargetTokens
	if targetTokens == nil {
		targetTokens = strings.Fields(in.Target)
	}
	targetMap := charTokenMap(target, targetTokens)

	source := []rune(in.Source)
	sourceTokens := strings.Fields(in.Source)
	sourceMap := charTokenMap(source, sourceTokens)
	sourceChars := charsByToken(sourceMap, len(sourceTokens))

	taggedWords := make([]string, len(in.SourceTagged))
	for i, w := range in.SourceTagged {
		taggedWords[i] = string(lowerRunes([]rune(w.Word)))
	}
	unitMap := charTokenMap(lowerRunes(source), taggedWords)

	var stats Stats
	stats.Chars = len(target)
	counted := make(map[int]bool)

	out := make([]semtag.LabeledChar, len(target))
	for i, c := range target {
		out[i].Char = c

		tok := targetMap[i]
		if tok < 0 {
			stats.UnmappedChars++
			stats.UntaggedChars++
			continue
		}

		var aligned []int
		if tok < len(in.Alignment) {
			aligned = in.Alignment[tok].Aligned
		}
		if len(aligned) == 0 && !counted[tok] {
			stats.UnalignedTokens++
		}

		votes := make(map[semtag.Label]int)
		for _, src := range aligned {
			if src < 0 || src >= len(sourceTokens) {
				if !counted[tok] {
					stats.DroppedAlignment++
				}
				continue
			}
			for _, sc := range sourceChars[src] {
				unit := unitMap[sc]
				if unit < 0 {
					continue
				}
				if l := in.SourceTagged[unit].Label(); !l.IsZero() {
					votes[l]++
				}
			}
		}
		counted[tok] = true

		out[i].Label = winner(votes)
		if out[i].Label.IsZero() {
			stats.UntaggedChars++
		}
	}

	p.logger.Debug("projected utterance",
		"chars", stats.Chars,
		"unmapped_chars", stats.UnmappedChars,
		"unaligned_tokens", stats.UnalignedTokens,
		"untagged_chars", stats.UntaggedChars,
		"dropped_alignment", stats.DroppedAlignment,
	)
	if p.recorder != nil {
		p.recorder.RecordProjection(stats)
	}
	return Result{Chars: out, Stats: stats}
}

// winner returns the label with the most votes, breaking ties on the
// smaller label. No votes yield the untagged label.
func winner(votes map[semtag.Label]int) semtag.Label {
	var (
		best  semtag.Label
		count int
	)
	for l, n := range votes {
		if n > count || (n == count && l.Less(best)) {
			best, count = l, n
		}
	}
	return best
}

// charTokenMap maps every rune of text to the index of the token covering
// it, or -1. Tokens are matched left to right, each searched from the end
// of the previous match; a token that is not found maps nothing.
func charTokenMap(text []rune, tokens []string) []int {
	m := make([]int, len(text))
	for i := range m {
		m[i] = -1
	}
	cur := 0
	for id, tok := range tokens {
		word := []rune(tok)
		pos := indexRunes(text, word, cur)
		if pos < 0 {
			continue
		}
		for j := pos; j < pos+len(word); j++ {
			m[j] = id
		}
		cur = pos + len(word)
	}
	return m
}

// charsByToken inverts a char-token map.
func charsByToken(m []int, n int) [][]int {
	out := make([][]int, n)
	for i, tok := range m {
		if tok >= 0 {
			out[tok] = append(out[tok], i)
		}
	}
	return out
}

func indexRunes(text, word []rune, from int) int {
	if len(word) == 0 {
		return from
	}
	for i := from; i+len(word) <= len(text); i++ {
		match := true
		for j, r := range word {
			if text[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}
