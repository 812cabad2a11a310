// Package bleu computes BLEU with NIST mteval normalization, plus the
// smoothed per-sentence variant used to score generated utterances.
package bleu

import (
	"math"
	"regexp"
	"strings"
)

// DefaultOrder is the maximum n-gram order.
const DefaultOrder = 4

var (
	skippedRe    = regexp.MustCompile(`<skipped>`)
	hyphenLineRe = regexp.MustCompile(`-\n`)
	newlineRe    = regexp.MustCompile(`\n`)

	punctRe        = regexp.MustCompile("([{-~\\[-\x60 -&(-+:-@/])")
	periodAfterRe  = regexp.MustCompile(`([^0-9])([.,])`)
	periodBeforeRe = regexp.MustCompile(`([.,])([^0-9])`)
	dashRe         = regexp.MustCompile(`([0-9])(-)`)

	entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&amp;", "&")
)

// Normalize tokenizes s the way NIST mteval-v11a does for Western
// languages. Text is lower-cased unless preserveCase is set.
func Normalize(s string, preserveCase bool) []string {
	s = skippedRe.ReplaceAllString(s, "")
	s = hyphenLineRe.ReplaceAllString(s, "")
	s = newlineRe.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)

	s = " " + s + " "
	if !preserveCase {
		s = strings.ToLower(s)
	}
	s = punctRe.ReplaceAllString(s, " ${1} ")
	s = periodAfterRe.ReplaceAllString(s, "${1} ${2} ")
	s = periodBeforeRe.ReplaceAllString(s, " ${1} ${2}")
	s = dashRe.ReplaceAllString(s, "${1} ${2} ")
	return strings.Fields(s)
}

// SplitChars separates every character with a space, for scoring Chinese
// at the character level.
func SplitChars(s string) string {
	var parts []string
	for _, r := range strings.TrimSpace(s) {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

type ngramCounts map[string]int

func countNgrams(words []string, n int) ngramCounts {
	counts := make(ngramCounts)
	for k := 1; k <= n; k++ {
		for i := 0; i+k <= len(words); i++ {
			counts[strings.Join(words[i:i+k], "\x00")]++
		}
	}
	return counts
}

func ngramOrder(key string) int {
	return strings.Count(key, "\x00") + 1
}

// CookedRefs is what BLEU needs to know about the references of one
// segment.
type CookedRefs struct {
	Lens      []int
	MaxCounts map[string]int
}

// Comps are the sufficient statistics of one test segment.
type Comps struct {
	TestLen int
	RefLen  int
	Guess   []int
	Correct []int
}

// Scorer holds the BLEU settings.
type Scorer struct {
	// Order is the maximum n-gram order; zero means DefaultOrder.
	Order int
	// PreserveCase disables lower-casing during normalization.
	PreserveCase bool
}

func (s Scorer) order() int {
	if s.Order <= 0 {
		return DefaultOrder
	}
	return s.Order
}

// CookRefs normalizes the references of one segment.
func (s Scorer) CookRefs(refs []string) CookedRefs {
	n := s.order()
	cooked := CookedRefs{MaxCounts: make(map[string]int)}
	for _, ref := range refs {
		words := Normalize(ref, s.PreserveCase)
		cooked.Lens = append(cooked.Lens, len(words))
		for ng, c := range countNgrams(words, n) {
			if c > cooked.MaxCounts[ng] {
				cooked.MaxCounts[ng] = c
			}
		}
	}
	return cooked
}

// CookTest computes the statistics of a test segment. The effective
// reference length is the shortest reference. An empty test segment
// counts as length one so the brevity penalty stays defined.
func (s Scorer) CookTest(test string, refs CookedRefs) Comps {
	n := s.order()
	words := Normalize(test, s.PreserveCase)

	comps := Comps{
		TestLen: len(words),
		Guess:   make([]int, n),
		Correct: make([]int, n),
	}
	if comps.TestLen == 0 {
		comps.TestLen = 1
	}
	for i, l := range refs.Lens {
		if i == 0 || l < comps.RefLen {
			comps.RefLen = l
		}
	}
	for k := 1; k <= n; k++ {
		comps.Guess[k-1] = max(len(words)-k+1, 0)
	}
	for ng, c := range countNgrams(words, n) {
		comps.Correct[ngramOrder(ng)-1] += min(refs.MaxCounts[ng], c)
	}
	return comps
}

// Corpus scores a list of cooked segments as one corpus.
func (s Scorer) Corpus(all []Comps) float64 {
	n := s.order()
	var testLen, refLen int
	guess := make([]int, n)
	correct := make([]int, n)
	for _, c := range all {
		testLen += c.TestLen
		refLen += c.RefLen
		for k := 0; k < n; k++ {
			guess[k] += c.Guess[k]
			correct[k] += c.Correct[k]
		}
	}

	logBLEU := 0.0
	for k := 0; k < n; k++ {
		if correct[k] == 0 {
			return 0
		}
		logBLEU += math.Log(float64(correct[k])) - math.Log(float64(guess[k]))
	}
	logBLEU /= float64(n)
	logBLEU += math.Min(0, 1-float64(refLen)/float64(testLen))
	return math.Exp(logBLEU)
}

// PerSentence scores every cooked segment on its own with add-one
// smoothing. Each row holds the smoothed precision of every n-gram order
// followed by the sentence BLEU. Orders without a match contribute a zero
// precision and nothing to the log sum.
func (s Scorer) PerSentence(all []Comps) [][]float64 {
	n := s.order()
	out := make([][]float64, 0, len(all))
	for _, c := range all {
		row := make([]float64, 0, n+1)
		logBLEU := 0.0
		for k := 0; k < n; k++ {
			if c.Correct[k] == 0 {
				row = append(row, 0)
				continue
			}
			row = append(row, float64(c.Correct[k]+1)/float64(c.Guess[k]+1))
			logBLEU += math.Log(float64(c.Correct[k]+1)) - math.Log(float64(c.Guess[k]+1))
		}

		if logBLEU == 0 && maxOf(row) == 0 {
			row = append(row, 0)
		} else {
			logBLEU /= float64(n)
			logBLEU += math.Min(0, 1-float64(c.RefLen)/float64(c.TestLen))
			row = append(row, math.Exp(logBLEU))
		}
		out = append(out, row)
	}
	return out
}

// Sentence returns the smoothed BLEU of one test sentence against one
// reference. When chars is set both are split into characters first.
func (s Scorer) Sentence(ref, test string, chars bool) float64 {
	if chars {
		ref, test = SplitChars(ref), SplitChars(test)
	}
	comps := s.CookTest(test, s.CookRefs([]string{ref}))
	row := s.PerSentence([]Comps{comps})[0]
	return row[len(row)-1]
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for i, x := range xs {
		if i == 0 || x > m {
			m = x
		}
	}
	return m
}
