package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/dstckit/core/semtag"
)

// bigramSep joins the previous and current word of a context key.
const bigramSep = "\x00"

// LexiconTagger tags each word with the label it carried most often in
// training. A label seen after the same previous word takes precedence
// over the word's overall label. Words never seen are tagged O.
type LexiconTagger struct {
	Unigrams map[string]map[string]int `json:"unigrams"`
	Bigrams  map[string]map[string]int `json:"bigrams"`
}

// NewLexiconTagger returns an untrained tagger.
func NewLexiconTagger() *LexiconTagger {
	return &LexiconTagger{
		Unigrams: make(map[string]map[string]int),
		Bigrams:  make(map[string]map[string]int),
	}
}

// Add records one training sentence. Words are matched case-insensitively.
func (t *LexiconTagger) Add(words, labels []string) error {
	if len(words) != len(labels) {
		return fmt.Errorf("sentence has %d words but %d labels", len(words), len(labels))
	}
	prev := ""
	for i, w := range words {
		w = strings.ToLower(w)
		count(t.Unigrams, w, labels[i])
		count(t.Bigrams, prev+bigramSep+w, labels[i])
		prev = w
	}
	return nil
}

func count(m map[string]map[string]int, key, label string) {
	c, ok := m[key]
	if !ok {
		c = make(map[string]int)
		m[key] = c
	}
	c[label]++
}

// Tag labels words. An I- label that does not continue a span of the same
// label is turned into a B- label.
func (t *LexiconTagger) Tag(words []string) []string {
	out := make([]string, len(words))
	prev := ""
	for i, w := range words {
		w = strings.ToLower(w)
		label, ok := best(t.Bigrams[prev+bigramSep+w])
		if !ok {
			label, ok = best(t.Unigrams[w])
		}
		if !ok {
			label = "O"
		}
		out[i] = label
		prev = w
	}
	return repairBIO(out)
}

// best returns the most frequent label, breaking ties on the smaller one.
func best(counts map[string]int) (string, bool) {
	var (
		label string
		n     int
	)
	for l, c := range counts {
		if c > n || (c == n && l < label) {
			label, n = l, c
		}
	}
	return label, n > 0
}

func repairBIO(labels []string) []string {
	var prev semtag.Label
	for i, s := range labels {
		bio, l := semtag.ParseBIOLabel(s)
		if bio == semtag.Inside && l != prev {
			labels[i] = semtag.FormatBIOLabel(semtag.Begin, l)
		}
		prev = l
	}
	return labels
}

// Vocabulary returns the trained words in sorted order.
func (t *LexiconTagger) Vocabulary() []string {
	words := make([]string, 0, len(t.Unigrams))
	for w := range t.Unigrams {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

var _ SequenceTagger = (*LexiconTagger)(nil)
