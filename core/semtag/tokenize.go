package semtag

import (
	"strings"
)

// Tokenize re-segments the characters at the given word boundaries. A word
// always starts at index 0; elsewhere a word starts where boundaries is
// true. Each new word takes the annotation of its first character. The
// boundaries and words are stored on r and returned.
func (r *ParseResult) Tokenize(boundaries []bool) ([]WordAnnotation, error) {
	if len(boundaries) != len(r.Chars) {
		return nil, &LengthMismatchError{Want: len(r.Chars), Got: len(boundaries)}
	}

	var (
		words []WordAnnotation
		word  strings.Builder
		ann   Annotation
	)
	for i := range r.Chars {
		c := &r.Chars[i]
		c.WordStart = i > 0 && boundaries[i]
		if c.WordStart {
			words = append(words, WordAnnotation{Word: word.String(), Annotation: ann})
			word.Reset()
		}
		if word.Len() == 0 {
			ann = c.Annotation
		}
		word.WriteRune(c.Char)
	}
	if word.Len() > 0 {
		words = append(words, WordAnnotation{Word: word.String(), Annotation: ann})
	}

	r.Words = words
	return words, nil
}

// MergeBoundaries returns the per-position OR of two boundary sequences.
func MergeBoundaries(a, b []bool) ([]bool, error) {
	if len(a) != len(b) {
		return nil, &LengthMismatchError{Want: len(a), Got: len(b)}
	}
	merged := make([]bool, len(a))
	for i := range a {
		merged[i] = a[i] || b[i]
	}
	return merged, nil
}

// Reconcile re-tokenizes tagged so that it also breaks at every word
// boundary of general. Both parses must cover the same characters.
func Reconcile(general, tagged *ParseResult) ([]WordAnnotation, error) {
	if err := sameChars(general, tagged); err != nil {
		return nil, err
	}
	merged, err := MergeBoundaries(general.Boundaries(), tagged.Boundaries())
	if err != nil {
		return nil, err
	}
	return tagged.Tokenize(merged)
}

// Resegment re-tokenizes every parse against the union of all their
// boundaries, so their word sequences line up one to one.
func Resegment(results ...*ParseResult) error {
	if len(results) == 0 {
		return nil
	}
	merged := results[0].Boundaries()
	for _, r := range results[1:] {
		if err := sameChars(results[0], r); err != nil {
			return err
		}
		var err error
		if merged, err = MergeBoundaries(merged, r.Boundaries()); err != nil {
			return err
		}
	}
	for _, r := range results {
		if _, err := r.Tokenize(merged); err != nil {
			return err
		}
	}
	return nil
}

func sameChars(a, b *ParseResult) error {
	if len(a.Chars) != len(b.Chars) {
		return &CharMismatchError{General: a.CharString(), Tagged: b.CharString()}
	}
	for i := range a.Chars {
		if a.Chars[i].Char != b.Chars[i].Char {
			return &CharMismatchError{General: a.CharString(), Tagged: b.CharString()}
		}
	}
	return nil
}
