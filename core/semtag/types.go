package semtag

import (
	"strings"
)

// Mode selects how text between tags is split into words.
type Mode int

const (
	// ModeChar treats every non-whitespace character as a word. It is the
	// mode used for Chinese transcripts and for checking outputs.
	ModeChar Mode = iota
	// ModeWord splits text on whitespace.
	ModeWord
)

func (m Mode) String() string {
	if m == ModeWord {
		return "word"
	}
	return "char"
}

// BIO is the positional marker of a character or word inside a span.
type BIO string

const (
	// Outside marks untagged characters.
	Outside BIO = ""
	// Begin marks the first character or word of a span.
	Begin BIO = "B"
	// Inside marks every later character or word of a span.
	Inside BIO = "I"
)

// Attr is one attribute of a start tag, in markup order.
type Attr struct {
	Key   string
	Value string
}

// Annotation is the span membership of one character or word. The zero
// value means untagged.
type Annotation struct {
	BIO   BIO
	Tag   string
	Attrs []Attr
}

// IsZero reports whether the annotation is outside every span.
func (a Annotation) IsZero() bool {
	return a.Tag == ""
}

// Attr returns the value of attribute key, matched case-insensitively.
func (a Annotation) Attr(key string) (string, bool) {
	for _, attr := range a.Attrs {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// Label returns the category and the value of the cat attribute.
func (a Annotation) Label() Label {
	if a.IsZero() {
		return Label{}
	}
	v, _ := a.Attr("cat")
	return Label{Category: a.Tag, Value: v}
}

func (a Annotation) withBIO(b BIO) Annotation {
	a.BIO = b
	return a
}

// Label is a semantic category plus its cat attribute value.
type Label struct {
	Category string
	Value    string
}

// IsZero reports whether the label is the untagged label.
func (l Label) IsZero() bool {
	return l.Category == ""
}

// String returns the CATEGORY_VALUE form used by trained models and the
// legacy corpus tools.
func (l Label) String() string {
	if l.Value == "" {
		return l.Category
	}
	return l.Category + "_" + l.Value
}

// Less orders labels by category and then value.
func (l Label) Less(o Label) bool {
	if l.Category != o.Category {
		return l.Category < o.Category
	}
	return l.Value < o.Value
}

// ParseLabel splits the CATEGORY_VALUE form on its first underscore.
func ParseLabel(s string) Label {
	cat, val, _ := strings.Cut(s, "_")
	return Label{Category: cat, Value: val}
}

// FormatBIOLabel returns the B-/I-/O sequence label of a word.
func FormatBIOLabel(b BIO, l Label) string {
	if l.IsZero() || b == Outside {
		return "O"
	}
	return string(b) + "-" + l.String()
}

// ParseBIOLabel is the inverse of FormatBIOLabel. Unknown prefixes yield
// the untagged label.
func ParseBIOLabel(s string) (BIO, Label) {
	switch {
	case strings.HasPrefix(s, "B-"):
		return Begin, ParseLabel(s[2:])
	case strings.HasPrefix(s, "I-"):
		return Inside, ParseLabel(s[2:])
	}
	return Outside, Label{}
}

// CharAnnotation is one non-whitespace character of a parsed utterance.
type CharAnnotation struct {
	Char rune
	Annotation
	// WordStart is set on the first character of every word but the first.
	WordStart bool
}

// WordAnnotation is one word with the annotation of its first character.
type WordAnnotation struct {
	Word string
	Annotation
}

// TaggedSpan is a span read from a word-mode parse with its attributes
// upper-cased.
type TaggedSpan struct {
	Tag        string            `json:"main"`
	Attributes map[string]string `json:"attributes"`
	Mention    string            `json:"mention"`
}

// LabeledChar is one character with its label, the renderer's input.
type LabeledChar struct {
	Char rune
	Label
}
