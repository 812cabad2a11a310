package semtag

import (
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/net/html"
)

// Parser converts tagged utterances into annotation sequences. It keeps no
// state between calls and is safe for concurrent use.
type Parser struct {
	mode Mode
}

// NewParser returns a parser that splits text according to mode.
func NewParser(mode Mode) *Parser {
	return &Parser{mode: mode}
}

// Mode returns the tokenization mode of the parser.
func (p *Parser) Mode() Mode {
	return p.mode
}

// ParseResult is the outcome of parsing one utterance.
type ParseResult struct {
	// Text is the utterance with markup removed and entities decoded.
	Text string
	// Chars has one entry per non-whitespace character of Text.
	Chars []CharAnnotation
	// Words is the current segmentation of Chars.
	Words []WordAnnotation
	// TextLabels has one entry per rune of Text. Whitespace inside a span
	// carries that span's annotation as Inside.
	TextLabels []Annotation
}

// Parse parses one tagged utterance.
func (p *Parser) Parse(text string) (*ParseResult, error) {
	doc, err := markupParser.ParseString("", text)
	if err != nil {
		return nil, newSyntaxError(err)
	}

	b := &builder{mode: p.mode, res: &ParseResult{}}
	for _, item := range doc.Items {
		switch {
		case item.Start != nil:
			if err := b.start(item.Start); err != nil {
				return nil, err
			}
			if item.Start.selfClosing() {
				b.close()
			}
		case item.End != nil:
			if err := b.end(item.End); err != nil {
				return nil, err
			}
		case item.Text != nil:
			b.text(html.UnescapeString(*item.Text))
		}
	}
	if b.open != nil {
		return nil, &UnclosedTagError{Pos: b.openPos, Tag: b.open.Tag}
	}

	b.res.Text = b.buf.String()
	return b.res, nil
}

// builder walks the markup items, tracking the open span.
type builder struct {
	mode    Mode
	res     *ParseResult
	buf     strings.Builder
	open    *Annotation
	openPos lexer.Position
	// bio is the marker for the next emitted word; Begin until the open
	// span emits its first word.
	bio BIO
	// textBIO plays the same role for TextLabels.
	textBIO BIO
}

func (b *builder) start(tag *startTag) error {
	if b.open != nil {
		return &NestingError{Pos: tag.Pos, Open: b.open.Tag, Tag: tag.Name}
	}
	ann := &Annotation{Tag: tag.Name}
	for _, a := range tag.Attrs {
		attr := Attr{Key: a.Key}
		if a.Value != nil {
			attr.Value = html.UnescapeString(unquote(*a.Value))
		}
		ann.Attrs = append(ann.Attrs, attr)
	}
	b.open = ann
	b.openPos = tag.Pos
	b.bio = Begin
	b.textBIO = Begin
	return nil
}

func (b *builder) end(tag *endTag) error {
	if b.open == nil || !strings.EqualFold(b.open.Tag, tag.Name) {
		open := ""
		if b.open != nil {
			open = b.open.Tag
		}
		return &MismatchedTagError{Pos: tag.Pos, Open: open, Tag: tag.Name}
	}
	b.close()
	return nil
}

func (b *builder) close() {
	b.open = nil
	b.bio = Outside
	b.textBIO = Outside
}

func (b *builder) current(bio BIO) Annotation {
	if b.open == nil {
		return Annotation{}
	}
	return b.open.withBIO(bio)
}

func (b *builder) text(s string) {
	for _, r := range s {
		b.buf.WriteRune(r)
		switch {
		case b.open == nil:
			b.res.TextLabels = append(b.res.TextLabels, Annotation{})
		case unicode.IsSpace(r):
			b.res.TextLabels = append(b.res.TextLabels, b.current(Inside))
		default:
			b.res.TextLabels = append(b.res.TextLabels, b.current(b.textBIO))
			b.textBIO = Inside
		}
	}

	for _, token := range b.tokens(s) {
		b.emit(token)
	}
}

func (b *builder) tokens(s string) []string {
	if b.mode == ModeWord {
		return strings.Fields(s)
	}
	var tokens []string
	for _, r := range s {
		if !unicode.IsSpace(r) {
			tokens = append(tokens, string(r))
		}
	}
	return tokens
}

// emit appends one word and its characters.
func (b *builder) emit(token string) {
	b.res.Words = append(b.res.Words, WordAnnotation{Word: token, Annotation: b.current(b.bio)})

	charBIO := b.bio
	wordStart := len(b.res.Chars) > 0
	for _, r := range token {
		b.res.Chars = append(b.res.Chars, CharAnnotation{
			Char:       r,
			Annotation: b.current(charBIO),
			WordStart:  wordStart,
		})
		if charBIO == Begin {
			charBIO = Inside
		}
		wordStart = false
	}

	if b.bio == Begin {
		b.bio = Inside
	}
}

// CharSeq returns the characters of the utterance without whitespace.
func (r *ParseResult) CharSeq() []rune {
	seq := make([]rune, len(r.Chars))
	for i, c := range r.Chars {
		seq[i] = c.Char
	}
	return seq
}

// CharString returns CharSeq as a string.
func (r *ParseResult) CharString() string {
	return string(r.CharSeq())
}

// Boundaries returns the word-start flag of every character.
func (r *ParseResult) Boundaries() []bool {
	seq := make([]bool, len(r.Chars))
	for i, c := range r.Chars {
		seq[i] = c.WordStart
	}
	return seq
}

// CharTags returns the annotation of every character.
func (r *ParseResult) CharTags() []Annotation {
	seq := make([]Annotation, len(r.Chars))
	for i, c := range r.Chars {
		seq[i] = c.Annotation
	}
	return seq
}

// WordSeq returns the words of the current segmentation.
func (r *ParseResult) WordSeq() []string {
	seq := make([]string, len(r.Words))
	for i, w := range r.Words {
		seq[i] = w.Word
	}
	return seq
}

// WordTags returns the annotation of every word.
func (r *ParseResult) WordTags() []Annotation {
	seq := make([]Annotation, len(r.Words))
	for i, w := range r.Words {
		seq[i] = w.Annotation
	}
	return seq
}

// LabeledChars returns every rune of Text with its label, whitespace
// included.
func (r *ParseResult) LabeledChars() []LabeledChar {
	out := make([]LabeledChar, 0, len(r.TextLabels))
	i := 0
	for _, c := range r.Text {
		out = append(out, LabeledChar{Char: c, Label: r.TextLabels[i].Label()})
		i++
	}
	return out
}

// Spans groups the words into tagged spans. A span starts at a B word and
// runs over the following I words. Attribute keys and values are
// upper-cased and an empty value becomes NONE.
func (r *ParseResult) Spans() []TaggedSpan {
	var (
		spans   []TaggedSpan
		cur     *TaggedSpan
		mention []string
	)
	flush := func() {
		if cur != nil {
			cur.Mention = strings.Join(mention, " ")
			spans = append(spans, *cur)
		}
		cur = nil
		mention = nil
	}

	for _, w := range r.Words {
		if w.BIO == Inside && cur != nil {
			mention = append(mention, w.Word)
			continue
		}
		flush()
		if w.BIO == Begin {
			cur = &TaggedSpan{Tag: w.Tag, Attributes: NormalizeAttrs(w.Attrs)}
			mention = []string{w.Word}
		}
	}
	flush()
	return spans
}

// NormalizeAttrs upper-cases and trims attribute keys and values. Empty
// values become NONE.
func NormalizeAttrs(attrs []Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		v := strings.ToUpper(strings.TrimSpace(a.Value))
		if v == "" {
			v = "NONE"
		}
		out[strings.ToUpper(strings.TrimSpace(a.Key))] = v
	}
	return out
}
