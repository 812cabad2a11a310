package semtag

import (
	"testing"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sentosa = `<PLACE cat="NAME">Sentosa</PLACE> is nice`

func TestParseWordMode(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(sentosa)
	require.NoError(t, err)

	assert.Equal(t, "Sentosa is nice", res.Text)
	assert.Equal(t, "Sentosaisnice", res.CharString())
	assert.Equal(t, []string{"Sentosa", "is", "nice"}, res.WordSeq())

	tags := res.WordTags()
	assert.Equal(t, Begin, tags[0].BIO)
	assert.Equal(t, "PLACE", tags[0].Tag)
	assert.Equal(t, Label{Category: "PLACE", Value: "NAME"}, tags[0].Label())
	assert.True(t, tags[1].IsZero())
	assert.True(t, tags[2].IsZero())

	for i, c := range res.Chars {
		switch {
		case i == 0:
			assert.Equal(t, Begin, c.BIO, "char %d", i)
		case i < 7:
			assert.Equal(t, Inside, c.BIO, "char %d", i)
			assert.Equal(t, "PLACE", c.Tag, "char %d", i)
		default:
			assert.True(t, c.IsZero(), "char %d", i)
		}
	}

	want := make([]bool, 13)
	want[7] = true
	want[9] = true
	assert.Equal(t, want, res.Boundaries())
}

func TestParseCharMode(t *testing.T) {
	res, err := NewParser(ModeChar).Parse(`<PLACE cat="NAME">新加坡</PLACE>很好`)
	require.NoError(t, err)

	assert.Equal(t, []string{"新", "加", "坡", "很", "好"}, res.WordSeq())
	assert.Equal(t, []BIO{Begin, Inside, Inside, Outside, Outside}, bios(res.WordTags()))
	assert.Equal(t, []BIO{Begin, Inside, Inside, Outside, Outside}, bios(res.CharTags()))
	assert.Equal(t, []bool{false, true, true, true, true}, res.Boundaries())
}

func TestParseCharModeSkipsWhitespace(t *testing.T) {
	res, err := NewParser(ModeChar).Parse("a b\tc　d")
	require.NoError(t, err)
	assert.Equal(t, "abcd", res.CharString())
	assert.Len(t, res.TextLabels, len([]rune(res.Text)))
}

func TestParseSpanAcrossChunks(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`<PLACE>Sentosa</PLACE>island`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sentosa", "island"}, res.WordSeq())
	assert.Equal(t, []bool{false, false, false, false, false, false, false, true, false, false, false, false, false}, res.Boundaries())
}

func TestParseBeginWaitsForFirstToken(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`go <TIME>  now later</TIME>`)
	require.NoError(t, err)
	assert.Equal(t, []BIO{Outside, Begin, Inside}, bios(res.WordTags()))
}

func TestParseAttributes(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`<FOOD cat='DISH' from="" halal=yes spicy>laksa</FOOD>`)
	require.NoError(t, err)

	ann := res.Words[0].Annotation
	assert.Equal(t, []Attr{
		{Key: "cat", Value: "DISH"},
		{Key: "from", Value: ""},
		{Key: "halal", Value: "yes"},
		{Key: "spicy", Value: ""},
	}, ann.Attrs)

	v, ok := ann.Attr("CAT")
	assert.True(t, ok)
	assert.Equal(t, "DISH", v)
}

func TestParseEntities(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`<FOOD cat="R&amp;B">fish &amp; chips</FOOD> &lt;3`)
	require.NoError(t, err)
	assert.Equal(t, "fish & chips <3", res.Text)
	assert.Equal(t, "R&B", res.Words[0].Label().Value)
}

func TestParseEndTagCaseInsensitive(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`<Place cat="NAME">Sentosa</PLACE>`)
	require.NoError(t, err)
	assert.Equal(t, "Place", res.Words[0].Tag)
}

func TestParseSelfClosing(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(`<BREAK/>hello`)
	require.NoError(t, err)
	require.Len(t, res.Words, 1)
	assert.True(t, res.Words[0].IsZero())
}

func TestParseEmpty(t *testing.T) {
	res, err := NewParser(ModeChar).Parse("")
	require.NoError(t, err)
	assert.Empty(t, res.Chars)
	assert.Empty(t, res.Words)
	assert.Equal(t, "", res.Text)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		target   any
	}{
		{"nested start tag", `<A>x<B>y</B></A>`, ErrNesting, new(*NestingError)},
		{"end tag mismatch", `<A>x</B>`, ErrMismatchedTag, new(*MismatchedTagError)},
		{"end tag without span", `x</A>`, ErrMismatchedTag, new(*MismatchedTagError)},
		{"unclosed span", `<A>x`, ErrUnclosedTag, new(*UnclosedTagError)},
		{"stray open bracket", `a < b`, ErrSyntax, new(*SyntaxError)},
		{"truncated tag", `<A`, ErrSyntax, new(*SyntaxError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewParser(ModeChar).Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, cerrors.ErrInvalidInput)
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

func TestParseErrorPositions(t *testing.T) {
	_, err := NewParser(ModeChar).Parse("ab\n<A>x")
	var unclosed *UnclosedTagError
	require.ErrorAs(t, err, &unclosed)
	assert.Equal(t, "A", unclosed.Tag)
	assert.Equal(t, 2, unclosed.Pos.Line)

	_, err = NewParser(ModeChar).Parse(`<A>x</B>`)
	var mismatch *MismatchedTagError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "A", mismatch.Open)
	assert.Equal(t, "B", mismatch.Tag)
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		sentosa,
		`<A>x</A> y <B cat="v">z</B>`,
		"plain words only",
	}
	shared := NewParser(ModeWord)
	for _, in := range inputs {
		_, _ = shared.Parse(`<broken>`)
		first, err := shared.Parse(in)
		require.NoError(t, err)
		second, err := shared.Parse(in)
		require.NoError(t, err)
		fresh, err := NewParser(ModeWord).Parse(in)
		require.NoError(t, err)

		assert.Equal(t, fresh, first)
		assert.Equal(t, fresh, second)
	}
}

func TestSpans(t *testing.T) {
	res, err := NewParser(ModeWord).Parse(
		`<PLACE cat="name" from="">Sentosa Island</PLACE> is <TIME>now</TIME> <PLACE cat="NAME">Changi</PLACE>`)
	require.NoError(t, err)

	assert.Equal(t, []TaggedSpan{
		{Tag: "PLACE", Attributes: map[string]string{"CAT": "NAME", "FROM": "NONE"}, Mention: "Sentosa Island"},
		{Tag: "TIME", Attributes: map[string]string{}, Mention: "now"},
		{Tag: "PLACE", Attributes: map[string]string{"CAT": "NAME"}, Mention: "Changi"},
	}, res.Spans())
}

func TestLengthInvariant(t *testing.T) {
	inputs := []string{sentosa, `<A> a b </A>c`, "x  y", ""}
	for _, mode := range []Mode{ModeChar, ModeWord} {
		for _, in := range inputs {
			res, err := NewParser(mode).Parse(in)
			require.NoError(t, err)
			n := len(res.Chars)
			assert.Len(t, res.Boundaries(), n)
			assert.Len(t, res.CharTags(), n)
			assert.Len(t, res.TextLabels, len([]rune(res.Text)))

			total := 0
			for _, w := range res.WordSeq() {
				total += len([]rune(w))
			}
			assert.Equal(t, n, total, "%s %q", mode, in)
		}
	}
}

func TestLabel(t *testing.T) {
	l := ParseLabel("PLACE_NAME_LONG")
	assert.Equal(t, Label{Category: "PLACE", Value: "NAME_LONG"}, l)
	assert.Equal(t, "PLACE_NAME_LONG", l.String())
	assert.Equal(t, "TIME", ParseLabel("TIME").String())
	assert.True(t, Label{}.IsZero())

	assert.True(t, Label{Category: "A", Value: "Z"}.Less(Label{Category: "B"}))
	assert.True(t, Label{Category: "A", Value: "X"}.Less(Label{Category: "A", Value: "Y"}))
	assert.False(t, Label{Category: "A"}.Less(Label{Category: "A"}))
}

func TestBIOLabel(t *testing.T) {
	place := Label{Category: "PLACE", Value: "NAME"}
	assert.Equal(t, "B-PLACE_NAME", FormatBIOLabel(Begin, place))
	assert.Equal(t, "I-PLACE_NAME", FormatBIOLabel(Inside, place))
	assert.Equal(t, "O", FormatBIOLabel(Outside, place))
	assert.Equal(t, "O", FormatBIOLabel(Begin, Label{}))

	b, l := ParseBIOLabel("I-PLACE_NAME")
	assert.Equal(t, Inside, b)
	assert.Equal(t, place, l)

	b, l = ParseBIOLabel("O")
	assert.Equal(t, Outside, b)
	assert.True(t, l.IsZero())
}

func bios(anns []Annotation) []BIO {
	out := make([]BIO, len(anns))
	for i, a := range anns {
		out[i] = a.BIO
	}
	return out
}
