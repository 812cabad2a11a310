package semtag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRoundTripExact(t *testing.T) {
	inputs := []string{
		sentosa,
		`<PLACE cat="NAME">Sentosa Island</PLACE> is nice`,
		`<A>x</A><B cat="v">y</B>`,
		`plain text`,
		`<FOOD cat="DISH">fish &amp; chips</FOOD>`,
	}
	for _, in := range inputs {
		res, err := NewParser(ModeWord).Parse(in)
		require.NoError(t, err)
		assert.Equal(t, in, Render(res.LabeledChars()))
		assert.Equal(t, in, RenderResult(res))
	}
}

func TestRenderRoundTripChars(t *testing.T) {
	inputs := []string{
		`<PLACE cat="NAME" from="x">Sentosa</PLACE>  is &lt;nice&gt;`,
		`<A> a </A><A>b</A> c`,
		`<Place cat='NAME'>新加坡</PLACE>很好`,
	}
	for _, mode := range []Mode{ModeChar, ModeWord} {
		for _, in := range inputs {
			first, err := NewParser(mode).Parse(in)
			require.NoError(t, err)

			rendered := Render(first.LabeledChars())
			second, err := NewParser(mode).Parse(rendered)
			require.NoError(t, err, "rendered %q", rendered)

			assert.Equal(t, first.CharSeq(), second.CharSeq())
			assert.Equal(t, first.Text, second.Text)
			assert.Equal(t, labels(first.CharTags()), labels(second.CharTags()))
		}
	}
}

func TestRender(t *testing.T) {
	place := Label{Category: "PLACE", Value: "NAME"}
	tests := []struct {
		name  string
		chars []LabeledChar
		want  string
	}{
		{"empty", nil, ""},
		{"untagged", chars("ab", Label{}), "ab"},
		{"closes at end", chars("ab", place), `<PLACE cat="NAME">ab</PLACE>`},
		{"no value", chars("x", Label{Category: "TIME"}), `<TIME>x</TIME>`},
		{
			"label change",
			append(chars("a", place), chars("b", Label{Category: "PLACE", Value: "AREA"})...),
			`<PLACE cat="NAME">a</PLACE><PLACE cat="AREA">b</PLACE>`,
		},
		{
			"adjacent equal labels merge",
			append(chars("x", Label{Category: "A"}), chars("y", Label{Category: "A"})...),
			`<A>xy</A>`,
		},
		{"escapes text", chars("a<b", Label{}), "a&lt;b"},
		{"escapes value", chars("x", Label{Category: "A", Value: `"q"`}), `<A cat="&quot;q&quot;">x</A>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.chars))
		})
	}
}

func TestRenderMergesAdjacentSpans(t *testing.T) {
	// Only labels survive a parse, so the boundary between two abutting
	// spans of the same label is lost.
	for _, mode := range []Mode{ModeChar, ModeWord} {
		res, err := NewParser(mode).Parse(`<A>x</A><A>y</A>`)
		require.NoError(t, err)
		assert.Equal(t, `<A>xy</A>`, RenderResult(res))
	}

	res, err := NewParser(ModeWord).Parse(`<A cat="v">x</A> <A cat="v">y</A>`)
	require.NoError(t, err)
	assert.Equal(t, `<A cat="v">x y</A>`, RenderResult(res), "whitespace between equal spans joins them")
}

func chars(s string, l Label) []LabeledChar {
	var out []LabeledChar
	for _, r := range s {
		out = append(out, LabeledChar{Char: r, Label: l})
	}
	return out
}

func labels(anns []Annotation) []Label {
	out := make([]Label, len(anns))
	for i, a := range anns {
		out[i] = a.Label()
	}
	return out
}
