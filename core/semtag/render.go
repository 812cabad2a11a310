package semtag

import (
	"strings"

	"github.com/FocuswithJustin/dstckit/core/encoding"
)

// Render writes chars back as markup, one span per run of equal labels.
func Render(chars []LabeledChar) string {
	var (
		sb   strings.Builder
		prev Label
	)
	for _, c := range chars {
		if c.Label != prev {
			if !prev.IsZero() {
				closeSpan(&sb, prev)
			}
			if !c.Label.IsZero() {
				openSpan(&sb, c.Label)
			}
			prev = c.Label
		}
		sb.WriteString(encoding.EscapeRune(c.Char))
	}
	if !prev.IsZero() {
		closeSpan(&sb, prev)
	}
	return sb.String()
}

func openSpan(sb *strings.Builder, l Label) {
	sb.WriteByte('<')
	sb.WriteString(l.Category)
	if l.Value != "" {
		sb.WriteString(` cat="`)
		sb.WriteString(encoding.EscapeXMLAttr(l.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
}

func closeSpan(sb *strings.Builder, l Label) {
	sb.WriteString("</")
	sb.WriteString(l.Category)
	sb.WriteByte('>')
}

// RenderResult renders the labels of a parse.
func RenderResult(r *ParseResult) string {
	return Render(r.LabeledChars())
}
