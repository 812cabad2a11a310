// Package encoding provides the escaping rules used when writing tagged
// utterances and NIST XML sets.
package encoding

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// EscapeXML escapes every XML special character, quotes included, using
// the standard library's numeric references.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// markupTextReplacer escapes the characters that would otherwise be read as
// markup inside a tagged utterance.
var markupTextReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// markupAttrReplacer additionally escapes double quotes, since attribute
// values are always written double-quoted.
var markupAttrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

// EscapeXMLText escapes only the basic XML entities for text content.
func EscapeXMLText(s string) string {
	return markupTextReplacer.Replace(s)
}

// EscapeXMLAttr escapes text for use in a double-quoted attribute value.
func EscapeXMLAttr(s string) string {
	return markupAttrReplacer.Replace(s)
}

// EscapeRune escapes a single character of utterance text. It is the
// per-character form of EscapeXMLText used by the markup renderer.
func EscapeRune(r rune) string {
	switch r {
	case '&':
		return "&amp;"
	case '<':
		return "&lt;"
	case '>':
		return "&gt;"
	}
	return string(r)
}
