package encoding

import "testing"

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "is there a bus", "is there a bus"},
		{"ampersand", "fish & chips", "fish &amp; chips"},
		{"quotes", `the "lion" city`, "the &#34;lion&#34; city"},
		{"unicode", "新加坡 & Sentosa", "新加坡 &amp; Sentosa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeXML(tt.input); got != tt.want {
				t.Errorf("EscapeXML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"less than", "a < b", "a &lt; b"},
		{"greater than", "a > b", "a &gt; b"},
		{"quotes preserved", `He said "hello"`, `He said "hello"`},
		{"markup", "<PLACE>x</PLACE>", "&lt;PLACE&gt;x&lt;/PLACE&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeXMLText(tt.input); got != tt.want {
				t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "NAME", "NAME"},
		{"quote", `a"b`, "a&quot;b"},
		{"ampersand", "R&B", "R&amp;B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeXMLAttr(tt.input); got != tt.want {
				t.Errorf("EscapeXMLAttr(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeRune(t *testing.T) {
	tests := []struct {
		in   rune
		want string
	}{
		{'a', "a"},
		{'&', "&amp;"},
		{'<', "&lt;"},
		{'>', "&gt;"},
		{'"', `"`},
		{'新', "新"},
	}

	for _, tt := range tests {
		if got := EscapeRune(tt.in); got != tt.want {
			t.Errorf("EscapeRune(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
