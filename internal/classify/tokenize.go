package classify

import (
	"strings"
	"unicode"
)

// contractions are the clitics split off the preceding word.
var contractions = []string{"n't", "'s", "'re", "'ve", "'ll", "'m", "'d"}

// Words splits an English sentence into word tokens. Runs of letters and
// digits form words, every other symbol is its own token, and clitics such
// as n't and 's are split from their host word. A period or comma between
// two digits stays inside the number.
func Words(s string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, splitClitic(string(cur))...)
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isWordRune(r):
			cur = append(cur, r)
		case (r == '.' || r == ',') && len(cur) > 0 && unicode.IsDigit(cur[len(cur)-1]) &&
			i+1 < len(rs) && unicode.IsDigit(rs[i+1]):
			cur = append(cur, r)
		case r == '\'' && len(cur) > 0 && i+1 < len(rs) && isWordRune(rs[i+1]):
			cur = append(cur, r)
		default:
			flush()
			out = append(out, string(r))
		}
	}
	flush()
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' || r == '-'
}

func splitClitic(word string) []string {
	lower := strings.ToLower(word)
	for _, c := range contractions {
		if len(lower) > len(c) && strings.HasSuffix(lower, c) {
			cut := len(word) - len(c)
			return []string{word[:cut], word[cut:]}
		}
	}
	return []string{word}
}
