// Package fuzzy scores approximate string matches the way the main-task
// baseline trackers need: how well the shorter string appears somewhere
// inside the longer one, on a 0 to 100 scale.
//
// Matching blocks follow the Ratcliff/Obershelp algorithm: the longest
// common substring is taken first and the procedure recurses on both sides.
// Inputs are NFC-normalized so composed and decomposed forms compare equal.
package fuzzy

import (
	"math"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// block is a matching run: a[I:I+Size] == b[J:J+Size].
type block struct {
	I, J, Size int
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	return m
}

// longestMatch finds the longest common run in a[alo:ahi] and b[blo:bhi].
// Ties prefer the earliest start in a, then in b.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) block {
	best := block{I: alo, J: blo}
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.Size {
				best = block{I: i - k + 1, J: j - k + 1, Size: k}
			}
		}
		j2len = next
	}
	return best
}

// matchingBlocks returns the matching runs in order, adjacent runs merged,
// terminated by a zero-size block at (len(a), len(b)).
func (m *matcher) matchingBlocks() []block {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var found []block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if x.Size == 0 {
			continue
		}
		found = append(found, x)
		if s.alo < x.I && s.blo < x.J {
			queue = append(queue, span{s.alo, x.I, s.blo, x.J})
		}
		if x.I+x.Size < s.ahi && x.J+x.Size < s.bhi {
			queue = append(queue, span{x.I + x.Size, s.ahi, x.J + x.Size, s.bhi})
		}
	}
	sort.Slice(found, func(p, q int) bool {
		if found[p].I != found[q].I {
			return found[p].I < found[q].I
		}
		return found[p].J < found[q].J
	})

	var merged []block
	for _, x := range found {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.I+last.Size == x.I && last.J+last.Size == x.J {
				last.Size += x.Size
				continue
			}
		}
		merged = append(merged, x)
	}
	return append(merged, block{I: len(m.a), J: len(m.b)})
}

func (m *matcher) ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1
	}
	matches := 0
	for _, x := range m.matchingBlocks() {
		matches += x.Size
	}
	return 2 * float64(matches) / float64(total)
}

func prepare(s string) []rune {
	return []rune(norm.NFC.String(s))
}

// Ratio returns the similarity of a and b, 0 to 100.
func Ratio(a, b string) int {
	ra, rb := prepare(a), prepare(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return int(math.Round(100 * newMatcher(ra, rb).ratio()))
}

// PartialRatio returns the best similarity between the shorter string and
// any equally long window of the longer one, 0 to 100. Windows are placed
// where the matching blocks of the two strings line up. Empty input
// scores 0.
func PartialRatio(a, b string) int {
	shorter, longer := prepare(a), prepare(b)
	if len(shorter) == 0 || len(longer) == 0 {
		return 0
	}
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, x := range newMatcher(shorter, longer).matchingBlocks() {
		start := max(x.J-x.I, 0)
		end := min(start+len(shorter), len(longer))
		r := newMatcher(shorter, longer[start:end]).ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return int(math.Round(100 * best))
}
