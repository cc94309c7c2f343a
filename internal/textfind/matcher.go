// Package textfind implements the resumable block-scan cursor
// (component C, "TextFinder") and the low-level pattern matcher it is
// built on. Regex matching is backed by github.com/coregx/coregex (a
// multi-engine NFA/lazy-DFA regex engine with a stdlib-regexp-compatible
// surface and guaranteed O(m*n) worst case, a good fit for scanning
// unbounded, untrusted log text); substring matching uses strings.Index
// directly, since coregex adds nothing over it for a fixed literal.
package textfind

import (
	"strings"

	"github.com/coregx/coregex"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// matcher is the compiled form of a SearchPar. Each Finder compiles its
// own, once; Finders built from the same SearchPar do not share it.
type matcher struct {
	par    trowser.SearchPar
	re     *coregex.Regex // nil for substring mode
	folded string         // lower-cased pattern, substring + !MatchCase mode only
	valid  bool
}

// compile builds a matcher for par. An invalid regex pattern yields a
// matcher with valid=false; callers (TextFinder) treat that the same as
// an immediately-exhausted cursor, never as a panic or error return,
// per the specification ("after construction with invalid regex or
// empty pattern, isDone() is true immediately").
func compile(par trowser.SearchPar) *matcher {
	m := &matcher{par: par}
	if par.Empty() {
		return m
	}
	if !par.Regexp {
		m.valid = true
		if !par.MatchCase {
			m.folded = strings.ToLower(par.Pattern)
		}
		return m
	}
	pattern := par.Pattern
	if !par.MatchCase {
		// coregex has no case-fold flag on Compile; it honors the
		// inline (?i) modifier via its syntax layer instead.
		pattern = "(?i)" + pattern
	}
	re, err := coregex.Compile(pattern)
	if err != nil {
		return m // valid stays false
	}
	m.re = re
	m.valid = true
	return m
}

// find returns the first match of m at or after column `from` within
// line (forward semantics: "first match at or after column 0"). Returns
// ok=false if no match exists in the line at/after from.
func (m *matcher) find(line []byte, from int) (start, end int, ok bool) {
	if !m.valid || from > len(line) {
		return 0, 0, false
	}
	if m.re != nil {
		idx := m.re.FindStringSubmatchIndex(string(line[from:]))
		if idx == nil {
			return 0, 0, false
		}
		s, e := idx[0]+from, idx[1]+from
		if s == e {
			e = min(s+1, len(line)) // zero-length match reported as length 1
			if e == s {
				e = s + 1
			}
		}
		return s, e, true
	}
	hay := string(line[from:])
	needle := m.par.Pattern
	if m.folded != "" || (!m.par.MatchCase && needle == "") {
		hay = strings.ToLower(hay)
		needle = m.folded
	}
	i := strings.Index(hay, needle)
	if i < 0 {
		return 0, 0, false
	}
	return i + from, i + from + len(needle), true
}

// findLast returns the last match of m in line at or before column
// `before` (exclusive), used for backward search: "no returned match has
// its end-column >= p in the same block".
func (m *matcher) findLast(line []byte, before int) (start, end int, ok bool) {
	if !m.valid {
		return 0, 0, false
	}
	if before > len(line) {
		before = len(line)
	}
	limit := line[:before]

	if m.re != nil {
		matches := findAllIndex(m.re, string(limit))
		if len(matches) == 0 {
			return 0, 0, false
		}
		last := matches[len(matches)-1]
		s, e := last[0], last[1]
		if s == e {
			e = s + 1
		}
		if e > before {
			return 0, 0, false
		}
		return s, e, true
	}

	hay := string(limit)
	needle := m.par.Pattern
	if m.folded != "" {
		hay = strings.ToLower(hay)
		needle = m.folded
	}
	i := strings.LastIndex(hay, needle)
	if i < 0 {
		return 0, 0, false
	}
	return i, i + len(needle), true
}

// findAllIndex returns the index pairs (and any submatch index pairs) of
// every non-overlapping match of re in s, in order. coregex.Regex has no
// FindAll*Index method, so this drives FindStringSubmatchIndex in a loop
// the same way the stdlib's own FindAll wrappers do internally.
func findAllIndex(re *coregex.Regex, s string) [][]int {
	var out [][]int
	rest := s
	base := 0
	for {
		idx := re.FindStringSubmatchIndex(rest)
		if idx == nil {
			break
		}
		abs := make([]int, len(idx))
		for i, v := range idx {
			if v < 0 {
				abs[i] = -1
			} else {
				abs[i] = v + base
			}
		}
		out = append(out, abs)
		adv := idx[1]
		if adv == idx[0] {
			adv++
		}
		if adv > len(rest) {
			break
		}
		base += adv
		rest = rest[adv:]
	}
	return out
}
