package highlight

import (
	"strings"
	"time"

	"github.com/coregx/ahocorasick"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// literalBatch groups the plain-substring ("not regexp") rules active in
// one initial scan so they can be applied with a single Aho-Corasick
// pass over the document instead of one TextFinder pass per rule —
// turning an O(rules * blocks) scan into O(blocks) for the common case
// of many plain-text highlight rules. Regex rules are unaffected and
// still run their own per-rule textfind.Finder pass in stepInit.
type literalBatch struct {
	rules   []Rule // same order as patterns/matcher indices
	matcher *ahocorasick.Matcher
	fold    bool // true if patterns were lowercased for a case-insensitive match
}

// buildLiteralBatch compiles every plain-substring rule in rules into one
// matcher, if there are at least two of them (below that, a single
// TextFinder pass is just as fast and simpler). Rules are grouped by
// MatchCase since the automaton itself has no per-pattern case folding.
func buildLiteralBatch(rules []Rule) []*literalBatch {
	byCase := map[bool][]Rule{}
	for _, r := range rules {
		if r.Search.Regexp || r.Search.Empty() {
			continue
		}
		byCase[r.Search.MatchCase] = append(byCase[r.Search.MatchCase], r)
	}
	var batches []*literalBatch
	for matchCase, rs := range byCase {
		if len(rs) < 2 {
			continue
		}
		patterns := make([]string, len(rs))
		for i, r := range rs {
			p := r.Search.Pattern
			if !matchCase {
				p = strings.ToLower(p)
			}
			patterns[i] = p
		}
		batches = append(batches, &literalBatch{
			rules:   rs,
			matcher: ahocorasick.NewStringMatcher(patterns),
			fold:    !matchCase,
		})
	}
	return batches
}

// scanLiteralBatches runs every batch over the whole document in one
// forward pass each, tagging TagMap directly (bypassing textfind
// entirely for these rules). It respects the same step budget as the
// rule-by-rule scan so it never blocks the UI loop for long, yielding by
// returning early with the block index it reached; callers resume by
// passing that index back in as `from`.
func (h *Highlighter) scanLiteralBatches(batches []*literalBatch, from trowser.BlockNum, budget time.Duration) (next trowser.BlockNum, done bool) {
	deadline := time.Now().Add(budget)
	n := h.doc.BlockCount()
	b := from
	for ; int(b) < n; b++ {
		if time.Now().After(deadline) {
			return b, false
		}
		line, ok := h.doc.Line(b)
		if !ok {
			continue
		}
		for _, batch := range batches {
			hay := line
			if batch.fold {
				hay = []byte(strings.ToLower(string(line)))
			}
			for _, idx := range batch.matcher.Match(hay) {
				rule := batch.rules[idx]
				h.tags.Add(b, rule.ID)
			}
		}
		if h.onChanged != nil {
			h.onChanged(b)
		}
	}
	return b, true
}
