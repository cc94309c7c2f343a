package highlight

import "github.com/standardbeagle/trowser/internal/trowser"

// Rule is a HighlightRule: a stable id, its search parameters, and the
// format it paints on matching lines.
type Rule struct {
	ID     int
	Search trowser.SearchPar
	Fmt    trowser.FormatSpec
}

// ruleList holds the user-configured rules in the order the user
// arranged them — NOT necessarily ascending by id, since ids are
// assigned once at creation and are stable across reordering (spec.md
// §3: "the id is stable across rule-list edits").
type ruleList struct {
	rules  []Rule
	nextID int
	posOf  map[int]int // id -> position in rules, kept in sync
}

func newRuleList() *ruleList {
	return &ruleList{nextID: trowser.RuleIDFirstUser, posOf: make(map[int]int)}
}

func (rl *ruleList) reindex() {
	rl.posOf = make(map[int]int, len(rl.rules))
	for i, r := range rl.rules {
		rl.posOf[r.ID] = i
	}
}

// Add appends a new rule, assigning it the next dense id.
func (rl *ruleList) Add(search trowser.SearchPar, fmt trowser.FormatSpec) Rule {
	r := Rule{ID: rl.nextID, Search: search, Fmt: fmt}
	rl.nextID++
	rl.rules = append(rl.rules, r)
	rl.posOf[r.ID] = len(rl.rules) - 1
	return r
}

// Remove deletes the rule with the given id, if present.
func (rl *ruleList) Remove(id int) (Rule, bool) {
	i, ok := rl.posOf[id]
	if !ok {
		return Rule{}, false
	}
	removed := rl.rules[i]
	rl.rules = append(rl.rules[:i], rl.rules[i+1:]...)
	rl.reindex()
	return removed, true
}

// Reorder moves the rule with id to newPos (0-based) in the rule list.
func (rl *ruleList) Reorder(id, newPos int) bool {
	i, ok := rl.posOf[id]
	if !ok {
		return false
	}
	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(rl.rules)-1 {
		newPos = len(rl.rules) - 1
	}
	r := rl.rules[i]
	rl.rules = append(rl.rules[:i], rl.rules[i+1:]...)
	head := append(append([]Rule{}, rl.rules[:newPos]...), r)
	rl.rules = append(head, rl.rules[newPos:]...)
	rl.reindex()
	return true
}

// Get returns the rule with the given id.
func (rl *ruleList) Get(id int) (Rule, bool) {
	i, ok := rl.posOf[id]
	if !ok {
		return Rule{}, false
	}
	return rl.rules[i], true
}

// Position returns the rule-list index of id, or -1 if absent. Ids not
// in the user rule list (0, 1, 2 — the reserved ephemeral ids) always
// sort last, with id 0 (search-result) last of all, per spec.md §4.3.
func (rl *ruleList) Position(id int) int {
	if i, ok := rl.posOf[id]; ok {
		return i
	}
	switch id {
	case trowser.RuleIDBookmark:
		return len(rl.rules) + 1
	case trowser.RuleIDSearchIncr:
		return len(rl.rules) + 2
	case trowser.RuleIDSearchResult:
		return len(rl.rules) + 3
	default:
		return len(rl.rules)
	}
}

// All returns the rule list in current order (a copy).
func (rl *ruleList) All() []Rule {
	out := make([]Rule, len(rl.rules))
	copy(out, rl.rules)
	return out
}
