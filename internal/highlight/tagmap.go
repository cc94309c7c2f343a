package highlight

import (
	"sort"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// TagMap is the multimap block-number -> rule-id described in spec.md
// §3. Invariant: every (block, id) pair is unique; enforced by storing
// each block's ids as a sorted, deduplicated slice.
type TagMap struct {
	byBlock map[trowser.BlockNum][]int
}

func newTagMap() *TagMap {
	return &TagMap{byBlock: make(map[trowser.BlockNum][]int)}
}

// Add records that block carries rule id. Each block's ids are kept in
// ascending id order whatever order they are added in; rule-list order
// is applied later, by ComposedFormat.
func (t *TagMap) Add(block trowser.BlockNum, id int) {
	ids := t.byBlock[block]
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return // already present; uniqueness invariant
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	t.byBlock[block] = ids
}

// RemoveIDFromBlock drops a single (block, id) entry, if present.
func (t *TagMap) RemoveIDFromBlock(block trowser.BlockNum, id int) {
	ids := t.byBlock[block]
	i := sort.SearchInts(ids, id)
	if i >= len(ids) || ids[i] != id {
		return
	}
	ids = append(ids[:i:i], ids[i+1:]...)
	if len(ids) == 0 {
		delete(t.byBlock, block)
	} else {
		t.byBlock[block] = ids
	}
}

// RemoveID drops every (block, id) entry for the given rule id, and
// returns the set of blocks that were touched (so callers can recompute
// composed formats only for those).
func (t *TagMap) RemoveID(id int) []trowser.BlockNum {
	var touched []trowser.BlockNum
	for block, ids := range t.byBlock {
		i := sort.SearchInts(ids, id)
		if i >= len(ids) || ids[i] != id {
			continue
		}
		ids = append(ids[:i:i], ids[i+1:]...)
		if len(ids) == 0 {
			delete(t.byBlock, block)
		} else {
			t.byBlock[block] = ids
		}
		touched = append(touched, block)
	}
	return touched
}

// RuleIDs returns the (ascending, by id) rule ids tagged on block.
func (t *TagMap) RuleIDs(block trowser.BlockNum) []int {
	return t.byBlock[block]
}

// Remap re-keys the map after a document truncation, dropping entries
// outside [top, bottom).
func (t *TagMap) Remap(top, bottom trowser.BlockNum) {
	next := make(map[trowser.BlockNum][]int, len(t.byBlock))
	for block, ids := range t.byBlock {
		if block < top || block >= bottom {
			continue
		}
		next[block-top] = ids
	}
	t.byBlock = next
}

// Clear empties the map (used on document reset).
func (t *TagMap) Clear() {
	t.byBlock = make(map[trowser.BlockNum][]int)
}
