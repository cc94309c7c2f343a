package filterlist

import (
	"sort"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// containsAt reports whether b is present in a sorted, deduplicated
// slice, and its index (or insertion point) either way.
func containsAt(sorted []trowser.BlockNum, b trowser.BlockNum) (idx int, found bool) {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= b })
	return i, i < len(sorted) && sorted[i] == b
}

// mergeInsert merges newBlocks into sorted, which must both already be
// sorted and deduplicated, returning the new sorted result and the
// subset of newBlocks that were not already present (the only ones that
// actually changed the list, and so the only ones recorded in an undo
// entry per spec.md §4.5 "Filtering behaviors").
//
// This is the grouped-range-insert algorithm from spec.md §4.5 expressed
// as a single linear merge: computing "one binary search per new block,
// offset by sequence position" and applying the inserts as grouped
// ranges is equivalent, for a sorted insertion set, to merging the two
// sorted sequences in one O(n+m) pass — the approach taken here.
func mergeInsert(sorted []trowser.BlockNum, newBlocks []trowser.BlockNum) (result []trowser.BlockNum, inserted []trowser.BlockNum) {
	add := dedupeSorted(newBlocks)
	result = make([]trowser.BlockNum, 0, len(sorted)+len(add))
	inserted = make([]trowser.BlockNum, 0, len(add))

	i, j := 0, 0
	for i < len(sorted) && j < len(add) {
		switch {
		case sorted[i] < add[j]:
			result = append(result, sorted[i])
			i++
		case sorted[i] > add[j]:
			result = append(result, add[j])
			inserted = append(inserted, add[j])
			j++
		default: // already present: skip, not inserted, not recorded
			result = append(result, sorted[i])
			i++
			j++
		}
	}
	result = append(result, sorted[i:]...)
	for ; j < len(add); j++ {
		result = append(result, add[j])
		inserted = append(inserted, add[j])
	}
	return result, inserted
}

// mergeRemove removes targets from sorted (both already sorted and
// deduplicated), returning the new result and the subset of targets that
// were actually present (and so actually removed).
func mergeRemove(sorted []trowser.BlockNum, targets []trowser.BlockNum) (result []trowser.BlockNum, removed []trowser.BlockNum) {
	drop := dedupeSorted(targets)
	result = make([]trowser.BlockNum, 0, len(sorted))
	removed = make([]trowser.BlockNum, 0, len(drop))

	i, j := 0, 0
	for i < len(sorted) {
		if j < len(drop) && sorted[i] == drop[j] {
			removed = append(removed, sorted[i])
			i++
			j++
			continue
		}
		if j < len(drop) && drop[j] < sorted[i] {
			j++
			continue
		}
		result = append(result, sorted[i])
		i++
	}
	return result, removed
}

func dedupeSorted(blocks []trowser.BlockNum) []trowser.BlockNum {
	cp := append([]trowser.BlockNum(nil), blocks...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	var last trowser.BlockNum
	haveLast := false
	for _, b := range cp {
		if haveLast && b == last {
			continue
		}
		out = append(out, b)
		last, haveLast = b, true
	}
	return out
}

// removeByIndex removes the elements at the given (0-based) indices into
// sorted, grouping consecutive descending indices into single range
// deletions per spec.md §4.5's removal algorithm.
func removeByIndex(sorted []trowser.BlockNum, indices []int) (result []trowser.BlockNum, removed []trowser.BlockNum) {
	idx := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))

	result = append([]trowser.BlockNum(nil), sorted...)
	removed = make([]trowser.BlockNum, 0, len(idx))

	i := 0
	for i < len(idx) {
		hi := idx[i]
		lo := hi
		j := i + 1
		for j < len(idx) && idx[j] == lo-1 {
			lo = idx[j]
			j++
		}
		if hi < 0 || hi >= len(result) || lo < 0 {
			i = j
			continue
		}
		removed = append(removed, result[lo:hi+1]...)
		result = append(result[:lo:lo], result[hi+1:]...)
		i = j
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return result, removed
}
