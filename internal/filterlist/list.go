package filterlist

import (
	"github.com/standardbeagle/trowser/internal/assertion"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// List is FilterList: a strictly ascending, deduplicated vector of block
// numbers with undo/redo.
type List struct {
	blocks    []trowser.BlockNum
	deltaRoot *trowser.BlockNum

	undo []UndoRecord // stack; top = undo[len(undo)-1]
	redo []UndoRecord

	open *UndoRecord // in-flight chunked scan record, nil when none

	onChanged func()
}

// New returns an empty FilterList.
func New() *List {
	return &List{}
}

// OnChanged registers a callback invoked after any mutation (manual or
// scan-driven), used by the renderer to refresh the list view.
func (l *List) OnChanged(fn func()) { l.onChanged = fn }

func (l *List) notify() {
	if l.onChanged != nil {
		l.onChanged()
	}
}

// Len returns the number of blocks in the list.
func (l *List) Len() int { return len(l.blocks) }

// Blocks returns a copy of the current sorted block list.
func (l *List) Blocks() []trowser.BlockNum {
	return append([]trowser.BlockNum{}, l.blocks...)
}

// Contains reports whether b is present, in O(log n).
func (l *List) Contains(b trowser.BlockNum) bool {
	_, found := containsAt(l.blocks, b)
	return found
}

// IndexOf returns the position of b in the list, or -1.
func (l *List) IndexOf(b trowser.BlockNum) int {
	i, found := containsAt(l.blocks, b)
	if !found {
		return -1
	}
	return i
}

// SetDeltaRoot sets the optional "delta root" block used for relative
// display; pass nil to clear it.
func (l *List) SetDeltaRoot(b *trowser.BlockNum) { l.deltaRoot = b }

// DeltaRoot returns the current delta root, if any.
func (l *List) DeltaRoot() (trowser.BlockNum, bool) {
	if l.deltaRoot == nil {
		return 0, false
	}
	return *l.deltaRoot, true
}

// HasOpenRecord reports whether a chunked scan's undo record is
// currently open (in flight).
func (l *List) HasOpenRecord() bool { return l.open != nil }

// pushUndo records a completed (non-empty) mutation, clearing redo, per
// spec.md §3: "Any user or scan-originated mutation pushes to undo and
// clears redo."
func (l *List) pushUndo(kind UndoKind, lines []trowser.BlockNum) {
	if len(lines) == 0 {
		return
	}
	l.undo = append(l.undo, UndoRecord{Kind: kind, Lines: lines})
	l.redo = nil
	l.checkInvariant()
}

// Add synchronously inserts blocks not already present (e.g. from
// copySelection's add path), recording one undo entry for the lines that
// actually changed the list.
func (l *List) Add(blocks ...trowser.BlockNum) {
	result, inserted := mergeInsert(l.blocks, blocks)
	l.blocks = result
	l.pushUndo(KindAdd, inserted)
	l.notify()
}

// Remove synchronously deletes the given blocks if present, recording
// one undo entry for the lines that actually changed the list.
func (l *List) Remove(blocks ...trowser.BlockNum) {
	result, removed := mergeRemove(l.blocks, blocks)
	l.blocks = result
	l.pushUndo(KindRemove, removed)
	l.notify()
}

// CopySelection synchronously adds or removes the inclusive block range
// [first, last] spanning the user's selection in the main text.
func (l *List) CopySelection(first, last trowser.BlockNum, add bool) {
	if last < first {
		first, last = last, first
	}
	blocks := make([]trowser.BlockNum, 0, last-first+1)
	for b := first; b <= last; b++ {
		blocks = append(blocks, b)
	}
	if add {
		l.Add(blocks...)
	} else {
		l.Remove(blocks...)
	}
}

// RemoveLines removes entries by index into the current list.
func (l *List) RemoveLines(indices ...int) {
	result, removed := removeByIndex(l.blocks, indices)
	l.blocks = result
	l.pushUndo(KindRemove, removed)
	l.notify()
}

// ClearAll empties the list, recording a single Remove record of
// everything that was present (so undo restores it exactly).
func (l *List) ClearAll() {
	if len(l.blocks) == 0 {
		return
	}
	removed := l.blocks
	l.blocks = nil
	l.pushUndo(KindRemove, removed)
	l.notify()
}

// checkInvariant is the debug-build consistency check from spec.md
// §4.5: the list must stay sorted and duplicate-free after every
// mutation.
func (l *List) checkInvariant() {
	for i := 1; i < len(l.blocks); i++ {
		assertion.Check(l.blocks[i-1] < l.blocks[i], "filterlist: blocks not strictly ascending at index %d", i)
	}
}
