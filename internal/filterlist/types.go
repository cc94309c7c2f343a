// Package filterlist implements FilterList (component H): the sorted,
// user-visible set of "interesting" block numbers populated by pattern
// scans and manual edits, with multi-level undo/redo including the
// "open record" chunking protocol for background scans.
package filterlist

import "github.com/standardbeagle/trowser/internal/trowser"

// UndoKind is whether an UndoRecord represents lines added to or removed
// from the list.
type UndoKind int

const (
	KindAdd UndoKind = iota
	KindRemove
)

// Invert returns the opposite kind, used when undo replays a record.
func (k UndoKind) Invert() UndoKind {
	if k == KindAdd {
		return KindRemove
	}
	return KindAdd
}

// UndoRecord is (kind, lines) from the data model: "Add means these
// lines were inserted into the list; Remove means these lines were
// deleted from the list. Undo reverses kind; redo replays."
type UndoRecord struct {
	Kind  UndoKind
	Lines []trowser.BlockNum
}
