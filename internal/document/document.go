// Package document implements the append-only, block-indexed text buffer
// (component A of the specification): random access to lines ("blocks")
// by block number or by byte offset, with a generation counter that every
// other component's caches key off of.
package document

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// Document is an ordered sequence of blocks. Block numbers are
// contiguous and 0-based; each block's byte position equals the sum of
// the lengths (including line terminator) of all prior blocks.
//
// Document is not safe for concurrent mutation; per the specification's
// concurrency model, all mutation happens on the single UI-loop
// goroutine. Reads may be called from the pipe-loader's worker only
// through the Append path, which is itself UI-loop-serialized by the
// caller.
type Document struct {
	mu         sync.RWMutex
	lines      [][]byte // block text, without line terminator
	offsets    []int64  // offsets[i] = byte position of block i
	generation trowser.Generation
}

// New returns an empty document at generation 0.
func New() *Document {
	return &Document{offsets: []int64{0}}
}

// BlockCount returns the number of blocks currently in the document.
func (d *Document) BlockCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Generation returns the current generation counter.
func (d *Document) Generation() trowser.Generation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// Line returns the text of block b, and whether it exists.
func (d *Document) Line(b trowser.BlockNum) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if b < 0 || int(b) >= len(d.lines) {
		return nil, false
	}
	return d.lines[b], true
}

// Position returns the byte offset of the start of block b.
func (d *Document) Position(b trowser.BlockNum) (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if b < 0 || int(b) >= len(d.lines) {
		return 0, false
	}
	return d.offsets[b], true
}

// BlockAt returns the block number containing byte position pos, via
// binary search over the offsets slice (O(log n)).
func (d *Document) BlockAt(pos int64) trowser.BlockNum {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.blockAtLocked(pos)
}

func (d *Document) blockAtLocked(pos int64) trowser.BlockNum {
	n := len(d.lines)
	if n == 0 {
		return 0
	}
	// offsets has n+1 entries: offsets[i] is start of block i, and
	// offsets[n] is the position just past the last block.
	i := sort.Search(n, func(i int) bool { return d.offsets[i+1] > pos })
	if i >= n {
		i = n - 1
	}
	return trowser.BlockNum(i)
}

// AppendLines appends complete lines (already split on the terminator)
// to the end of the document. It does not change the generation — only
// Truncate/Reset do, since appending never invalidates existing block
// numbers or caches.
func (d *Document) AppendLines(lines [][]byte) {
	if len(lines) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	last := d.offsets[len(d.offsets)-1]
	for _, l := range lines {
		d.lines = append(d.lines, l)
		last += int64(len(l)) + 1 // +1 for the line terminator
		d.offsets = append(d.offsets, last)
	}
}

// Truncate keeps blocks [top, bottom) and renumbers them starting at 0,
// per the lifecycle rule in the specification's data model: "all
// block-number-bearing entities are re-mapped by n -> n - top for n in
// [top, bottom) and dropped otherwise." The generation counter is
// incremented unconditionally (even a no-op truncate invalidates caches,
// matching a reload).
func (d *Document) Truncate(top, bottom trowser.BlockNum) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := trowser.BlockNum(len(d.lines))
	if top < 0 {
		top = 0
	}
	if bottom > n {
		bottom = n
	}
	if bottom < top {
		bottom = top
	}
	newLines := make([][]byte, 0, bottom-top)
	newOffsets := make([]int64, 0, bottom-top+1)
	newOffsets = append(newOffsets, 0)
	off := int64(0)
	for i := top; i < bottom; i++ {
		newLines = append(newLines, d.lines[i])
		off += int64(len(d.lines[i])) + 1
		newOffsets = append(newOffsets, off)
	}
	d.lines = newLines
	d.offsets = newOffsets
	d.generation++
}

// Reset discards all blocks and bumps the generation, used for "reload".
func (d *Document) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = nil
	d.offsets = []int64{0}
	d.generation++
}

// Hash returns a content fingerprint of block b using xxhash, used by
// components (e.g. frame cache) that want a cheap "did this line
// change" signal without comparing the whole byte slice.
func (d *Document) Hash(b trowser.BlockNum) (uint64, bool) {
	line, ok := d.Line(b)
	if !ok {
		return 0, false
	}
	return xxhash.Sum64(line), true
}

// Remap translates a block number from the generation just prior to the
// most recent Truncate to the current generation, returning ok=false if
// the block was dropped. A component can use it right after a Truncate
// to re-index its own block-keyed state (Bookmarks.Reindex and the
// highlight TagMap apply the same rule with their own code); Document
// does not track re-mapping history itself, so callers must supply the
// same (top, bottom) bounds passed to Truncate.
func Remap(b trowser.BlockNum, top, bottom trowser.BlockNum) (trowser.BlockNum, bool) {
	if b < top || b >= bottom {
		return 0, false
	}
	return b - top, true
}
