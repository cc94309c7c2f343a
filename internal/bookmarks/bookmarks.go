// Package bookmarks implements Bookmarks (component I): a sparse map
// from block number to label, re-indexed when the document is
// truncated, per spec.md §3's data model: "Sparse map line → label,
// with re-indexing on buffer truncation."
package bookmarks

import (
	"sort"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// Set is the sparse line->label map.
type Set struct {
	byLine    map[trowser.BlockNum]string
	onChanged func(b trowser.BlockNum, present bool)
}

// New returns an empty bookmark set.
func New() *Set {
	return &Set{byLine: make(map[trowser.BlockNum]string)}
}

// OnChanged registers a callback invoked whenever a bookmark is added or
// removed at a specific block, per spec.md §9's "explicit observer
// registration" preference over a back-reference from Bookmarks to the
// Highlighter that paints the bookmark tag.
func (s *Set) OnChanged(fn func(b trowser.BlockNum, present bool)) { s.onChanged = fn }

func (s *Set) notify(b trowser.BlockNum, present bool) {
	if s.onChanged != nil {
		s.onChanged(b, present)
	}
}

// Toggle adds a bookmark at b with the given label if absent, or removes
// it if already present. Returns whether a bookmark now exists at b.
func (s *Set) Toggle(b trowser.BlockNum, label string) bool {
	if _, ok := s.byLine[b]; ok {
		delete(s.byLine, b)
		s.notify(b, false)
		return false
	}
	s.byLine[b] = label
	s.notify(b, true)
	return true
}

// Set unconditionally sets the label at b, adding the bookmark if absent.
func (s *Set) Set(b trowser.BlockNum, label string) {
	_, existed := s.byLine[b]
	s.byLine[b] = label
	if !existed {
		s.notify(b, true)
	}
}

// Remove deletes the bookmark at b, if any.
func (s *Set) Remove(b trowser.BlockNum) {
	if _, ok := s.byLine[b]; ok {
		delete(s.byLine, b)
		s.notify(b, false)
	}
}

// Label returns the label at b, if a bookmark exists there.
func (s *Set) Label(b trowser.BlockNum) (string, bool) {
	l, ok := s.byLine[b]
	return l, ok
}

// Contains reports whether a bookmark exists at b.
func (s *Set) Contains(b trowser.BlockNum) bool {
	_, ok := s.byLine[b]
	return ok
}

// Len returns the number of bookmarks currently set.
func (s *Set) Len() int { return len(s.byLine) }

// Clear removes every bookmark, notifying for each one removed.
func (s *Set) Clear() {
	old := s.byLine
	s.byLine = make(map[trowser.BlockNum]string)
	for line := range old {
		s.notify(line, false)
	}
}

// Entry is one (line, label) pair, used for sorted iteration and file
// I/O round-tripping.
type Entry struct {
	Line  trowser.BlockNum
	Label string
}

// Sorted returns every bookmark in ascending line order.
func (s *Set) Sorted() []Entry {
	out := make([]Entry, 0, len(s.byLine))
	for line, label := range s.byLine {
		out = append(out, Entry{Line: line, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// Next returns the nearest bookmark strictly after from, wrapping to the
// lowest bookmark if none exists past the end (per the "jump to next/
// previous bookmark" navigation behavior common to this class of
// browser). ok is false only when the set is empty.
func (s *Set) Next(from trowser.BlockNum) (trowser.BlockNum, bool) {
	entries := s.Sorted()
	if len(entries) == 0 {
		return 0, false
	}
	for _, e := range entries {
		if e.Line > from {
			return e.Line, true
		}
	}
	return entries[0].Line, true
}

// Prev returns the nearest bookmark strictly before from, wrapping to
// the highest bookmark if none exists before the start.
func (s *Set) Prev(from trowser.BlockNum) (trowser.BlockNum, bool) {
	entries := s.Sorted()
	if len(entries) == 0 {
		return 0, false
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Line < from {
			return entries[i].Line, true
		}
	}
	return entries[len(entries)-1].Line, true
}

// Reindex implements the document's truncation remapping rule from
// spec.md §3 "Lifecycle": "On truncation with top kept at new-line-0
// through bottom exclusive: all block-number-bearing entities are
// re-mapped by n -> n - top for n in [top, bottom) and dropped
// otherwise." Bookmarks outside [top, bottom) are discarded; the rest
// shift down by top.
func (s *Set) Reindex(top, bottom trowser.BlockNum) {
	next := make(map[trowser.BlockNum]string, len(s.byLine))
	for line, label := range s.byLine {
		if line < top || line >= bottom {
			continue
		}
		next[line-top] = label
	}
	s.byLine = next
}
