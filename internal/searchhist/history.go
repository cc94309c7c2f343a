// Package searchhist implements SearchHistory (component F): a bounded
// MRU deque of SearchPar, with prefix-filtered iteration for the
// incremental-search "history suggestions" UX (component G).
package searchhist

import (
	"container/list"
	"strings"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// MaxEntries is the bound from the data model: "bounded deque of
// SearchPar (max 50)".
const MaxEntries = 50

// History is the bounded, most-recent-first deque of SearchPar.
// Grounded on the teacher's semantic.LRUCache: a container/list ordering
// structure plus a map for O(1) existing-entry lookup, without the
// teacher's locking since this component lives entirely on the
// single-threaded UI-loop per the concurrency model.
type History struct {
	order   *list.List
	byPat   map[string]*list.Element
	maxSize int
}

// New creates an empty history bounded at MaxEntries.
func New() *History {
	return &History{order: list.New(), byPat: make(map[string]*list.Element), maxSize: MaxEntries}
}

// AddEntry inserts p at the front. Per spec.md §3: "Adding a pattern
// already present moves it to the front; options of the older copy are
// discarded" — so p.Regexp/p.MatchCase on a fresh add always replace
// whatever was stored for that pattern text.
func (h *History) AddEntry(p trowser.SearchPar) {
	if p.Empty() {
		return
	}
	if elem, ok := h.byPat[p.Pattern]; ok {
		h.order.Remove(elem)
	}
	elem := h.order.PushFront(p)
	h.byPat[p.Pattern] = elem

	if h.order.Len() > h.maxSize {
		oldest := h.order.Back()
		h.order.Remove(oldest)
		delete(h.byPat, oldest.Value.(trowser.SearchPar).Pattern)
	}
}

// Front returns the most-recently-added entry, if any.
func (h *History) Front() (trowser.SearchPar, bool) {
	if h.order.Len() == 0 {
		return trowser.SearchPar{}, false
	}
	return h.order.Front().Value.(trowser.SearchPar), true
}

// Len returns the number of entries currently stored.
func (h *History) Len() int { return h.order.Len() }

// All returns every entry, most-recent first.
func (h *History) All() []trowser.SearchPar {
	out := make([]trowser.SearchPar, 0, h.order.Len())
	for e := h.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(trowser.SearchPar))
	}
	return out
}

// Iterator walks the history from most-recent to least-recent.
type Iterator struct {
	elem *list.Element
}

// Begin returns an iterator positioned at the most-recent entry.
func (h *History) Begin() *Iterator {
	return &Iterator{elem: h.order.Front()}
}

// Valid reports whether the iterator still refers to an entry.
func (it *Iterator) Valid() bool { return it.elem != nil }

// Value returns the entry the iterator currently refers to.
func (it *Iterator) Value() trowser.SearchPar { return it.elem.Value.(trowser.SearchPar) }

// Next advances the iterator toward less-recent entries.
func (it *Iterator) Next() { it.elem = it.elem.Next() }

// PrefixFilter returns every entry whose pattern has the given prefix,
// most-recent first, for the incremental-search history-suggestion UX.
// An empty prefix matches everything.
func (h *History) PrefixFilter(prefix string) []trowser.SearchPar {
	var out []trowser.SearchPar
	for it := h.Begin(); it.Valid(); it.Next() {
		p := it.Value()
		if strings.HasPrefix(p.Pattern, prefix) {
			out = append(out, p)
		}
	}
	return out
}
