package frameparse

import (
	"hash/maphash"
	"sort"
	"sync"

	"github.com/dgryski/go-tinylfu"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// entry is CacheEntry from the data model: a cached (value, frame) result
// good for every block in [startLine, lastLine]. Grounded on the
// teacher's CachedMetrics — same "explicit bounds checked before
// recompute" shape, with a TTL field replaced by an interval.
type entry struct {
	startLine trowser.BlockNum
	lastLine  trowser.BlockNum
	result    Result
}

// cacheCapacity bounds how many intervals the admission cache retains
// before tinylfu starts evicting the least popular ones; chosen so a
// session scrolling through a large document doesn't grow the cache
// unbounded, per the teacher's own cache size-limiting pattern.
const cacheCapacity = 4096

var cacheSeed = maphash.MakeSeed()

func blockHash(b trowser.BlockNum) uint64 {
	return maphash.Comparable(cacheSeed, b)
}

// frameCache is the ordered-by-startLine interval cache described in
// spec.md §3/§4.6. The authoritative index is the sorted `entries` slice
// (binary-searchable, matching "lower_bound on the cache"); `admission`
// is a tinylfu popularity tracker used only to decide which entries to
// evict once the slice would otherwise grow without bound — eviction
// removes the entry from both structures.
type frameCache struct {
	mu        sync.Mutex
	entries   []*entry // sorted by startLine, non-overlapping
	admission *tinylfu.T[trowser.BlockNum, *entry]
}

func newFrameCache() *frameCache {
	c := &frameCache{}
	c.admission = tinylfu.New[trowser.BlockNum, *entry](
		cacheCapacity, cacheCapacity*10, blockHash,
		tinylfu.OnEvict(c.evict))
	return c
}

func (c *frameCache) evict(key trowser.BlockNum, _ *entry) {
	for i, e := range c.entries {
		if e.startLine == key {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return
		}
	}
}

// lookup implements the spec's "lower_bound on the cache gives either an
// exact hit or the immediately preceding interval" rule: find the last
// entry whose startLine <= target, and check target falls within its
// [startLine, lastLine] bound.
func (c *frameCache) lookup(target trowser.BlockNum) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].startLine > target })
	if i == 0 {
		return nil, false
	}
	e := c.entries[i-1]
	if target < e.startLine || target > e.lastLine {
		return nil, false
	}
	return e, true
}

// extend widens e's lastLine to include target, used on a Linear-mode
// cache hit so subsequent nearby queries become O(1) per spec.md §4.6.
func (c *frameCache) extend(e *entry, target trowser.BlockNum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target > e.lastLine {
		e.lastLine = target
	}
}

// insert adds a new non-overlapping interval to the cache, keeping
// `entries` sorted by startLine, and registers it with the admission
// tracker so it becomes eligible for eviction under memory pressure.
func (c *frameCache) insert(startLine, lastLine trowser.BlockNum, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{startLine: startLine, lastLine: lastLine, result: result}
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].startLine >= startLine })
	c.entries = append(c.entries, nil)
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
	c.admission.Add(startLine, e)
}

// clear empties the cache, used on document generation change or spec
// change per spec.md §4.6 "Invalidation".
func (c *frameCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.admission = tinylfu.New[trowser.BlockNum, *entry](
		cacheCapacity, cacheCapacity*10, blockHash,
		tinylfu.OnEvict(c.evict))
}
