// Package highlight implements the highlight engine (component D):
// applying a list of HighlightRules to every line of the document,
// maintaining a per-line TagMap, and composing overlapping rule formats
// deterministically for rendering.
package highlight

import (
	"log/slog"
	"sort"
	"time"

	"github.com/standardbeagle/trowser/internal/bgscheduler"
	"github.com/standardbeagle/trowser/internal/textfind"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// stepBudget is the wall-clock slice a single scan step runs before
// yielding back to the scheduler (spec.md §4.3/§5).
const stepBudget = 100 * time.Millisecond

// yieldEvery is the reschedule count after which an extra delay is
// inserted to let interactive work in (spec.md §4.3).
const yieldEvery = 10

// yieldDelay is that extra delay.
const yieldDelay = 10 * time.Millisecond

// Document is the read surface Highlighter needs.
type Document interface {
	textfind.Source
	Generation() trowser.Generation
}

// Highlighter owns the rule list and TagMap for one document.
type Highlighter struct {
	doc   Document
	sched *bgscheduler.Scheduler
	log   *slog.Logger

	rules *ruleList
	tags  *TagMap

	initTask   *bgscheduler.Task
	searchTask *bgscheduler.Task

	initGen    trowser.Generation
	initState  *scanState // nil when no init scan in flight
	searchGen  trowser.Generation
	searchPar  trowser.SearchPar
	searchFmt  trowser.FormatSpec
	searchScan *scanState

	// ephemeral per-character "search increment" highlight (id 1):
	// a single (block, start, end) painted directly, not scanned.
	incrBlock trowser.BlockNum
	incrSet   bool

	onChanged func(block trowser.BlockNum) // optional render-invalidation hook
}

// scanState tracks one in-flight rule-by-rule initial scan.
type scanState struct {
	ruleIdx     int // index into the rule snapshot being scanned
	rules       []Rule
	finder      *textfind.Finder
	reschedules int

	// literal (Aho-Corasick) fast path for batched plain-substring rules.
	batches     []*literalBatch
	literalNext trowser.BlockNum
	literalDone bool
}

// New creates a Highlighter over doc, dispatching scans through sched.
func New(doc Document, sched *bgscheduler.Scheduler, log *slog.Logger) *Highlighter {
	if log == nil {
		log = slog.Default()
	}
	h := &Highlighter{
		doc:        doc,
		sched:      sched,
		log:        log.With("component", "highlighter"),
		rules:      newRuleList(),
		tags:       newTagMap(),
		initTask:   bgscheduler.NewTask("highlight-init", bgscheduler.PriorityHighlightInit),
		searchTask: bgscheduler.NewTask("highlight-search", bgscheduler.PriorityHighlightSearch),
	}
	return h
}

// OnChanged registers a callback invoked whenever a block's composed
// format may have changed (rule added/removed, scan progressed past it).
func (h *Highlighter) OnChanged(fn func(block trowser.BlockNum)) { h.onChanged = fn }

// AddRule appends a new rule and (re)starts the initial scan.
func (h *Highlighter) AddRule(search trowser.SearchPar, fmt trowser.FormatSpec) Rule {
	r := h.rules.Add(search, fmt)
	h.restartInitScan()
	return r
}

// RemoveRule deletes a rule, drops its tags, and recomputes composed
// formats for every block it touched.
func (h *Highlighter) RemoveRule(id int) {
	if _, ok := h.rules.Remove(id); !ok {
		return
	}
	touched := h.tags.RemoveID(id)
	h.notifyAll(touched)
	h.restartInitScan()
}

// ReorderRule moves a rule to a new position in the rule list, which
// changes composition order for every block it is tagged on.
func (h *Highlighter) ReorderRule(id, newPos int) {
	if h.rules.Reorder(id, newPos) {
		h.notifyAll(h.allTaggedBlocks())
	}
}

func (h *Highlighter) allTaggedBlocks() []trowser.BlockNum {
	// best-effort: callers needing exhaustive recompute after reorder
	// rely on a full re-render rather than per-block diffing.
	return nil
}

func (h *Highlighter) notifyAll(blocks []trowser.BlockNum) {
	if h.onChanged == nil {
		return
	}
	for _, b := range blocks {
		h.onChanged(b)
	}
}

// restartInitScan cancels any in-flight initial scan and starts a fresh
// one over the current rule-list snapshot, per spec: "On rule-list
// change or document load... runs as a BgScheduler task at
// HIGHLIGHT_INIT."
func (h *Highlighter) restartInitScan() {
	h.sched.Stop(h.initTask)
	snapshot := h.rules.All()
	if len(snapshot) == 0 {
		h.initState = nil
		return
	}
	batches := buildLiteralBatch(snapshot)
	batched := make(map[int]bool)
	for _, b := range batches {
		for _, r := range b.rules {
			batched[r.ID] = true
		}
	}
	var perRule []Rule
	for _, r := range snapshot {
		if !batched[r.ID] {
			perRule = append(perRule, r)
		}
	}
	h.initState = &scanState{rules: perRule, batches: batches, literalDone: len(batches) == 0}
	h.initGen = h.doc.Generation()
	h.sched.Start(h.initTask, h.stepInit)
}

func (h *Highlighter) stepInit() {
	st := h.initState
	if st == nil || h.doc.Generation() != h.initGen {
		h.initState = nil
		return
	}
	deadline := time.Now().Add(stepBudget)

	if !st.literalDone {
		next, done := h.scanLiteralBatches(st.batches, st.literalNext, time.Until(deadline))
		st.literalNext = next
		st.literalDone = done
		if !done {
			h.sched.Start(h.initTask, h.stepInit)
			return
		}
	}

	for time.Now().Before(deadline) {
		if st.finder == nil {
			if st.ruleIdx >= len(st.rules) {
				h.initState = nil
				return // scan complete
			}
			rule := st.rules[st.ruleIdx]
			st.finder = textfind.New(h.doc, rule.Search, trowser.DirForward, 0, 0)
		}
		rule := st.rules[st.ruleIdx]
		m, ok := st.finder.FindNext()
		if ok {
			h.tags.Add(m.Block, rule.ID)
			if h.onChanged != nil {
				h.onChanged(m.Block)
			}
			continue
		}
		if st.finder.IsDone() {
			st.finder = nil
			st.ruleIdx++
			continue
		}
		break // block cap reached mid-rule; resume same rule next step
	}
	if h.initState == nil {
		return
	}
	st.reschedules++
	if st.reschedules%yieldEvery == 0 {
		h.sched.After(h.initTask, yieldDelay, h.stepInit)
		return
	}
	h.sched.Start(h.initTask, h.stepInit)
}

// ViewportScan synchronously highlights just the given inclusive block
// range, so the user sees highlights immediately on scroll even while an
// initial scan is still in flight over the rest of the document (spec.md
// §4.3 "Viewport scan").
func (h *Highlighter) ViewportScan(first, last trowser.BlockNum) {
	for _, rule := range h.rules.All() {
		f := textfind.New(h.doc, rule.Search, trowser.DirForward, first, 0)
		for {
			m, ok := f.FindNext()
			if !ok {
				break
			}
			if m.Block > last {
				break
			}
			h.tags.Add(m.Block, rule.ID)
			if h.onChanged != nil {
				h.onChanged(m.Block)
			}
		}
	}
}

// SetSearchHighlight (re)starts the ephemeral highlight-all scan (id 0)
// at HIGHLIGHT_SEARCH priority, cancelling any previous one. Passing an
// empty pattern clears it.
func (h *Highlighter) SetSearchHighlight(par trowser.SearchPar, fmt trowser.FormatSpec) {
	h.sched.Stop(h.searchTask)
	touched := h.tags.RemoveID(trowser.RuleIDSearchResult)
	h.notifyAll(touched)
	if par.Empty() {
		h.searchScan = nil
		return
	}
	h.searchPar = par
	h.searchFmt = fmt
	h.searchGen = h.doc.Generation()
	h.searchScan = &scanState{finder: textfind.New(h.doc, par, trowser.DirForward, 0, 0)}
	h.sched.Start(h.searchTask, h.stepSearch)
}

func (h *Highlighter) stepSearch() {
	st := h.searchScan
	if st == nil || h.doc.Generation() != h.searchGen {
		h.searchScan = nil
		return
	}
	deadline := time.Now().Add(stepBudget)
	for time.Now().Before(deadline) {
		m, ok := st.finder.FindNext()
		if ok {
			h.tags.Add(m.Block, trowser.RuleIDSearchResult)
			if h.onChanged != nil {
				h.onChanged(m.Block)
			}
			continue
		}
		if st.finder.IsDone() {
			h.searchScan = nil
			return
		}
		break
	}
	if h.searchScan != nil {
		h.sched.Start(h.searchTask, h.stepSearch)
	}
}

// SetIncrementHighlight paints the per-character "search increment"
// highlight (id 1) on exactly one block, replacing any previous one.
func (h *Highlighter) SetIncrementHighlight(block trowser.BlockNum, set bool) {
	if h.incrSet {
		old := h.incrBlock
		h.tags.RemoveID(trowser.RuleIDSearchIncr)
		if h.onChanged != nil {
			h.onChanged(old)
		}
	}
	h.incrSet = set
	if !set {
		return
	}
	h.incrBlock = block
	h.tags.Add(block, trowser.RuleIDSearchIncr)
	if h.onChanged != nil {
		h.onChanged(block)
	}
}

// SetBookmarkTag adds or removes the bookmark highlight (id 2) on block.
func (h *Highlighter) SetBookmarkTag(block trowser.BlockNum, set bool) {
	if set {
		h.tags.Add(block, trowser.RuleIDBookmark)
	} else {
		ids := h.tags.RuleIDs(block)
		i := sort.SearchInts(ids, trowser.RuleIDBookmark)
		if i < len(ids) && ids[i] == trowser.RuleIDBookmark {
			h.tags.RemoveIDFromBlock(block, trowser.RuleIDBookmark)
		}
	}
	if h.onChanged != nil {
		h.onChanged(block)
	}
}

// ComposedFormat renders block B per spec.md §4.3: enumerate tag ids in
// rule-list order, merge field-by-field, with the ephemeral search
// highlight (id 0) merged last regardless of its nominal position.
func (h *Highlighter) ComposedFormat(block trowser.BlockNum, bookmarkFmt trowser.FormatSpec) trowser.FormatSpec {
	ids := append([]int(nil), h.tags.RuleIDs(block)...)
	sort.Slice(ids, func(i, j int) bool { return h.rules.Position(ids[i]) < h.rules.Position(ids[j]) })

	var out trowser.FormatSpec
	for _, id := range ids {
		switch id {
		case trowser.RuleIDBookmark:
			out = out.Merge(bookmarkFmt)
		case trowser.RuleIDSearchIncr:
			out = out.Merge(h.searchFmt)
		case trowser.RuleIDSearchResult:
			// merged last, below
		default:
			if r, ok := h.rules.Get(id); ok {
				out = out.Merge(r.Fmt)
			}
		}
	}
	for _, id := range ids {
		if id == trowser.RuleIDSearchResult {
			out = out.Merge(h.searchFmt)
		}
	}
	return out
}

// Rules returns the current rule list in rule-list order.
func (h *Highlighter) Rules() []Rule { return h.rules.All() }

// Stop cancels any in-flight scans, used when the document is about to
// be truncated/reloaded (spec.md §5 ordering guarantee).
func (h *Highlighter) Stop() {
	h.sched.Stop(h.initTask)
	h.sched.Stop(h.searchTask)
	h.initState = nil
	h.searchScan = nil
}

// Remap re-keys TagMap after a document truncation.
func (h *Highlighter) Remap(top, bottom trowser.BlockNum) {
	h.tags.Remap(top, bottom)
}
