// Package incsearch implements IncSearchFSM (component G): the state
// machine driving incremental and atomic search from the search entry
// field, key shortcuts, and API calls from the filter-list and highlight
// dialogs.
package incsearch

import (
	"regexp"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/trowser/internal/bgscheduler"
	"github.com/standardbeagle/trowser/internal/searchhist"
	"github.com/standardbeagle/trowser/internal/textfind"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// debounceDelay is the ~100ms the spec gives for typing debounce.
const debounceDelay = 100 * time.Millisecond

// State is one of the five FSM states from spec.md §4.4.
type State int

const (
	StateIdle State = iota
	StateEntered
	StateRunning
	StateDoneMatch
	StateDoneNoMatch
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEntered:
		return "entered"
	case StateRunning:
		return "running"
	case StateDoneMatch:
		return "done-match"
	case StateDoneNoMatch:
		return "done-no-match"
	default:
		return "unknown"
	}
}

// Position is a (block, column) cursor location, used both as the
// baseline captured on entry and as the "current cursor" atomic searches
// continue from.
type Position struct {
	Block trowser.BlockNum
	Col   int
}

// Document is the read surface the FSM's Finder needs.
type Document interface {
	textfind.Source
	Generation() trowser.Generation
}

// Highlighter is the subset of highlight.Highlighter the FSM drives.
type Highlighter interface {
	SetSearchHighlight(par trowser.SearchPar, fmt trowser.FormatSpec)
	SetIncrementHighlight(block trowser.BlockNum, set bool)
}

// FSM is IncSearchFSM.
type FSM struct {
	doc     Document
	sched   *bgscheduler.Scheduler
	task    *bgscheduler.Task
	hl      Highlighter
	history *searchhist.History
	fmt     trowser.FormatSpec

	state    State
	baseline Position
	cursor   Position

	finder *textfind.Finder
	par    trowser.SearchPar
	dir    trowser.Direction

	moveCursor func(Position)
	warn       func(message string)

	historyPrefix string
	historyIter   *searchhist.Iterator
}

// New creates an FSM over doc, using sched for debounce/scan dispatch and
// hl for the ephemeral search highlights it drives.
func New(doc Document, sched *bgscheduler.Scheduler, hl Highlighter, history *searchhist.History, fmt trowser.FormatSpec) *FSM {
	return &FSM{
		doc:     doc,
		sched:   sched,
		task:    bgscheduler.NewTask("incsearch", bgscheduler.PrioritySearchInc),
		hl:      hl,
		history: history,
		fmt:     fmt,
	}
}

// OnMoveCursor registers the callback the FSM uses to move the
// application's real cursor on a match or on restoring the baseline.
func (f *FSM) OnMoveCursor(fn func(Position)) { f.moveCursor = fn }

// OnWarning registers the callback used for the Done-NoMatch status
// message (optionally including a "did you mean" suggestion).
func (f *FSM) OnWarning(fn func(string)) { f.warn = fn }

// State returns the FSM's current state.
func (f *FSM) State() State { return f.state }

// Enter transitions Idle -> Entered, capturing baseline at the current
// cursor position if this is the first entry (spec.md §4.4: "Baseline is
// captured at first entry to Entered").
func (f *FSM) Enter(cursor Position) {
	if f.state == StateIdle {
		f.baseline = cursor
	}
	f.cursor = cursor
	f.state = StateEntered
}

// TextChanged is the debounced entry point for incremental search: a
// keystroke in the search field. An empty pattern clears highlights and
// restores baseline; a non-empty, syntactically valid pattern
// (re)schedules a debounced scan from baseline, cancelling any previous
// one in flight.
func (f *FSM) TextChanged(par trowser.SearchPar, dir trowser.Direction) {
	f.sched.Stop(f.task)
	if par.Empty() {
		f.hl.SetSearchHighlight(trowser.SearchPar{}, trowser.FormatSpec{})
		f.hl.SetIncrementHighlight(0, false)
		if f.moveCursor != nil {
			f.moveCursor(f.baseline)
		}
		f.cursor = f.baseline
		f.state = StateEntered
		return
	}
	f.par = par
	f.dir = dir
	f.sched.After(f.task, debounceDelay, func() { f.startScan(f.baseline) })
}

// startScan begins a Running scan from from, used for both the
// debounced incremental path and the atomic repeat-key path.
func (f *FSM) startScan(from Position) {
	f.state = StateRunning
	f.finder = textfind.New(f.doc, f.par, f.dir, from.Block, from.Col)
	f.hl.SetSearchHighlight(f.par, f.fmt)
	f.stepScan()
}

func (f *FSM) stepScan() {
	for {
		m, ok := f.finder.FindNext()
		if ok {
			f.onMatch(Position{Block: m.Block, Col: m.Start})
			return
		}
		if f.finder.IsDone() {
			f.onNoMatch()
			return
		}
		// block cap reached mid-scan; yield and resume.
		f.sched.Start(f.task, f.stepScan)
		return
	}
}

func (f *FSM) onMatch(pos Position) {
	f.state = StateDoneMatch
	f.cursor = pos
	f.hl.SetIncrementHighlight(pos.Block, true)
	if f.moveCursor != nil {
		f.moveCursor(pos)
	}
}

func (f *FSM) onNoMatch() {
	f.state = StateDoneNoMatch
	f.hl.SetIncrementHighlight(0, false)
	if f.moveCursor != nil {
		f.moveCursor(f.baseline)
	}
	f.cursor = f.baseline
	if f.warn != nil {
		f.warn(f.noMatchMessage())
	}
}

// noMatchMessage builds the Done-NoMatch status text, adding a "did you
// mean" suggestion from the closest history entry by Levenshtein
// distance when one is close enough to be useful.
func (f *FSM) noMatchMessage() string {
	msg := "pattern not found: " + f.par.Pattern
	best, bestScore, ok := f.closestHistoryEntry(f.par.Pattern)
	if ok && bestScore > 0 {
		msg += " (did you mean \"" + best + "\"?)"
	}
	return msg
}

func (f *FSM) closestHistoryEntry(pattern string) (best string, score float64, ok bool) {
	if f.history == nil {
		return "", 0, false
	}
	for _, h := range f.history.All() {
		if h.Pattern == pattern {
			continue
		}
		sim, err := edlib.StringsSimilarity(pattern, h.Pattern, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if sim > score {
			score, best, ok = sim, h.Pattern, true
		}
	}
	return best, score, ok
}

// Commit handles Return: commits the pattern to history and leaves the
// entry field, keeping whatever highlight is currently showing. If a
// scan is still Running, it is left to finish on its own; the committed
// result is whatever state it lands in.
func (f *FSM) Commit() {
	if !f.par.Empty() {
		f.history.AddEntry(f.par)
	}
}

// EscapeKey handles Escape: restore baseline, clear highlights, return
// to Idle.
func (f *FSM) EscapeKey() {
	f.sched.Stop(f.task)
	f.hl.SetSearchHighlight(trowser.SearchPar{}, trowser.FormatSpec{})
	f.hl.SetIncrementHighlight(0, false)
	if f.moveCursor != nil {
		f.moveCursor(f.baseline)
	}
	f.cursor = f.baseline
	f.state = StateIdle
}

// Repeat runs an atomic (non-debounced) search for par in dir from the
// current cursor position, which holds the start of the previous match.
// A backward search only finds matches that end at or before that
// column. A forward search starts one column after it, so it can return
// a match that overlaps the previous one.
func (f *FSM) Repeat(par trowser.SearchPar, dir trowser.Direction) {
	f.sched.Stop(f.task)
	f.par = par
	f.dir = dir
	from := f.cursor
	if dir == trowser.DirForward {
		from.Col++
	}
	f.startScan(from)
}

// wordBoundaryRegexChars are the regex metacharacters escaped when
// wrapping a word-under-cursor search in regex mode.
var wordBoundaryRegexChars = regexp.MustCompile(`[.^$*+?()\[\]{}|\\]`)

// WordUnderCursor builds the SearchPar for `*`/`#`: the word under the
// cursor. In regex mode its metacharacters are escaped and it is wrapped
// with \b word boundaries; in plain mode the word is used as-is.
func WordUnderCursor(word string, regexMode, matchCase bool) trowser.SearchPar {
	pattern := word
	if regexMode {
		pattern = wordBoundaryRegexChars.ReplaceAllStringFunc(pattern, func(s string) string { return `\` + s })
		pattern = `\b` + pattern + `\b`
	}
	return trowser.SearchPar{Pattern: pattern, Regexp: regexMode, MatchCase: matchCase}
}

// HistoryUp navigates to the next older history entry whose pattern has
// the current entry text as prefix; the first call captures that text as
// the preserved prefix.
func (f *FSM) HistoryUp(currentText string) (trowser.SearchPar, bool) {
	if f.historyIter == nil {
		f.historyPrefix = currentText
		f.historyIter = f.history.Begin()
	} else {
		f.historyIter.Next()
	}
	for f.historyIter.Valid() {
		v := f.historyIter.Value()
		if len(v.Pattern) >= len(f.historyPrefix) && v.Pattern[:len(f.historyPrefix)] == f.historyPrefix {
			return v, true
		}
		f.historyIter.Next()
	}
	return trowser.SearchPar{}, false
}

// HistoryDown resets iteration, restoring the preserved prefix text
// (spec.md §4.4: "restored when iteration wraps past the ends").
func (f *FSM) HistoryDown() string {
	f.historyIter = nil
	return f.historyPrefix
}
