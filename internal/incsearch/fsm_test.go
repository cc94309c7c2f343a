package incsearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/trowser/internal/bgscheduler"
	"github.com/standardbeagle/trowser/internal/searchhist"
	"github.com/standardbeagle/trowser/internal/trowser"
)

type fakeDoc struct {
	lines [][]byte
	gen   trowser.Generation
}

func (d *fakeDoc) BlockCount() int { return len(d.lines) }
func (d *fakeDoc) Line(b trowser.BlockNum) ([]byte, bool) {
	if b < 0 || int(b) >= len(d.lines) {
		return nil, false
	}
	return d.lines[b], true
}
func (d *fakeDoc) Generation() trowser.Generation { return d.gen }

type fakeHighlighter struct {
	searchPar trowser.SearchPar
	incrBlock trowser.BlockNum
	incrSet   bool
}

func (h *fakeHighlighter) SetSearchHighlight(par trowser.SearchPar, fmt trowser.FormatSpec) {
	h.searchPar = par
}
func (h *fakeHighlighter) SetIncrementHighlight(block trowser.BlockNum, set bool) {
	h.incrBlock, h.incrSet = block, set
}

func newTestFSM(doc *fakeDoc) (*FSM, *bgscheduler.Scheduler, *fakeHighlighter) {
	sched := bgscheduler.New()
	hl := &fakeHighlighter{}
	hist := searchhist.New()
	f := New(doc, sched, hl, hist, trowser.FormatSpec{})
	return f, sched, hl
}

func drain(sched *bgscheduler.Scheduler) {
	for i := 0; i < 1000 && sched.Pending() > 0; i++ {
		sched.RunOne()
	}
}

func TestEnterCapturesBaselineOnlyOnce(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("x")}}
	f, _, _ := newTestFSM(doc)

	f.Enter(Position{Block: 5, Col: 2})
	assert.Equal(t, Position{Block: 5, Col: 2}, f.baseline)

	f.Enter(Position{Block: 9, Col: 0})
	assert.Equal(t, Position{Block: 5, Col: 2}, f.baseline, "baseline must not move on re-entry while not Idle")
}

func TestTextChangedDebouncesThenMatches(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("alpha"), []byte("beta")}}
	f, sched, hl := newTestFSM(doc)
	f.Enter(Position{Block: 0, Col: 0})

	var moved Position
	f.OnMoveCursor(func(p Position) { moved = p })

	f.TextChanged(trowser.SearchPar{Pattern: "beta", MatchCase: true}, trowser.DirForward)

	// the debounce timer runs on its own dedicated timer, not the queue
	time.Sleep(debounceDelay + 20*time.Millisecond)
	drain(sched)

	assert.Equal(t, StateDoneMatch, f.State())
	assert.Equal(t, trowser.BlockNum(1), moved.Block)
	assert.True(t, hl.incrSet)
}

func TestEmptyTextRestoresBaseline(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("x")}}
	f, _, hl := newTestFSM(doc)
	f.Enter(Position{Block: 3, Col: 1})

	var moved Position
	f.OnMoveCursor(func(p Position) { moved = p })
	f.TextChanged(trowser.SearchPar{}, trowser.DirForward)

	assert.Equal(t, StateEntered, f.State())
	assert.Equal(t, Position{Block: 3, Col: 1}, moved)
	assert.False(t, hl.incrSet)
}

func TestNoMatchRestoresBaselineAndWarns(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("alpha")}}
	f, sched, _ := newTestFSM(doc)
	f.Enter(Position{Block: 0, Col: 0})

	var warned string
	f.OnWarning(func(msg string) { warned = msg })
	f.TextChanged(trowser.SearchPar{Pattern: "zzz", MatchCase: true}, trowser.DirForward)
	time.Sleep(debounceDelay + 20*time.Millisecond)
	drain(sched)

	assert.Equal(t, StateDoneNoMatch, f.State())
	assert.Contains(t, warned, "zzz")
}

func TestEscapeRestoresBaselineAndClearsHighlights(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("alpha"), []byte("beta")}}
	f, sched, hl := newTestFSM(doc)
	f.Enter(Position{Block: 0, Col: 0})
	f.TextChanged(trowser.SearchPar{Pattern: "beta", MatchCase: true}, trowser.DirForward)
	time.Sleep(debounceDelay + 20*time.Millisecond)
	drain(sched)
	require.Equal(t, StateDoneMatch, f.State())

	f.EscapeKey()
	assert.Equal(t, StateIdle, f.State())
	assert.True(t, hl.searchPar.Empty())
	assert.False(t, hl.incrSet)
}

func TestRepeatContinuesFromCursorNotBaseline(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{
		[]byte("foo"), []byte("foo"), []byte("foo"),
	}}
	f, sched, _ := newTestFSM(doc)
	f.Enter(Position{Block: 0, Col: 0})
	f.Repeat(trowser.SearchPar{Pattern: "foo", MatchCase: true}, trowser.DirForward)
	drain(sched)
	require.Equal(t, trowser.BlockNum(1), f.cursor.Block)

	f.Repeat(trowser.SearchPar{Pattern: "foo", MatchCase: true}, trowser.DirForward)
	drain(sched)
	assert.Equal(t, trowser.BlockNum(2), f.cursor.Block, "second repeat must continue past the previous match, not restart from baseline")
}

func TestWordUnderCursorEscapesRegexMetacharsAndWrapsBoundaries(t *testing.T) {
	par := WordUnderCursor("a.b", true, true)
	assert.Equal(t, `\ba\.b\b`, par.Pattern)
	assert.True(t, par.Regexp)
}

func TestWordUnderCursorPlainMode(t *testing.T) {
	par := WordUnderCursor("a.b", false, true)
	assert.Equal(t, "a.b", par.Pattern)
	assert.False(t, par.Regexp)
}

func TestHistoryUpFiltersByPrefixAndDownRestores(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("x")}}
	f, _, _ := newTestFSM(doc)
	f.history.AddEntry(trowser.SearchPar{Pattern: "err1"})
	f.history.AddEntry(trowser.SearchPar{Pattern: "warn"})
	f.history.AddEntry(trowser.SearchPar{Pattern: "err2"})

	p, ok := f.HistoryUp("err")
	require.True(t, ok)
	assert.Equal(t, "err2", p.Pattern)

	p, ok = f.HistoryUp("err")
	require.True(t, ok)
	assert.Equal(t, "err1", p.Pattern)

	restored := f.HistoryDown()
	assert.Equal(t, "err", restored)
}

func TestCommitAddsToHistory(t *testing.T) {
	doc := &fakeDoc{lines: [][]byte{[]byte("x")}}
	f, _, _ := newTestFSM(doc)
	f.par = trowser.SearchPar{Pattern: "needle", MatchCase: true}
	f.Commit()

	front, ok := f.history.Front()
	require.True(t, ok)
	assert.Equal(t, "needle", front.Pattern)
}
