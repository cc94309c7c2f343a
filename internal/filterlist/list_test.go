package filterlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/trowser/internal/bgscheduler"
	"github.com/standardbeagle/trowser/internal/trowser"
)

func blocks(vals ...int) []trowser.BlockNum {
	out := make([]trowser.BlockNum, len(vals))
	for i, v := range vals {
		out[i] = trowser.BlockNum(v)
	}
	return out
}

func TestAddSkipsAlreadyPresentAndDoesNotRecordThem(t *testing.T) {
	l := New()
	l.Add(blocks(1, 3, 5)...)
	l.Add(blocks(3, 4)...) // 3 already present; only 4 should be new

	assert.Equal(t, blocks(1, 3, 4, 5), l.Blocks())
	require.Len(t, l.undo, 2)
	assert.Equal(t, blocks(4), l.undo[1].Lines)
}

func TestRemoveSkipsAbsent(t *testing.T) {
	l := New()
	l.Add(blocks(1, 2, 3)...)
	l.Remove(blocks(2, 9)...) // 9 not present

	assert.Equal(t, blocks(1, 3), l.Blocks())
	require.Len(t, l.undo, 2)
	assert.Equal(t, blocks(2), l.undo[1].Lines)
}

func TestScenarioAddByPatternThenUndoRedo(t *testing.T) {
	// spec.md §8 scenario 2: three-line document, add-by-pattern "beta",
	// resulting list = [1]; undo -> []; redo -> [1].
	l := New()
	sched := bgscheduler.New()
	d := NewDriver(l, sched)

	doc := fakeDoc{[]byte("alpha"), []byte("beta"), []byte("alphabet")}
	finders := NewSearchMatchesFinders(doc, []trowser.SearchPar{{Pattern: "beta", MatchCase: true}}, trowser.DirAll, 0)
	d.SearchMatches(true, finders...)
	drainScheduler(t, sched)

	assert.Equal(t, blocks(1), l.Blocks())

	require.True(t, d.Undo())
	drainScheduler(t, sched)
	assert.Equal(t, []trowser.BlockNum{}, l.Blocks())

	require.True(t, d.Redo())
	drainScheduler(t, sched)
	assert.Equal(t, blocks(1), l.Blocks())
}

type fakeDoc [][]byte

func (d fakeDoc) BlockCount() int { return len(d) }
func (d fakeDoc) Line(b trowser.BlockNum) ([]byte, bool) {
	if b < 0 || int(b) >= len(d) {
		return nil, false
	}
	return d[b], true
}

func drainScheduler(t *testing.T, sched *bgscheduler.Scheduler) {
	t.Helper()
	for i := 0; i < 10000 && sched.Pending() > 0; i++ {
		sched.RunOne()
	}
	require.Equal(t, 0, sched.Pending())
}

func TestUndoForbiddenWhileOpenRecord(t *testing.T) {
	l := New()
	sched := bgscheduler.New()
	d := NewDriver(l, sched)
	l.open = &UndoRecord{Kind: KindAdd} // simulate a scan mid-flight

	assert.False(t, d.Undo())
}

func TestClearAllRecordsRemoveOfEverything(t *testing.T) {
	l := New()
	l.Add(blocks(1, 2, 3)...)
	l.ClearAll()

	assert.Empty(t, l.Blocks())
	last := l.undo[len(l.undo)-1]
	assert.Equal(t, KindRemove, last.Kind)
	assert.Equal(t, blocks(1, 2, 3), last.Lines)
}

func TestRemoveLinesByIndexGroupsConsecutive(t *testing.T) {
	l := New()
	l.Add(blocks(10, 20, 30, 40, 50)...)
	l.RemoveLines(1, 2) // removes 20, 30 (consecutive indices)

	assert.Equal(t, blocks(10, 40, 50), l.Blocks())
}

func TestCopySelectionAddsRange(t *testing.T) {
	l := New()
	l.CopySelection(5, 8, true)
	assert.Equal(t, blocks(5, 6, 7, 8), l.Blocks())
}

func TestAbortScanFinalizesPartialWork(t *testing.T) {
	l := New()
	sched := bgscheduler.New()
	d := NewDriver(l, sched)
	doc := fakeDoc{[]byte("x"), []byte("x"), []byte("x")}
	finders := NewSearchMatchesFinders(doc, []trowser.SearchPar{{Pattern: "x", MatchCase: true}}, trowser.DirAll, 0)
	d.SearchMatches(true, finders...)

	// run exactly one step, then abort before completion
	sched.RunOne()
	d.AbortScan()

	assert.False(t, l.HasOpenRecord())
}

func TestSearchMatchesDiscardsRedoEvenWhenScanFindsNothing(t *testing.T) {
	l := New()
	sched := bgscheduler.New()
	d := NewDriver(l, sched)
	l.Add(blocks(1)...)

	require.True(t, d.Undo())
	drainScheduler(t, sched)
	require.Len(t, l.redo, 1) // Undo() parked a redo entry

	// a scan that matches nothing still must discard that stale redo
	// entry the moment it starts, mirroring the original's
	// prepareBgChange clearing dlg_srch_redo unconditionally.
	doc := fakeDoc{[]byte("nope")}
	finders := NewSearchMatchesFinders(doc, []trowser.SearchPar{{Pattern: "zzz", MatchCase: true}}, trowser.DirAll, 0)
	d.SearchMatches(true, finders...)
	drainScheduler(t, sched)

	assert.Empty(t, l.Blocks())
	assert.Empty(t, l.redo)
	assert.False(t, d.Redo())
}

func TestRoundTripInvariantUndoRedo(t *testing.T) {
	l := New()
	sched := bgscheduler.New()
	d := NewDriver(l, sched)
	l.Add(blocks(1, 2, 3, 4, 5)...)
	before := l.Blocks()

	require.True(t, d.Undo())
	drainScheduler(t, sched)
	require.True(t, d.Redo())
	drainScheduler(t, sched)

	assert.Equal(t, before, l.Blocks())
}
