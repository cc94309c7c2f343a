package filterlist

import (
	"github.com/standardbeagle/trowser/internal/bgscheduler"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// undoStepCap is spec.md §5's per-step bound: "undo/redo caps at 1,000
// lines per step."
const undoStepCap = 1000

// Driver runs List's background undo/redo and scan-population tasks
// through a shared Scheduler, per spec.md §4.5's chunking rules.
type Driver struct {
	list  *List
	sched *bgscheduler.Scheduler

	undoTask *bgscheduler.Task
	scanTask *bgscheduler.Task

	undoing *undoRun // in-flight Undo()/Redo(), nil when idle
	scan    *scanRun // in-flight searchMatches, nil when idle

	onProgress func(percent int)
}

// NewDriver wires a List to sched.
func NewDriver(list *List, sched *bgscheduler.Scheduler) *Driver {
	return &Driver{
		list:     list,
		sched:    sched,
		undoTask: bgscheduler.NewTask("filterlist-undo", bgscheduler.PrioritySearchList),
		scanTask: bgscheduler.NewTask("filterlist-scan", bgscheduler.PrioritySearchList),
	}
}

// OnProgress registers the 0-100% progress callback for scan chunking.
func (d *Driver) OnProgress(fn func(percent int)) { d.onProgress = fn }

type undoRun struct {
	fromRedo bool // true when this is a Redo() run, false for Undo()
	src      UndoRecord
	mirror   UndoRecord // lines consumed so far, same kind as src, mirrored to the other stack
}

// Undo pops the top undo record and begins reversing it as a background
// task, per spec.md §4.5 "Undo execution": up to undoStepCap lines per
// step, building a mirror redo record as it goes. Undoing while a scan's
// open record is still in flight is forbidden — abort the scan first.
func (d *Driver) Undo() bool {
	if d.list.HasOpenRecord() || d.undoing != nil || len(d.list.undo) == 0 {
		return false
	}
	top := d.list.undo[len(d.list.undo)-1]
	d.list.undo = d.list.undo[:len(d.list.undo)-1]
	d.undoing = &undoRun{fromRedo: false, src: top, mirror: UndoRecord{Kind: top.Kind}}
	d.sched.Start(d.undoTask, d.stepUndo)
	return true
}

// Redo pops the top redo record and replays it (same kind, not
// inverted) as a background task, symmetric to Undo.
func (d *Driver) Redo() bool {
	if d.list.HasOpenRecord() || d.undoing != nil || len(d.list.redo) == 0 {
		return false
	}
	top := d.list.redo[len(d.list.redo)-1]
	d.list.redo = d.list.redo[:len(d.list.redo)-1]
	d.undoing = &undoRun{fromRedo: true, src: top, mirror: UndoRecord{Kind: top.Kind}}
	d.sched.Start(d.undoTask, d.stepUndo)
	return true
}

func (d *Driver) stepUndo() {
	run := d.undoing
	if run == nil {
		return
	}
	n := len(run.src.Lines)
	take := undoStepCap
	if take > n {
		take = n
	}
	chunk := run.src.Lines[:take]
	run.src.Lines = run.src.Lines[take:]

	kind := run.src.Kind
	if !run.fromRedo {
		kind = kind.Invert()
	}
	d.applyChunk(kind, chunk)
	run.mirror.Lines = append(run.mirror.Lines, chunk...)

	if len(run.src.Lines) > 0 {
		d.sched.Start(d.undoTask, d.stepUndo)
		return
	}

	// source record exhausted: seal the mirror onto the opposite stack.
	if run.fromRedo {
		d.list.undo = append(d.list.undo, run.mirror)
	} else {
		d.list.redo = append(d.list.redo, run.mirror)
	}
	d.undoing = nil
	d.list.checkInvariant()
	d.list.notify()
}

func (d *Driver) applyChunk(kind UndoKind, lines []trowser.BlockNum) {
	switch kind {
	case KindAdd:
		result, _ := mergeInsert(d.list.blocks, lines)
		d.list.blocks = result
	case KindRemove:
		result, _ := mergeRemove(d.list.blocks, lines)
		d.list.blocks = result
	}
}

// scanRun tracks one in-flight searchMatches background task.
type scanRun struct {
	finders  []scanFinder
	idx      int
	kind     UndoKind
	totalLen int // approximate total document span, for progress reporting
}

type scanFinder struct {
	find func() (trowser.BlockNum, bool, bool) // returns (block, ok, done)
}

// SearchSource is the subset of textfind.Finder the scan driver needs,
// abstracted so callers construct one Finder per pattern with whatever
// direction/start position searchMatches specifies.
type SearchSource interface {
	FindNext() (block trowser.BlockNum, ok bool)
	IsDone() bool
}

// SearchMatches schedules a SEARCH_LIST background task walking each
// finder to collect matches and either inserting or removing them from
// the list, using the open-record chunking protocol: prepareBgChange is
// implicit in starting the run, appendBgChange happens per-chunk below,
// and finalizeBgChange happens when every finder is exhausted.
func (d *Driver) SearchMatches(add bool, finders ...SearchSource) {
	kind := KindRemove
	if add {
		kind = KindAdd
	}
	d.list.open = &UndoRecord{Kind: kind}
	d.list.redo = nil // any new mutation discards the redo stack, unconditionally, from the start of the scan
	d.scan = &scanRun{kind: kind}
	for _, f := range finders {
		f := f
		d.scan.finders = append(d.scan.finders, scanFinder{find: func() (trowser.BlockNum, bool, bool) {
			b, ok := f.FindNext()
			return b, ok, f.IsDone()
		}})
	}
	d.sched.Start(d.scanTask, d.stepScan)
}

func (d *Driver) stepScan() {
	run := d.scan
	if run == nil {
		return
	}
	const chunkCap = 40000 // spec.md §5: "filter-list scan caps at ~40,000 lines per chunk"
	var collected []trowser.BlockNum

	for len(collected) < chunkCap && run.idx < len(run.finders) {
		f := run.finders[run.idx]
		b, ok, done := f.find()
		if ok {
			collected = append(collected, b)
			continue
		}
		if done {
			run.idx++
			continue
		}
		break // this finder hit its own per-call block cap; resume same finder next step
	}

	d.appendBgChange(collected)

	if run.idx >= len(run.finders) {
		d.finalizeBgChange()
		return
	}
	if d.onProgress != nil {
		d.onProgress(run.idx * 100 / max(1, len(run.finders)))
	}
	d.sched.Start(d.scanTask, d.stepScan)
}

// appendBgChange applies one chunk's matches to the list and extends the
// open undo record with only the lines that actually changed the list,
// per spec.md §4.5 "Filtering behaviors".
func (d *Driver) appendBgChange(blocks []trowser.BlockNum) {
	if len(blocks) == 0 || d.list.open == nil {
		return
	}
	var changed []trowser.BlockNum
	switch d.list.open.Kind {
	case KindAdd:
		result, inserted := mergeInsert(d.list.blocks, blocks)
		d.list.blocks = result
		changed = inserted
	case KindRemove:
		result, removed := mergeRemove(d.list.blocks, blocks)
		d.list.blocks = result
		changed = removed
	}
	d.list.open.Lines = append(d.list.open.Lines, changed...)
	d.list.notify()
}

// finalizeBgChange seals the open record onto the undo stack, per
// spec.md §4.5: "After the last chunk finalizeBgChange() seals it."
func (d *Driver) finalizeBgChange() {
	rec := d.list.open
	d.list.open = nil
	d.scan = nil
	if rec != nil && len(rec.Lines) > 0 {
		d.list.undo = append(d.list.undo, *rec)
	}
	d.list.checkInvariant()
	if d.onProgress != nil {
		d.onProgress(100)
	}
	d.list.notify()
}

// AbortScan cancels the in-flight scan task AND finalizes the open
// record in place, retaining whatever partial changes were applied, per
// spec.md §5 "Cancellation semantics".
func (d *Driver) AbortScan() {
	if d.scan == nil {
		return
	}
	d.sched.Stop(d.scanTask)
	d.finalizeBgChange()
}
