// Package bgscheduler implements the cooperative background scheduler
// (component B): a single shared zero-delay timer dispatching one task
// per expiry, chosen by priority with FIFO tie-breaking, so that all
// long-running scans run in small time-bounded steps on the same
// goroutine that owns the document and its derived state. Nothing here
// spawns a goroutine per task; the only goroutine involved is the single
// dispatch loop armed by time.AfterFunc.
package bgscheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Priority orders tasks; lower numeric value dispatches first.
type Priority int

const (
	PrioritySearchInc       Priority = iota // SEARCH_INC
	PrioritySearchList                      // SEARCH_LIST
	PriorityHighlightInit                   // HIGHLIGHT_INIT
	PriorityHighlightSearch                 // HIGHLIGHT_SEARCH
)

// Callable is one step of a task: it runs for a bounded slice of wall
// clock and returns. It may call Start/Stop/After on the scheduler that
// invoked it — re-entrancy is safe because the task is removed from the
// queue and the scheduler lock released before the callable runs; the
// shared timer is rearmed only after the callable returns.
type Callable func()

// Task is a named slot in the scheduler; the zero value is a valid,
// inactive task. Tasks are typically held as long-lived fields on the
// owning component (Highlighter, FilterList, IncSearchFSM, ...).
type Task struct {
	name     string
	priority Priority

	mu       sync.Mutex
	active   bool
	callable Callable
	seq      uint64 // insertion sequence, for FIFO tie-breaking

	timer *time.Timer // per-task timer used only by After
}

// NewTask creates a task with a fixed priority and a name used only for
// diagnostics.
func NewTask(name string, priority Priority) *Task {
	return &Task{name: name, priority: priority}
}

func (t *Task) Name() string { return t.name }

// IsActive reports whether the task is currently queued.
func (t *Task) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

type queueItem struct {
	task *Task
	seq  uint64
}

type taskHeap []*queueItem

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].task.priority != h[j].task.priority {
		return h[i].task.priority < h[j].task.priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)        { *h = append(*h, x.(*queueItem)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is the single shared dispatch loop. The zero value is not
// usable; use New.
type Scheduler struct {
	mu      sync.Mutex
	queue   taskHeap
	nextSeq uint64
	timer   *time.Timer
	closed  bool
}

// New returns a ready Scheduler with no tasks queued and its timer
// disarmed.
func New() *Scheduler {
	return &Scheduler{}
}

// Start marks task active with the given callable and enqueues it if not
// already queued. Starting an already-active task replaces its callable
// in place without duplicating the queue entry, per spec.
func (s *Scheduler) Start(t *Task, fn Callable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	t.mu.Lock()
	t.callable = fn
	alreadyActive := t.active
	t.active = true
	t.mu.Unlock()

	if !alreadyActive {
		s.nextSeq++
		heap.Push(&s.queue, &queueItem{task: t, seq: s.nextSeq})
	}
	s.armLocked()
}

// Stop removes the task from the queue if present; idempotent.
func (s *Scheduler) Stop(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(t)
	if len(s.queue) == 0 && s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Scheduler) stopLocked(t *Task) {
	t.mu.Lock()
	t.active = false
	t.callable = nil
	t.mu.Unlock()
	for i, it := range s.queue {
		if it.task == t {
			heap.Remove(&s.queue, i)
			break
		}
	}
}

// After schedules fn to run once after delay on a dedicated per-task
// timer, bypassing the priority queue entirely. Used to throttle
// self-rescheduling loops (e.g. the IncSearchFSM debounce timer).
func (s *Scheduler) After(t *Task, delay time.Duration, fn Callable) {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delay, fn)
	t.mu.Unlock()
}

// armLocked ensures the shared timer is armed with zero delay whenever
// the queue is non-empty. Must be called with s.mu held.
func (s *Scheduler) armLocked() {
	if len(s.queue) == 0 {
		return
	}
	if s.timer != nil {
		return // already armed, dispatch loop rearms itself
	}
	s.timer = time.AfterFunc(0, s.dispatch)
}

// dispatch runs at timer expiry: pick the single highest-priority
// (lowest Priority value), earliest-queued task; mark inactive; invoke
// its callable; only then rearm the timer if other tasks remain.
// time.AfterFunc always runs its callback on a new goroutine, even with
// a zero delay, so rearming before invoking fn would let the next
// dispatch's callable start while this one is still running on the
// current goroutine — two callables racing on the same unsynchronized
// application state. Rearming after fn returns keeps the single
// dispatch-goroutine invariant this package's callers depend on.
func (s *Scheduler) dispatch() {
	s.mu.Lock()
	if s.closed || len(s.queue) == 0 {
		s.timer = nil
		s.mu.Unlock()
		return
	}
	item := heap.Pop(&s.queue).(*queueItem)
	t := item.task

	t.mu.Lock()
	t.active = false
	fn := t.callable
	t.callable = nil
	t.mu.Unlock()

	// While fn runs, s.timer holds a stopped placeholder so that a Start
	// from inside fn finds the timer armed and leaves the rearm to us.
	s.timer = time.AfterFunc(time.Hour, func() {})
	s.timer.Stop()
	s.mu.Unlock()

	if fn != nil {
		fn()
	}

	s.mu.Lock()
	s.timer = nil
	if !s.closed && len(s.queue) > 0 {
		s.timer = time.AfterFunc(0, s.dispatch)
	}
	s.mu.Unlock()
}

// Pending reports how many tasks are currently queued. Mainly useful in
// tests that want to drive the scheduler to quiescence deterministically
// instead of sleeping.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// RunOne synchronously dispatches the single highest-priority queued
// task, if any, without waiting on the timer. Used by tests to drive a
// scheduler deterministically.
func (s *Scheduler) RunOne() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.dispatch()
}

// Close stops all queued tasks and disarms the timer. Further Start
// calls are ignored. Safe to call multiple times.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, it := range s.queue {
		it.task.mu.Lock()
		it.task.active = false
		it.task.callable = nil
		it.task.mu.Unlock()
	}
	s.queue = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
