package bgscheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// FIFO-on-ties (spec.md §8 property 7): two tasks of equal priority
// started in order A, B both run, A before B.
func TestDispatchFIFOOnTies(t *testing.T) {
	s := New()
	defer s.Close()

	var order []string
	done := make(chan struct{}, 2)

	a := NewTask("a", PrioritySearchList)
	b := NewTask("b", PrioritySearchList)

	s.Start(a, func() {
		order = append(order, "a")
		done <- struct{}{}
	})
	s.Start(b, func() {
		order = append(order, "b")
		done <- struct{}{}
	})

	<-done
	<-done
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestDispatchPriorityOverridesFIFO(t *testing.T) {
	s := New()
	defer s.Close()

	var order []string
	done := make(chan struct{}, 2)

	low := NewTask("low", PriorityHighlightInit)
	high := NewTask("high", PrioritySearchInc)

	// Start low first; high (numerically smaller == more urgent) must
	// still dispatch first.
	s.Start(low, func() {
		order = append(order, "low")
		done <- struct{}{}
	})
	s.Start(high, func() {
		order = append(order, "high")
		done <- struct{}{}
	})

	<-done
	<-done
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestStartIdempotentNoDuplicateQueueEntry(t *testing.T) {
	s := New()
	defer s.Close()

	calls := 0
	done := make(chan struct{}, 1)
	task := NewTask("t", PrioritySearchList)

	s.Start(task, func() {})
	s.Start(task, func() { // replaces the callable in place
		calls++
		done <- struct{}{}
	})

	<-done
	assert.Equal(t, 1, calls)
	assert.False(t, task.IsActive())
}

func TestStopIsIdempotentAndCancels(t *testing.T) {
	s := New()
	defer s.Close()

	ran := false
	task := NewTask("t", PrioritySearchList)
	s.Start(task, func() { ran = true })
	s.Stop(task)
	s.Stop(task) // idempotent

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran)
	assert.False(t, task.IsActive())
}

func TestAfterUsesDedicatedTimer(t *testing.T) {
	s := New()
	defer s.Close()

	done := make(chan struct{}, 1)
	task := NewTask("t", PrioritySearchInc)
	start := time.Now()
	s.After(task, 30*time.Millisecond, func() { done <- struct{}{} })

	<-done
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestCloseStopsAllTasks(t *testing.T) {
	s := New()
	ran := false
	task := NewTask("t", PrioritySearchList)
	s.Start(task, func() { ran = true })
	s.Close()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran)

	// Starting after Close is a no-op.
	s.Start(task, func() { ran = true })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran)
}
