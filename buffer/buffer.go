// Package buffer provides a fixed-capacity, thread-safe FIFO buffer with
// blocking Put/Take operations built on an explicit wait/notify discipline.
// One mutex guards the item sequence and the closed flag; two condition
// variables ("not full" and "not empty") share that mutex, and every wait
// re-checks its guard in a loop so spurious or stale wake-ups are harmless.
//
// Close flips the buffer into a drain-only state: Put is rejected with
// ErrClosed, while Take keeps returning queued items until the sequence is
// empty and then reports exhaustion. Close is the only operation that wakes
// every waiter; Put and Take wake at most one each.
//
// Example usage:
//
//	buf, err := buffer.New[string](3)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("bad capacity")
//	}
//	go func() {
//	    buf.Put("hello")
//	    buf.Close()
//	}()
//	for {
//	    v, ok := buf.Take()
//	    if !ok {
//	        break // closed and drained
//	    }
//	    fmt.Println(v)
//	}
package buffer

import (
	"errors"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/concurrency-lab/prodcon/utils"
)

var (
	// ErrClosed is returned by Put after Close. A correctly sequenced run
	// never sees it: the orchestrator closes the buffer only after every
	// producer has finished.
	ErrClosed = errors.New("buffer is closed")
	// ErrInvalidCapacity is returned by New for capacities below 1.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
)

// Stats is a consistent snapshot of the buffer's internal counters.
type Stats struct {
	TotalPut    int
	TotalTake   int
	MaxDepth    int
	CurrentSize int
	Capacity    int
	Closed      bool
}

// BoundedBuffer is a capacity-bounded FIFO queue safe for use by any number
// of concurrent producers and consumers. The zero value is not usable; use New.
type BoundedBuffer[T any] struct {
	mu       deadlock.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    utils.Fifo[T]
	capacity int
	closed   bool

	totalPut  int
	totalTake int
	maxDepth  int
}

// New creates a BoundedBuffer holding at most capacity items.
// Returns ErrInvalidCapacity if capacity < 1.
func New[T any](capacity int) (*BoundedBuffer[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	b := &BoundedBuffer[T]{capacity: capacity}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)
	return b, nil
}

// Put appends v to the tail of the buffer, blocking while the buffer is full.
// It returns ErrClosed if the buffer is closed on entry or becomes closed
// while waiting for space.
func (b *BoundedBuffer[T]) Put(v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.items.Len() >= b.capacity && !b.closed {
		b.notFull.Wait()
	}
	if b.closed {
		return ErrClosed
	}

	b.items.PushBack(v)
	b.totalPut++
	if n := b.items.Len(); n > b.maxDepth {
		b.maxDepth = n
	}
	b.notEmpty.Signal()
	return nil
}

// Take removes and returns the head of the buffer, blocking while the buffer
// is empty and open. Once the buffer is closed and drained it returns the
// zero value and false so callers can exit cleanly.
func (b *BoundedBuffer[T]) Take() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.items.Len() == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	return b.popLocked()
}

// Poll behaves like Take but gives up after d, returning timedOut=true so
// the caller can check for external cancellation and retry. The deadline is
// a liveness convenience layered on the same guard loop; correctness never
// depends on it firing.
func (b *BoundedBuffer[T]) Poll(d time.Duration) (v T, ok bool, timedOut bool) {
	deadline := time.Now().Add(d)

	b.mu.Lock()
	defer b.mu.Unlock()

	for b.items.Len() == 0 && !b.closed {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zeroVal T
			return zeroVal, false, true
		}
		// sync.Cond has no timed wait, so a one-shot timer broadcasts
		// instead. Every waiter re-checks its guard, so the extra
		// wake-ups are absorbed by the monitor loop.
		timer := time.AfterFunc(remaining, b.notEmpty.Broadcast)
		b.notEmpty.Wait()
		timer.Stop()
	}

	v, ok = b.popLocked()
	return v, ok, false
}

// popLocked removes the head item if one exists. Caller must hold b.mu.
func (b *BoundedBuffer[T]) popLocked() (T, bool) {
	v, ok := b.items.PopFront()
	if !ok {
		var zeroVal T
		return zeroVal, false
	}
	b.totalTake++
	b.notFull.Signal()
	return v, true
}

// Close marks the buffer as closed and wakes every waiter on both
// conditions: after Close no Put can ever succeed and every blocked Take
// must be allowed to observe drained-and-closed. Closing an already-closed
// buffer is a no-op.
func (b *BoundedBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// Size reports the number of items currently queued.
func (b *BoundedBuffer[T]) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Len()
}

// Capacity reports the fixed capacity the buffer was created with.
func (b *BoundedBuffer[T]) Capacity() int {
	return b.capacity
}

func (b *BoundedBuffer[T]) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Len() == 0
}

func (b *BoundedBuffer[T]) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Len() >= b.capacity
}

func (b *BoundedBuffer[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Stats returns a snapshot of the buffer's counters taken under the lock.
func (b *BoundedBuffer[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		TotalPut:    b.totalPut,
		TotalTake:   b.totalTake,
		MaxDepth:    b.maxDepth,
		CurrentSize: b.items.Len(),
		Capacity:    b.capacity,
		Closed:      b.closed,
	}
}
