package semaphore

import (
	"context"
	"errors"
	"sync"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/common/validation"
)

// Semaphore is a counting permit store with a bounded FIFO wait queue.
// Released permits are handed directly to the head waiter, so waiters are
// served in arrival order; a caller that finds a permit immediately
// available takes it without queueing.
type Semaphore struct {
	mu        sync.Mutex
	capacity  int
	available int
	inUse     int
	queueLen  int
	waiters   []*waiter
}

// waiter represents a goroutine queued for a permit.
type waiter struct {
	ready   chan struct{}
	granted bool
}

// New creates a permit store with the given capacity and maximum number of
// queued waiters. A queueLength of zero means callers never wait: once
// capacity is exhausted every acquisition is rejected immediately.
func New(capacity, queueLength int) (*Semaphore, error) {
	if err := validation.ValidatePositive("semaphore", "capacity", capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("semaphore", "queue-length", queueLength); err != nil {
		return nil, err
	}
	return &Semaphore{
		capacity:  capacity,
		available: capacity,
		queueLen:  queueLength,
	}, nil
}

// TryAcquire takes one permit without blocking. It returns false when no
// permit is immediately available.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.available > 0 {
		s.available--
		s.inUse++
		return true
	}
	return false
}

// Acquire takes one permit, waiting in FIFO order until one is released or
// the context is done. A full wait queue rejects immediately with
// ErrQueueFull; an elapsed deadline rejects with ErrQueueTimeout, having
// consumed nothing.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()

	if s.available > 0 {
		s.available--
		s.inUse++
		s.mu.Unlock()
		return nil
	}

	// Fast reject: the queue-full check happens before any allocation so
	// overload keeps tail latency bounded.
	if len(s.waiters) >= s.queueLen {
		s.mu.Unlock()
		return gaerrors.ErrQueueFull
	}

	w := &waiter{ready: make(chan struct{})}
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if w.granted {
			// A release handed us the permit concurrently with
			// cancellation; keep it rather than strand it.
			s.mu.Unlock()
			return nil
		}
		s.removeWaiter(w)
		s.mu.Unlock()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return gaerrors.ErrQueueTimeout
		}
		return ctx.Err()
	}
}

// Release returns one permit. If a waiter is queued and the capacity has
// not shrunk below the outstanding count, the permit is handed straight to
// the head waiter.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inUse <= 0 {
		panic("semaphore: released more permits than acquired")
	}

	if len(s.waiters) > 0 && s.inUse <= s.capacity {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		w.granted = true
		close(w.ready)
		return
	}

	s.inUse--
	if s.available+s.inUse < s.capacity {
		s.available++
	}
}

// SetCapacity changes the total capacity. Growth creates permits that go to
// queued waiters first; shrinkage removes available permits immediately and
// absorbs the remainder as outstanding work completes.
func (s *Semaphore) SetCapacity(capacity int) {
	if capacity <= 0 {
		panic("semaphore: capacity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.capacity
	s.capacity = capacity

	if capacity > old {
		grow := capacity - old
		for grow > 0 && len(s.waiters) > 0 {
			w := s.waiters[0]
			s.waiters = s.waiters[1:]
			w.granted = true
			close(w.ready)
			s.inUse++
			grow--
		}
		s.available += grow
	} else if capacity < old {
		reduction := old - capacity
		if s.available >= reduction {
			s.available -= reduction
		} else {
			s.available = 0
		}
	}
}

// Capacity returns the total capacity.
func (s *Semaphore) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// Available returns the number of permits currently available. The value
// is a snapshot for diagnostics.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// InUse returns the number of permits currently held.
func (s *Semaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// Waiting returns the number of queued waiters.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// removeWaiter drops a cancelled waiter. Must be called with s.mu held.
func (s *Semaphore) removeWaiter(w *waiter) {
	for i, x := range s.waiters {
		if x == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}
