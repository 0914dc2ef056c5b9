// Package channel provides ordered event queue implementations.
package channel

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Queue is an ordered, logically unbounded, single-finish event queue.
// One producer side appends events with Put and terminates the queue
// with Finish; one consumer drains the events in FIFO order through
// Stream. A Queue belongs to exactly one invocation and is never
// reused.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []item[T]
	finished bool

	streamOnce sync.Once
	out        chan T

	puts    atomic.Int64
	emitted atomic.Int64

	logger *zap.Logger
}

// item wraps a queued value. The sentinel flag marks the terminal
// entry appended by Finish; the consumer stops only when it dequeues
// an entry with sentinel set while the queue is finished, so a
// legitimate zero-value event can never end the stream early.
type item[T any] struct {
	value    T
	sentinel bool
}

// NewQueue creates an empty queue. The logger is optional.
func NewQueue[T any](logger ...*zap.Logger) *Queue[T] {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	q := &Queue[T]{
		out:    make(chan T),
		logger: l.With(zap.String("component", "stream_queue")),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends v to the tail of the queue. It never blocks on a full
// buffer. Calling Put after Finish is a programming error; the event
// is dropped so the terminal sentinel stays last.
func (q *Queue[T]) Put(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.finished {
		q.logger.Error("put after finish, event dropped")
		return
	}
	q.items = append(q.items, item[T]{value: v})
	q.puts.Add(1)
	q.cond.Signal()
}

// Finish marks the queue finished and appends the terminal sentinel.
// It must be called exactly once; further calls are logged and
// ignored so ordering is never corrupted.
func (q *Queue[T]) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.finished {
		q.logger.Error("finish called more than once")
		return
	}
	q.finished = true
	q.items = append(q.items, item[T]{sentinel: true})
	q.cond.Signal()
}

// Stream returns the receive side of the queue: a lazy, finite,
// non-restartable sequence of events in Put order. The channel is
// closed after the terminal sentinel has been dequeued. Repeated
// calls return the same channel.
func (q *Queue[T]) Stream() <-chan T {
	q.streamOnce.Do(func() {
		go q.drain()
	})
	return q.out
}

func (q *Queue[T]) drain() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			q.cond.Wait()
		}
		head := q.items[0]
		q.items = q.items[1:]
		finished := q.finished
		q.mu.Unlock()

		// Both conditions must hold: a value that happens to look
		// like the sentinel must not terminate the stream.
		if head.sentinel && finished {
			return
		}
		q.out <- head.value
		q.emitted.Add(1)
	}
}

// Len returns the number of events currently buffered, including the
// sentinel once Finish has been called.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Finished reports whether Finish has been called.
func (q *Queue[T]) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

// Stats returns put/emit counters for observability.
func (q *Queue[T]) Stats() (puts, emitted int64) {
	return q.puts.Load(), q.emitted.Load()
}
