package livesync

import (
	"sync"

	"github.com/mcdev12/leaguesync/go/internal/models"
)

type eventKind int

const (
	eventSnapshot eventKind = iota + 1
	eventSubscriptionError
	eventCommand
)

// event is one unit of work for the engine loop. Snapshot and error events
// carry the session generation they were subscribed under.
type event struct {
	kind       eventKind
	generation uint64
	collection string
	docs       []models.RawDocument
	err        error
	command    func()
}

// eventQueue is an unbounded FIFO. Store callbacks enqueue from any
// goroutine and never block; the engine loop is the only consumer.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue returns false once the queue is closed
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}
	e := q.events[0]
	// release references held by the backing array
	q.events[0] = event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait signals when events may be available. The channel is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting events and wakes the consumer. Events already
// queued can still be dequeued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
