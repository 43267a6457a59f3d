package pubsub

import "sync"

// Queue is a bounded FIFO of messages published while the transport is
// unavailable. When full, the oldest message is evicted.
type Queue struct {
	mu       sync.Mutex
	items    []Message
	capacity int
	dropped  uint64
}

// NewQueue creates a queue holding at most capacity messages. A capacity of
// zero (or less) disables buffering: every pushed message is evicted at once.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Push appends msg. If the queue then exceeds its capacity, the oldest
// message is evicted and returned with true.
func (q *Queue) Push(msg Message) (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, msg)
	if len(q.items) <= q.capacity {
		return Message{}, false
	}

	evicted := q.items[0]
	q.items[0] = Message{}
	q.items = q.items[1:]
	q.dropped++
	return evicted, true
}

// Drain removes and returns every queued message, oldest first.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Cap returns the configured capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

// Dropped returns how many messages were evicted since creation.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}
