package controller

import "sync"

// Queue is an unbounded, order-preserving multi-producer single-consumer
// event queue. Send never blocks.
type Queue struct {
	mu     sync.Mutex
	events []Event
	ready  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Send appends event to the queue.
func (q *Queue) Send(event Event) {
	q.mu.Lock()
	q.events = append(q.events, event)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready receives a value after Send. One signal may cover several events,
// so the consumer drains with TryReceive.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// TryReceive pops the oldest event, if any.
func (q *Queue) TryReceive() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}

	event := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]

	return event, true
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}
