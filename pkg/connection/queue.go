package connection

import (
	"context"
	"sync"
	"time"
)

// PendingMessage is an outbound message waiting for the sender loop.
type PendingMessage struct {
	// Seq is the enqueue order, starting at 1.
	Seq uint64

	// Text is the payload without line terminator.
	Text string

	// EnqueuedAt is when the message was queued.
	EnqueuedAt time.Time
}

// Queue is an unbounded FIFO with many producers and one consumer.
// Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []PendingMessage
	seq    uint64
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Push appends text to the tail and returns the queued message.
func (q *Queue) Push(text string) PendingMessage {
	q.mu.Lock()
	q.seq++
	msg := PendingMessage{Seq: q.seq, Text: text, EnqueuedAt: time.Now()}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return msg
}

// Pop removes and returns the head, blocking while the queue is empty.
// It returns ctx.Err() once ctx is done. Only one goroutine may Pop.
func (q *Queue) Pop(ctx context.Context) (PendingMessage, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = PendingMessage{}
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return PendingMessage{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
