package console

import "sync"

// command is one unit of work for the loop goroutine: either a player input
// or a closure run against the Console.
type command struct {
	input *Input
	fn    func(*Console)
}

// commandQueue is a thread-safe unbounded FIFO.
//
// Producers (websocket readers, HTTP handlers, the spawner) enqueue from any
// goroutine; only the Loop goroutine dequeues. The signal channel has a
// buffer of one so repeated enqueues coalesce into a single wakeup.
type commandQueue struct {
	mu     sync.Mutex
	items  []command
	closed bool
	signal chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		items:  make([]command, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a command. It returns false once the queue is closed.
func (q *commandQueue) Enqueue(c command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, c)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front command without blocking.
func (q *commandQueue) TryDequeue() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return command{}, false
	}
	c := q.items[0]
	// Clear the slot so the closure can be collected.
	q.items[0] = command{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return c, true
}

// Wait returns the wakeup channel. It is closed by Close.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued commands.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called. A pending wakeup on an open
// queue is not a close.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting commands and wakes the consumer.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
