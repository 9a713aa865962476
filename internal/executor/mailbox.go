package executor

import (
	"context"
	"sync"
)

// Poster delivers a function to the goroutine that owns the UI state
type Poster interface {
	Post(fn func())
}

// Mailbox is an unbounded FIFO of functions with a single consumer.
// Producers never block; the consumer calls Drain whenever Ready fires.
type Mailbox struct {
	mu    sync.Mutex
	queue []func()
	ready chan struct{}
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

// Post queues fn for the consumer
func (m *Mailbox) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready fires at least once after every Post
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

// Len returns the number of queued functions
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain runs every queued function on the calling goroutine, including ones
// posted while draining, and returns how many ran.
func (m *Mailbox) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
		}
		n += len(batch)
	}
}

// Run drains the mailbox until ctx is done
func (m *Mailbox) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.ready:
			m.Drain()
		}
	}
}

// PosterFunc adapts a function to Poster
type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) { f(fn) }

// Inline runs posted functions immediately on the posting goroutine
var Inline Poster = PosterFunc(func(fn func()) { fn() })
