package executor

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"hggrip/internal/logger"
)

// State is the lifecycle position of a submitted command
type State int32

const (
	StateCreated State = iota
	StateQueued
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle tracks one submitted command and carries answers to its prompts
type Handle struct {
	ID   uuid.UUID
	Name string
	Args []string
	Root string

	state   atomic.Int32
	answers chan []byte
	done    chan struct{}
}

func newHandle(name string, args []string, root string) *Handle {
	return &Handle{
		ID:      uuid.New(),
		Name:    name,
		Args:    args,
		Root:    root,
		answers: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (h *Handle) State() State { return State(h.state.Load()) }

func (h *Handle) setState(s State) { h.state.Store(int32(s)) }

// ProvideAnswer answers the prompt the command is waiting on.
// An empty answer cancels, which selects the prompt's default.
func (h *Handle) ProvideAnswer(answer []byte) {
	select {
	case h.answers <- answer:
	default:
		logger.Warnf("command %s: answer dropped, no prompt pending", h.ID)
	}
}

// waitAnswer blocks until ProvideAnswer is called or ctx ends
func (h *Handle) waitAnswer(ctx context.Context) []byte {
	select {
	case a := <-h.answers:
		return a
	case <-ctx.Done():
		return nil
	}
}

// discardAnswer drops an answer left over from an earlier question
func (h *Handle) discardAnswer() {
	select {
	case <-h.answers:
	default:
	}
}

// Done is closed once the completion callback has run
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the completion callback has run or ctx ends
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
