package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hggrip/internal/eventbus"
	"hggrip/internal/hg"
	"hggrip/internal/logger"
	"hggrip/internal/repo"
)

// Conn is the part of a repository connection the executor needs
type Conn interface {
	Root() string
	Session(ctx context.Context) (repo.Session, error)
}

// Callbacks are invoked on the mailbox consumer, never on the command goroutine.
// Every field is optional.
type Callbacks struct {
	OnCommand    func(name string)
	OnOutput     func(text string)
	OnPrompt     func(question string, h *Handle)
	OnReturnCode func(code int)
	// Done receives the parsed result or a *Failure
	Done func(result any, err error)
}

// Executor runs commands in the background, one at a time across every
// repository, and reports back through a Poster.
type Executor struct {
	poster  Poster
	lock    chan struct{}
	timeout time.Duration
	bus     eventbus.EventBus
	pending atomic.Int64
}

// Option configures an Executor
type Option func(*Executor)

// WithTimeout bounds every command. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithBus publishes command lifecycle events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(e *Executor) { e.bus = bus }
}

// New creates an executor that delivers callbacks through poster
func New(poster Poster, opts ...Option) *Executor {
	e := &Executor{
		poster: poster,
		lock:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pending returns the number of submitted commands whose Done callback has not run yet
func (e *Executor) Pending() int { return int(e.pending.Load()) }

// Submit runs cmd against conn on a new goroutine. With a nil conn, Done is
// called synchronously with no result and no error.
func (e *Executor) Submit(conn Conn, cmd hg.Command, cb Callbacks) *Handle {
	if c, ok := conn.(*repo.Connection); ok && c == nil {
		conn = nil
	}
	if conn == nil {
		h := newHandle(cmd.Name, cmd.Args, "")
		h.setState(StateCompleted)
		if cb.Done != nil {
			cb.Done(nil, nil)
		}
		close(h.done)
		return h
	}

	h := newHandle(cmd.Name, cmd.Args, conn.Root())
	e.pending.Add(1)
	go e.run(conn, cmd, cb, h)
	return h
}

func (e *Executor) run(conn Conn, cmd hg.Command, cb Callbacks, h *Handle) {
	log := logger.WithRoot(h.Root).With().
		Str("command", cmd.Name).
		Str("id", h.ID.String()).
		Logger()

	h.setState(StateQueued)
	e.publish(eventbus.CommandQueuedEvent{ID: h.ID.String(), Root: h.Root, Command: cmd.Name})

	e.lock <- struct{}{}
	start := time.Now()
	result, err := e.execute(conn, cmd, cb, h, log)
	<-e.lock

	finished := eventbus.CommandFinishedEvent{
		ID:       h.ID.String(),
		Root:     h.Root,
		Command:  cmd.Name,
		Success:  err == nil,
		Duration: time.Since(start),
	}
	if err != nil {
		h.setState(StateFailed)
		finished.Error = err.Error()
		log.Debug().Err(err).Dur("took", finished.Duration).Msg("command failed")
	} else {
		h.setState(StateCompleted)
		log.Debug().Dur("took", finished.Duration).Msg("command finished")
	}
	e.publish(finished)

	e.poster.Post(func() {
		defer func() {
			close(h.done)
			e.pending.Add(-1)
		}()
		if cb.Done != nil {
			cb.Done(result, err)
		}
	})
}

// execute runs while holding the command lock. A panic is turned into a
// Failure so the lock is always released.
func (e *Executor) execute(conn Conn, cmd hg.Command, cb Callbacks, h *Handle, log zerolog.Logger) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("command panic: %v\n%s", r, debug.Stack())
			result, err = nil, &Failure{Kind: KindGeneric, Text: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	h.setState(StateRunning)
	e.publish(eventbus.CommandStartedEvent{ID: h.ID.String(), Root: h.Root, Command: cmd.Name, Args: cmd.Args})
	if cb.OnCommand != nil {
		e.poster.Post(func() { cb.OnCommand(cmd.Name) })
	}

	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	session, err := conn.Session(ctx)
	if err != nil {
		return nil, classify(err, "")
	}
	enc := session.Encoding()

	var sawStderr, sawCode bool
	hooks := hg.Hooks{
		Output: func(data []byte) {
			e.output(cb, hg.Decode(enc, data))
		},
		Error: func(data []byte) {
			sawStderr = true
			e.output(cb, hg.Decode(enc, data))
		},
		ReturnCode: func(code int) {
			sawCode = true
			e.returnCode(cb, code)
		},
		Prompt: func(question []byte) []byte {
			return e.prompt(ctx, cb, h, hg.Decode(enc, question))
		},
	}

	log.Debug().Strs("args", cmd.Args).Msg("running command")
	result, err = cmd.Run(ctx, session, hooks)
	if sawStderr && !sawCode {
		e.returnCode(cb, 1)
	}
	if err != nil {
		return nil, classify(err, enc)
	}
	return result, nil
}

func (e *Executor) output(cb Callbacks, text string) {
	if cb.OnOutput != nil {
		e.poster.Post(func() { cb.OnOutput(text) })
	}
}

func (e *Executor) returnCode(cb Callbacks, code int) {
	if cb.OnReturnCode != nil {
		e.poster.Post(func() { cb.OnReturnCode(code) })
	}
}

// prompt hands the question to the UI and blocks until it is answered
func (e *Executor) prompt(ctx context.Context, cb Callbacks, h *Handle, question string) []byte {
	h.discardAnswer()
	e.poster.Post(func() {
		if cb.OnPrompt != nil {
			cb.OnPrompt(question, h)
			return
		}
		h.ProvideAnswer(nil)
	})
	return h.waitAnswer(ctx)
}

func (e *Executor) publish(ev eventbus.DomainEvent) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
