package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hggrip/internal/commands"
	"hggrip/internal/config"
	"hggrip/internal/eventbus"
	"hggrip/internal/executor"
	"hggrip/internal/hg"
	"hggrip/internal/logger"
	"hggrip/internal/repo"
)

// app holds the services shared by the UI and the headless commands
type app struct {
	cfg      *config.Config
	bus      eventbus.EventBus
	registry *repo.Registry
	mailbox  *executor.Mailbox
	exec     *executor.Executor
	// tracker is the submitter headless runs hand to the dispatcher
	tracker *failureTracker
}

func newApp(cfg *config.Config) (*app, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ErrorEvent); ok {
			logger.Warnf("%s: %v", ev.Message, ev.Err)
		}
	})
	bus.Subscribe(eventbus.EventConnectionOpened, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.ConnectionOpenedEvent); ok {
			logger.Infof("command server started for %s (%s)", ev.Root, ev.Encoding)
		}
	})

	opener := repo.ClientOpener(hg.Options{HgPath: cfg.HgPath, Encoding: cfg.Encoding})
	mb := executor.NewMailbox()
	exec := executor.New(mb, executor.WithTimeout(timeout), executor.WithBus(bus))
	return &app{
		cfg:      cfg,
		bus:      bus,
		registry: repo.NewRegistry(opener, bus),
		mailbox:  mb,
		exec:     exec,
		tracker:  &failureTracker{Submitter: exec},
	}, nil
}

// errCommandFailed is returned by headless runs when an hg command failed
var errCommandFailed = errors.New("command failed")

// failureTracker records the commands whose Done callback carried an error.
// Done runs on the goroutine draining the mailbox, so no locking is needed.
type failureTracker struct {
	commands.Submitter
	failed []string
}

func (t *failureTracker) Submit(conn executor.Conn, cmd hg.Command, cb executor.Callbacks) *executor.Handle {
	done := cb.Done
	cb.Done = func(result any, err error) {
		if err != nil {
			t.failed = append(t.failed, cmd.Name)
		}
		if done != nil {
			done(result, err)
		}
	}
	return t.Submitter.Submit(conn, cmd, cb)
}

// Err reports every failed command, or nil
func (t *failureTracker) Err() error {
	if len(t.failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", errCommandFailed, strings.Join(t.failed, ", "))
}

// settle runs executor callbacks on the calling goroutine until no command
// is outstanding, including commands submitted by those callbacks.
func (a *app) settle(ctx context.Context) error {
	return settle(ctx, a.exec, a.mailbox)
}

type pendingCounter interface {
	Pending() int
}

func settle(ctx context.Context, exec pendingCounter, mb *executor.Mailbox) error {
	for {
		mb.Drain()
		if exec.Pending() == 0 && mb.Len() == 0 {
			return nil
		}
		select {
		case <-mb.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *app) Close() {
	a.registry.CloseAll()
	a.bus.Close()
}
