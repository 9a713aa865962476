package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"hggrip/internal/eventbus"
	"hggrip/internal/executor"
	"hggrip/internal/hg"
	"hggrip/internal/logger"
	"hggrip/internal/repo"
)

// Connections hands out the connection for a repository root
type Connections interface {
	Get(ctx context.Context, root string) (*repo.Connection, error)
}

// Submitter runs commands in the background
type Submitter interface {
	Submit(conn executor.Conn, cmd hg.Command, cb executor.Callbacks) *executor.Handle
}

// Dispatcher maps operations onto hg commands. It must only be used from the
// UI goroutine, which is also where executor callbacks are delivered.
type Dispatcher struct {
	ctx   context.Context
	conns Connections
	exec  Submitter
	r     Renderer
	bus   eventbus.EventBus

	// commit editors waiting to be closed, by title in the order they were
	// opened; editors close in that same order
	commits map[string][]pendingCommit
}

type pendingCommit struct {
	conn        *repo.Connection
	closeBranch bool
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithBus publishes cache invalidations on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithContext sets the context used to start command servers
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) { d.ctx = ctx }
}

// New creates a dispatcher
func New(conns Connections, exec Submitter, r Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ctx:     context.Background(),
		conns:   conns,
		exec:    exec,
		r:       r,
		commits: make(map[string][]pendingCommit),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type operation func(d *Dispatcher, t Target, p Params) error

var operations = map[string]operation{
	"branch_status": func(d *Dispatcher, t Target, p Params) error { return d.BranchStatus(t, p.Bool("force")) },
	"incoming":      func(d *Dispatcher, t Target, _ Params) error { return d.Incoming(t) },
	"outgoing":      func(d *Dispatcher, t Target, _ Params) error { return d.Outgoing(t) },
	"pull": func(d *Dispatcher, t Target, p Params) error {
		return d.Pull(t, p.Bool("update"), p.Bool("rebase"))
	},
	"push": func(d *Dispatcher, t Target, p Params) error { return d.Push(t, p.Bool("newbranch")) },
	"update": func(d *Dispatcher, t Target, p Params) error {
		return d.Update(t, p.Bool("clean"), p.String("rev"))
	},
	"update_branch": func(d *Dispatcher, t Target, p Params) error { return d.UpdateBranch(t, p.Bool("closed")) },
	"merge":         func(d *Dispatcher, t Target, p Params) error { return d.Merge(t, p.String("rev")) },
	"merge_branch":  func(d *Dispatcher, t Target, _ Params) error { return d.MergeBranch(t) },
	"status":        func(d *Dispatcher, t Target, _ Params) error { return d.Status(t) },
	"diff":          func(d *Dispatcher, t Target, _ Params) error { return d.Diff(t) },
	"branches":      func(d *Dispatcher, t Target, p Params) error { return d.Branches(t, p.Bool("closed")) },
	"addremove":     func(d *Dispatcher, t Target, _ Params) error { return d.AddRemove(t) },
	"branch":        func(d *Dispatcher, t Target, _ Params) error { return d.Branch(t) },
	"branch_clean":  func(d *Dispatcher, t Target, _ Params) error { return d.BranchClean(t) },
	"commit": func(d *Dispatcher, t Target, p Params) error {
		return d.Commit(t, p.String("message"), p.Bool("close_branch"))
	},
	"resolve_all": func(d *Dispatcher, t Target, _ Params) error { return d.ResolveAll(t) },
	"rebase": func(d *Dispatcher, t Target, p Params) error {
		return d.Rebase(t, p.Bool("continue_rebase"), p.Bool("abort_rebase"))
	},
}

// Names lists the operations Dispatch understands
func Names() []string {
	return slices.Sorted(maps.Keys(operations))
}

// Dispatch runs the named operation
func (d *Dispatcher) Dispatch(name string, t Target, p Params) error {
	op, ok := operations[name]
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	return op(d, t, p)
}

// OnActivated refreshes the branch status when a view gains focus
func (d *Dispatcher) OnActivated(t Target) {
	_ = d.BranchStatus(t, false)
}

// OnPostSave forces a branch status refresh after a file is written
func (d *Dispatcher) OnPostSave(t Target) {
	_ = d.BranchStatus(t, true)
}

// connection resolves the repository for t. Text commands look at the file
// of the active view; window commands prefer the window folder.
func (d *Dispatcher) connection(t Target, text bool) (*repo.Connection, error) {
	if t.Widget {
		return nil, ErrNoServer
	}
	start := t.File
	if !text && t.Folder != "" {
		start = t.Folder
	}
	if start == "" {
		return nil, ErrNoServer
	}

	root, ok := repo.FindRoot(start)
	if !ok {
		return nil, ErrNoServer
	}
	conn, err := d.conns.Get(d.ctx, root)
	if err != nil {
		d.message(err.Error())
		return nil, err
	}
	return conn, nil
}

// request describes one submission
type request struct {
	cmd hg.Command
	// logOutput streams output into a freshly cleared panel while running
	logOutput bool
	// keepPanel appends to the panel instead of clearing it first
	keepPanel bool
	// mutating commands drop the cached summary when they finish, even on failure
	mutating bool
	onCode   func(code int)
	// done replaces the default failure reporting
	done func(result any, err error)
}

func (d *Dispatcher) submit(conn *repo.Connection, req request) *executor.Handle {
	cb := executor.Callbacks{
		OnPrompt:     d.prompt,
		OnReturnCode: req.onCode,
		Done: func(result any, err error) {
			if req.mutating {
				d.invalidate(conn, req.cmd.Name)
			}
			if req.done != nil {
				req.done(result, err)
				return
			}
			if err != nil {
				d.report(err, req.logOutput)
			}
		},
	}
	if req.logOutput {
		if !req.keepPanel {
			d.r.Panel("", true)
		}
		cb.OnOutput = func(text string) { d.r.Panel(text, false) }
	}
	return d.exec.Submit(conn, req.cmd, cb)
}

// prompt forwards a server question to the user; the dialog always answers
func (d *Dispatcher) prompt(question string, h *executor.Handle) {
	d.r.PromptDialog(question, h.ProvideAnswer)
}

func (d *Dispatcher) invalidate(conn *repo.Connection, command string) {
	conn.InvalidateSummary()
	if d.bus != nil {
		d.bus.Publish(eventbus.SummaryInvalidatedEvent{Root: conn.Root(), Command: command})
	}
}

// report shows a failure. Output of logged commands is already in the panel.
func (d *Dispatcher) report(err error, logged bool) {
	var f *executor.Failure
	if logged && errors.As(err, &f) && f.Kind == executor.KindCommand {
		d.r.ShowPanel()
		return
	}
	logger.Debugf("command failed: %v", err)
	d.message(err.Error())
}

// message writes one line to the panel and shows it
func (d *Dispatcher) message(text string) {
	d.r.Panel(text+"\n", false)
	d.r.ShowPanel()
}
