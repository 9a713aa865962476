package repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"hggrip/internal/domain"
	"hggrip/internal/hg"
	"hggrip/internal/logger"
)

// ErrOpenFailed is returned when a command server cannot be started for a root
var ErrOpenFailed = errors.New("cannot open repository")

// MaxHistory bounds the commit message history kept per repository
const MaxHistory = 20

// Session is one live command server conversation
type Session interface {
	hg.Runner
	Close() error
}

// Opener starts a session rooted at root
type Opener func(ctx context.Context, root string) (Session, error)

// ClientOpener opens real `hg serve --cmdserver pipe` sessions
func ClientOpener(opts hg.Options) Opener {
	return func(ctx context.Context, root string) (Session, error) {
		return hg.Open(ctx, root, opts)
	}
}

// Connection owns the session for one repository root together with the
// state cached between commands.
type Connection struct {
	root   string
	opener Opener

	mu      sync.Mutex
	session Session
	closed  bool
	summary *domain.Summary
	history []string
}

// Open starts a session for root. root must contain a .hg directory.
func Open(ctx context.Context, root string, opener Opener) (*Connection, error) {
	if !IsRoot(root) {
		return nil, fmt.Errorf("%w: %s: no .hg directory", ErrOpenFailed, root)
	}
	s, err := opener(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, root, err)
	}
	return &Connection{root: root, opener: opener, session: s}, nil
}

// Root returns the repository root directory
func (c *Connection) Root() string { return c.root }

// Session returns the live session, starting a new one when the previous
// session died (for example after a cancelled command killed it).
func (c *Connection) Session(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, hg.ErrClosed
	}
	if c.session != nil && alive(c.session) {
		return c.session, nil
	}

	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
		logger.WithRoot(c.root).Info().Msg("command server died, restarting")
	}

	s, err := c.opener(ctx, c.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, c.root, err)
	}
	c.session = s
	return s, nil
}

// Encoding returns the encoding of the current session
func (c *Connection) Encoding() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Encoding()
}

func alive(s Session) bool {
	if a, ok := s.(interface{ Alive() bool }); ok {
		return a.Alive()
	}
	return true
}

// Close releases the session. Further calls are no-ops.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// Summary returns the cached summary or nil when none is cached
func (c *Connection) Summary() *domain.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// SetSummary caches s
func (c *Connection) SetSummary(s domain.Summary) {
	c.mu.Lock()
	c.summary = &s
	c.mu.Unlock()
}

// InvalidateSummary drops the cached summary
func (c *Connection) InvalidateSummary() {
	c.mu.Lock()
	c.summary = nil
	c.mu.Unlock()
}

// RecordCommitMessage puts msg at the front of the history, removing an
// earlier equal entry and keeping at most MaxHistory messages.
func (c *Connection) RecordCommitMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := slices.Index(c.history, msg); i >= 0 {
		c.history = slices.Delete(c.history, i, i+1)
	}
	c.history = slices.Insert(c.history, 0, msg)
	if len(c.history) > MaxHistory {
		c.history = c.history[:MaxHistory]
	}
}

// History returns the commit messages, most recent first
func (c *Connection) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// LastMessage returns the most recent commit message, or ""
func (c *Connection) LastMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return ""
	}
	return c.history[0]
}
