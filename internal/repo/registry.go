package repo

import (
	"context"
	"maps"
	"slices"
	"sync"

	"hggrip/internal/eventbus"
	"hggrip/internal/logger"
)

// Registry keeps at most one connection per repository root
type Registry struct {
	opener Opener
	bus    eventbus.EventBus

	mu    sync.Mutex
	conns map[string]*Connection
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(opener Opener, bus eventbus.EventBus) *Registry {
	return &Registry{
		opener: opener,
		bus:    bus,
		conns:  make(map[string]*Connection),
	}
}

// Get returns the connection for root, opening it on first use.
// A failed open is returned to the caller and not remembered.
func (r *Registry) Get(ctx context.Context, root string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[root]; ok {
		return c, nil
	}

	c, err := Open(ctx, root, r.opener)
	if err != nil {
		// callers report open failures themselves
		logger.WithRoot(root).Warn().Err(err).Msg("failed to open repository")
		return nil, err
	}
	r.conns[root] = c

	logger.WithRoot(root).Info().Msg("repository connection opened")
	r.publish(eventbus.ConnectionOpenedEvent{Root: root, Encoding: c.Encoding()})
	return c, nil
}

// Drop closes the connection for root and forgets it
func (r *Registry) Drop(root string) error {
	r.mu.Lock()
	c, ok := r.conns[root]
	delete(r.conns, root)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	err := c.Close()
	r.publish(eventbus.ConnectionClosedEvent{Root: root, Err: err})
	return err
}

// CloseAll closes every connection. Individual close errors are logged only.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	for root, c := range conns {
		if err := c.Close(); err != nil {
			logger.WithRoot(root).Debug().Err(err).Msg("close connection")
		}
		r.publish(eventbus.ConnectionClosedEvent{Root: root})
	}
}

// Roots lists the roots with a live connection, sorted
func (r *Registry) Roots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.conns))
}

func (r *Registry) publish(e eventbus.DomainEvent) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
