package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/inference-gateway/instruct-agent/logger"
)

// Registry keeps at most one initialized session per server for the life of
// the process.
//
//go:generate mockgen -source=registry.go -destination=../mocks/mcp_registry.go -package=mocks
type Registry interface {
	// GetOrCreate returns the cached session for serverID or initializes a
	// new one. Unknown ids fail with ErrServerNotFound.
	GetOrCreate(ctx context.Context, serverID string) (Session, error)

	// Lookup returns the static descriptor of a server
	Lookup(serverID string) (ServerConfig, bool)

	// Servers lists every configured server in catalog order
	Servers() []ServerConfig

	// Reset disconnects and forgets every cached session
	Reset()
}

// InitTimeout bounds a shared handshake. It is detached from the caller's
// context, so it needs its own deadline.
const InitTimeout = 2 * time.Minute

// SessionFactory creates an uninitialized session for a server
type SessionFactory func(cfg ServerConfig) Session

type registryImpl struct {
	servers    []ServerConfig
	byID       map[string]ServerConfig
	newSession SessionFactory
	logger     logger.Logger

	mu       sync.RWMutex
	sessions map[string]Session
	// generation is bumped by Reset; a handshake started before a reset
	// does not populate the cache afterwards
	generation uint64
	group      singleflight.Group
}

// NewRegistry builds a registry over a fixed server catalog
func NewRegistry(servers []ServerConfig, factory SessionFactory, log logger.Logger) Registry {
	byID := make(map[string]ServerConfig, len(servers))
	for _, s := range servers {
		byID[s.ID] = s
	}

	return &registryImpl{
		servers:    servers,
		byID:       byID,
		newSession: factory,
		logger:     log,
		sessions:   make(map[string]Session),
	}
}

// NewClientFactory returns a SessionFactory producing HTTP clients
func NewClientFactory(opts ClientOptions, log logger.Logger) SessionFactory {
	return func(cfg ServerConfig) Session {
		return NewClient(cfg, opts, log)
	}
}

func (r *registryImpl) cached(serverID string) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[serverID]; ok && s.IsInitialized() {
		return s
	}
	return nil
}

func (r *registryImpl) GetOrCreate(ctx context.Context, serverID string) (Session, error) {
	if s := r.cached(serverID); s != nil {
		return s, nil
	}

	cfg, ok := r.Lookup(serverID)
	if !ok {
		return nil, errors.Wrapf(ErrServerNotFound, "server %s", serverID)
	}

	v, err, shared := r.group.Do(serverID, func() (interface{}, error) {
		if s := r.cached(serverID); s != nil {
			return s, nil
		}

		r.mu.RLock()
		generation := r.generation
		r.mu.RUnlock()

		// The handshake outlives the first caller's cancellation because other
		// callers may be waiting on the same flight.
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), InitTimeout)
		defer cancel()

		session := r.newSession(cfg)
		if err := session.Initialize(initCtx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		stale := generation != r.generation
		if !stale {
			r.sessions[serverID] = session
		}
		r.mu.Unlock()

		if stale {
			r.logger.Debug("MCP: registry was reset during initialization, session not cached", "server", serverID)
			return session, nil
		}

		r.logger.Info("MCP: connected to server", "server", serverID, "tools", len(session.GetTools()))
		return session, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		r.logger.Debug("MCP: shared in-flight initialization", "server", serverID)
	}

	return v.(Session), nil
}

func (r *registryImpl) Lookup(serverID string) (ServerConfig, bool) {
	cfg, ok := r.byID[serverID]
	return cfg, ok
}

func (r *registryImpl) Servers() []ServerConfig {
	out := make([]ServerConfig, len(r.servers))
	copy(out, r.servers)
	return out
}

func (r *registryImpl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	for id := range r.byID {
		r.group.Forget(id)
	}
	for id, s := range r.sessions {
		s.Disconnect()
		delete(r.sessions, id)
	}
}
