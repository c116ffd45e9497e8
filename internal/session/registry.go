package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for session ids the registry doesn't know, including evicted and closed ones.
var ErrNotFound = errors.New("session not found")

// Registry keeps the sessions of the mounted assistant views.
type Registry struct {
	logger *slog.Logger

	mu            sync.Mutex
	sessions      map[string]*Session
	evictIdle     time.Duration
	evictInterval time.Duration
	evictRunning  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger.With(slog.String("module", "registry")),
		sessions: map[string]*Session{},
	}
}

// Create mounts a new session under a fresh id.
func (r *Registry) Create(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = r.logger
	}
	s, err := New(uuid.New().String(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.logger.Debug("Session created", slog.String("sessionID", s.ID()))
	return s, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Close unmounts and closes the session with the given id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	return nil
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of mounted sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SetEvictionConfig sets how long a session may stay idle and how often idle sessions are looked for.
// A non-positive value disables eviction.
func (r *Registry) SetEvictionConfig(idle, interval time.Duration) {
	r.mu.Lock()
	r.evictIdle = idle
	r.evictInterval = interval
	r.mu.Unlock()
}

// StartEvictionLoop evicts idle sessions until ctx is done. Calling it while a loop runs does nothing.
func (r *Registry) StartEvictionLoop(ctx context.Context) {
	r.mu.Lock()
	if r.evictRunning || r.evictIdle <= 0 || r.evictInterval <= 0 {
		r.mu.Unlock()
		return
	}
	r.evictRunning = true
	interval := r.evictInterval
	r.mu.Unlock()

	go r.runEvictionLoop(ctx, interval)
}

func (r *Registry) runEvictionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.evictRunning = false
			r.mu.Unlock()
			return
		case now := <-ticker.C:
			if n := r.evictIdleOnce(now); n > 0 {
				r.logger.Info("Evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

func (r *Registry) evictIdleOnce(now time.Time) int {
	r.mu.Lock()
	idle := r.evictIdle
	if idle <= 0 {
		r.mu.Unlock()
		return 0
	}
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	evicted := 0
	for _, s := range sessions {
		if !s.idle(now, idle) {
			continue
		}
		r.mu.Lock()
		current, ok := r.sessions[s.ID()]
		if !ok || current != s {
			r.mu.Unlock()
			continue
		}
		delete(r.sessions, s.ID())
		r.mu.Unlock()

		s.Close()
		evicted++
	}
	return evicted
}
