// Package session tracks streamable HTTP sessions by identifier.
package session

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned for unknown or already closed session ids.
	ErrNotFound = errors.New("session not found")
	// ErrClosed is returned by Create once CloseAll has run.
	ErrClosed = errors.New("session registry closed")
)

// Session is the connection context bound to one client-visible id.
// Closed is terminal.
type Session struct {
	ID        string
	CreatedAt time.Time

	initialized atomic.Bool
	done        chan struct{}
	closeOnce   sync.Once
}

func newSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now(), done: make(chan struct{})}
}

// MarkInitialized records the initialize handshake. It returns false when
// the session was already initialized.
func (s *Session) MarkInitialized() bool {
	return s.initialized.CompareAndSwap(false, true)
}

// Done is closed once the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) close() bool {
	closed := false
	s.closeOnce.Do(func() {
		close(s.done)
		closed = true
	})
	return closed
}

// Registry maps session ids to live sessions. Safe for concurrent use; one
// session's lookups never wait on another's requests.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
	newID    func() string
	logger   *logrus.Entry
}

// NewRegistry builds an empty registry. A nil logger discards output.
func NewRegistry(logger *logrus.Entry) *Registry {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Registry{
		sessions: make(map[string]*Session),
		newID:    func() string { return uuid.New().String() },
		logger:   logger,
	}
}

// Create mints a fresh id and registers a new session under it. It fails
// with ErrClosed after CloseAll.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	id := r.newID()
	for _, taken := r.sessions[id]; taken; _, taken = r.sessions[id] {
		id = r.newID()
	}
	s := newSession(id)
	r.sessions[id] = s
	r.logger.WithField("session_id", id).Info("session created")
	return s, nil
}

// Get looks up an active session.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close closes the session and removes it from the registry.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if s.close() {
		r.logger.WithField("session_id", id).Info("session closed")
	}
	return nil
}

// CloseAll closes every open session and returns how many were closed.
// The registry accepts no new sessions afterwards.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	r.closed = true
	open := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for id, s := range open {
		if s.close() {
			r.logger.WithField("session_id", id).Info("session closed on shutdown")
		}
	}
	return len(open)
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
