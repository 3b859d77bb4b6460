// Package session maps opaque cookie tokens to authenticated directory
// connections.
//
// Sessions have a fixed lifetime set at creation. There is no renewal and
// no background sweep: an expired session is evicted by the first lookup
// that observes it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 60 * time.Minute

// Metrics receives session lifecycle events. A nil Metrics is valid.
type Metrics interface {
	SetActive(n int)
	RecordEnded(reason string)
}

// Reasons passed to Metrics.RecordEnded.
const (
	EndLogout  = "logout"
	EndExpired = "expired"
	EndClosed  = "shutdown"
)

// Session binds a token to an authenticated directory connection.
type Session struct {
	Token     string
	Identity  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Conn      directory.Directory
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store is the process-wide session table. It is safe for concurrent use.
type Store struct {
	ttl     time.Duration
	clock   Clock
	metrics Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a store whose sessions live for ttl. A non-positive ttl
// selects DefaultTTL.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:      ttl,
		clock:    systemClock{},
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the fixed session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create registers conn under a new random token. The store owns conn from
// here on and closes it when the session ends.
func (s *Store) Create(identity string, conn directory.Directory) (*Session, error) {
	if conn == nil {
		return nil, fmt.Errorf("session for %s has no directory connection", identity)
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.clock.Now()
	sess := &Session{
		Token:     token.String(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Conn:      conn,
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.setActive(n)
	logger.Debug("Session created", logger.KeyOperator, identity, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Get returns the live session for token. An expired session is removed
// and its connection closed before ErrExpired is returned.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	sess, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnauthenticated
	}
	if !sess.Expired(s.clock.Now()) {
		s.mu.Unlock()
		return sess, nil
	}
	delete(s.sessions, token)
	n := len(s.sessions)
	s.mu.Unlock()

	s.end(ctx, sess, EndExpired, n)
	return nil, ErrExpired
}

// Destroy removes the session and closes its connection. Unknown tokens
// are ignored.
func (s *Store) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.end(ctx, sess, EndLogout, n)
}

// Len returns the number of stored sessions, expired ones included until
// they are observed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close ends every session. It is used on shutdown.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		_ = s.end(ctx, sess, EndClosed, 0)
	}
}

// end closes the connection of a session already removed from the map.
// The lock is not held, so a slow logout never blocks other requests.
func (s *Store) end(ctx context.Context, sess *Session, reason string, remaining int) error {
	s.setActive(remaining)
	if s.metrics != nil {
		s.metrics.RecordEnded(reason)
	}

	err := sess.Conn.Close(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Directory logout failed",
			logger.KeyOperator, sess.Identity, "reason", reason, logger.Err(err))
	} else {
		logger.DebugCtx(ctx, "Session ended", logger.KeyOperator, sess.Identity, "reason", reason)
	}
	return err
}

func (s *Store) setActive(n int) {
	if s.metrics != nil {
		s.metrics.SetActive(n)
	}
}
