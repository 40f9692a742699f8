// Package session is a placeholder access gate. Credentials are compared
// in constant time but stored in plain configuration, and sessions never
// expire. It stands in for a real identity provider.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is the per-browser login state.
type Session struct {
	ID            string
	Username      string
	Authenticated bool
	CreatedAt     time.Time
}

// Gate checks a single configured credential pair.
type Gate struct {
	Username string
	Password string
}

// Check reports whether username and password match the gate.
func (g Gate) Check(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(g.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(g.Password))
	return u&p == 1
}

// Store holds live sessions in memory.
type Store struct {
	gate     Gate
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(gate Gate) *Store {
	return &Store{
		gate:     gate,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Login creates a session when the credentials pass the gate.
func (s *Store) Login(username, password string) (*Session, error) {
	if !s.gate.Check(username, password) {
		return nil, ErrInvalidCredentials
	}
	sess := &Session{
		ID:            uuid.NewString(),
		Username:      strings.TrimSpace(username),
		Authenticated: true,
		CreatedAt:     s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns the session for id, if any.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Logout forgets id. Unknown ids are ignored.
func (s *Store) Logout(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type ctxKey struct{}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session attached by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}
