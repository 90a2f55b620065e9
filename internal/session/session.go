// Package session tracks which browsers hold the treasurer role. Everyone
// else is a member. A treasurer session lapses after a period of
// inactivity.
package session

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const CookieName = "zawadi_session"

// DefaultTimeout is the idle period after which a treasurer reverts to
// member.
const DefaultTimeout = 30 * time.Minute

var (
	ErrWrongSecret = errors.New("incorrect treasurer password")
	ErrNoSecret    = errors.New("treasurer password is not configured")
)

type Manager struct {
	mu       sync.Mutex
	hash     []byte
	timeout  time.Duration
	lastSeen map[string]time.Time

	Now func() time.Time
}

// NewManager hashes secret once so requests only ever compare hashes. An
// empty secret disables the treasurer role.
func NewManager(secret string, timeout time.Duration) (*Manager, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Manager{
		timeout:  timeout,
		lastSeen: make(map[string]time.Time),
		Now:      time.Now,
	}
	if secret == "" {
		return m, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	m.hash = hash
	return m, nil
}

// Login checks secret and opens a treasurer session, returning its id.
func (m *Manager) Login(secret string) (string, error) {
	if m.hash == nil {
		return "", ErrNoSecret
	}
	if err := bcrypt.CompareHashAndPassword(m.hash, []byte(secret)); err != nil {
		return "", ErrWrongSecret
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.lastSeen[id] = m.Now()
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) Logout(id string) {
	m.mu.Lock()
	delete(m.lastSeen, id)
	m.mu.Unlock()
}

// Touch reports whether id is a live treasurer session and, if so, resets
// its idle clock. Expired sessions are dropped.
func (m *Manager) Touch(id string) bool {
	if id == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.lastSeen[id]
	if !ok {
		return false
	}
	now := m.Now()
	if now.Sub(seen) > m.timeout {
		delete(m.lastSeen, id)
		return false
	}
	m.lastSeen[id] = now
	return true
}

// Remaining is how long id has before it lapses, or zero.
func (m *Manager) Remaining(id string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.lastSeen[id]
	if !ok {
		return 0
	}
	left := m.timeout - m.Now().Sub(seen)
	if left < 0 {
		return 0
	}
	return left
}

// Sweep drops every expired session.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	for id, seen := range m.lastSeen {
		if now.Sub(seen) > m.timeout {
			delete(m.lastSeen, id)
		}
	}
}

// IsTreasurer resolves the role for r from its session cookie.
func (m *Manager) IsTreasurer(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return m.Touch(c.Value)
}

func (m *Manager) SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
