// Package session keeps per-visitor draft state in memory, keyed by a
// cookie-carried session id. Drafts are value-copied in and out so
// callers never share mutable state across requests.
package session

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/seorin-dev/moodlog/internal/models"
)

// CookieName identifies the visitor across requests.
const CookieName = "moodlog_session"

// Manager is a concurrency-safe draft registry.
type Manager struct {
	mu     sync.RWMutex
	drafts map[string]models.DraftState
}

func NewManager() *Manager {
	return &Manager{drafts: make(map[string]models.DraftState)}
}

// Get returns a copy of the draft for id, and whether one exists.
func (m *Manager) Get(id string) (models.DraftState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	return d, ok
}

// Put stores a copy of d as the draft for id.
func (m *Manager) Put(id string, d models.DraftState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[id] = d
}

// Delete discards the draft for id, if any.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
}

// Len reports how many drafts are in flight.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// ID returns the visitor's session id, minting and setting a cookie when
// the request does not carry one yet.
func ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
