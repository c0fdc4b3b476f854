package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxSessions = 4096
	DefaultSessionTTL  = 24 * time.Hour
)

// EvictFunc observes a session leaving the manager, so its collections can
// be released by the caller.
type EvictFunc func(id string, sess *Session)

// Manager hands out sessions keyed by the caller's session id. Sessions are
// created lazily on first touch and dropped once idle past the TTL or when
// the session count exceeds the bound, least recently used first.
type Manager struct {
	mu         sync.Mutex
	sessions   *expirable.LRU[string, *Session]
	maxLibrary int
	maxChat    int
}

// NewManager builds a bounded session manager. maxSessions <= 0 and
// ttl <= 0 fall back to the defaults; onEvict may be nil.
func NewManager(maxLibrary, maxChat, maxSessions int, ttl time.Duration, onEvict EvictFunc) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	var cb expirable.EvictCallback[string, *Session]
	if onEvict != nil {
		cb = func(id string, sess *Session) {
			onEvict(id, sess)
		}
	}
	return &Manager{
		sessions:   expirable.NewLRU[string, *Session](maxSessions, cb, ttl),
		maxLibrary: maxLibrary,
		maxChat:    maxChat,
	}
}

func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions.Get(id); ok {
		return sess
	}
	sess := New(m.maxLibrary, m.maxChat)
	m.sessions.Add(id, sess)
	return sess
}

func NewID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
