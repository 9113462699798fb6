package store

import (
	"sync"

	"github.com/Last-emo-boy/github-bot/internal/models"
)

// TokenStore maps caller identities to GitHub access tokens. It is the sole
// owner of token values; other components must not cache them across calls.
type TokenStore interface {
	Put(identity models.CallerIdentity, token models.AccessToken)
	Get(identity models.CallerIdentity) (models.AccessToken, bool)
	Delete(identity models.CallerIdentity)
	Len() int
}

// tokenSlot holds the token for a single identity behind its own mutex, so
// writers to different identities never contend.
type tokenSlot struct {
	mu    sync.Mutex
	token models.AccessToken
}

// MemoryTokenStore is the in-memory TokenStore. Tokens live only for the
// process lifetime; a restart requires re-authorization. The map lock is
// held only to locate or create a slot, never across a network call.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	slots map[models.CallerIdentity]*tokenSlot
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		slots: make(map[models.CallerIdentity]*tokenSlot),
	}
}

func (s *MemoryTokenStore) slot(identity models.CallerIdentity) *tokenSlot {
	s.mu.RLock()
	sl, ok := s.slots[identity]
	s.mu.RUnlock()
	if ok {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok = s.slots[identity]; ok {
		return sl
	}
	sl = &tokenSlot{}
	s.slots[identity] = sl
	return sl
}

// Put inserts or overwrites the token for an identity. Last write wins.
func (s *MemoryTokenStore) Put(identity models.CallerIdentity, token models.AccessToken) {
	sl := s.slot(identity)
	sl.mu.Lock()
	sl.token = token
	sl.mu.Unlock()
}

// Get returns the stored token for an identity, if any.
func (s *MemoryTokenStore) Get(identity models.CallerIdentity) (models.AccessToken, bool) {
	s.mu.RLock()
	sl, ok := s.slots[identity]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}

	sl.mu.Lock()
	token := sl.token
	sl.mu.Unlock()
	if token.Empty() {
		return "", false
	}
	return token, true
}

// Delete removes the token for an identity.
func (s *MemoryTokenStore) Delete(identity models.CallerIdentity) {
	s.mu.Lock()
	delete(s.slots, identity)
	s.mu.Unlock()
}

// Len returns the number of identities with a stored token.
func (s *MemoryTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sl := range s.slots {
		sl.mu.Lock()
		if !sl.token.Empty() {
			n++
		}
		sl.mu.Unlock()
	}
	return n
}

var _ TokenStore = (*MemoryTokenStore)(nil)
