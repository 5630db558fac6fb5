package session

import (
	"sync"
)

// Store keeps one Session per user. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns a snapshot of the user's session, creating it if needed.
	Get(userID int64) *Session
	// Reset starts the user over in the given mode.
	Reset(userID int64, mode Mode) *Session
	// Update runs fn on the user's session. Changes are kept only if fn
	// returns nil. Calls for the same user are serialised.
	Update(userID int64, fn func(*Session) error) error
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// MemoryStore lives for the process lifetime; sessions never expire.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*entry),
	}
}

func (s *MemoryStore) entry(userID int64) *entry {
	s.mu.RLock()
	e, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok = s.sessions[userID]; !ok {
		e = &entry{sess: New(userID)}
		s.sessions[userID] = e
	}
	return e
}

func (s *MemoryStore) Get(userID int64) *Session {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.sess.Clone()
}

func (s *MemoryStore) Reset(userID int64, mode Mode) *Session {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.Reset(mode)
	return e.sess.Clone()
}

func (s *MemoryStore) Update(userID int64, fn func(*Session) error) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.sess.Clone()
	if err := fn(work); err != nil {
		return err
	}
	e.sess = work
	return nil
}

// Len returns the number of known users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
