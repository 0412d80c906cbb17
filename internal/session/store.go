package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side state behind the opaque cookie. NeedsUpdate
// mirrors the account's must-update flag at login time and is cleared only
// by the credential-update flow.
type Session struct {
	ID          string    `json:"id"`
	AccountID   uint      `json:"account_id"`
	NeedsUpdate bool      `json:"needs_update"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, accountID uint, needsUpdate bool) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	SetNeedsUpdate(ctx context.Context, id string, v bool) error
	Delete(ctx context.Context, id string) error
	// RevokeAll discards every session; the demo reset calls it so no
	// pre-reset session survives.
	RevokeAll(ctx context.Context) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is the default single-process session store.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, accountID uint, needsUpdate bool) (*Session, error) {
	sess := Session{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		NeedsUpdate: needsUpdate,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = memoryEntry{session: sess, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return &sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	sess := entry.session
	return &sess, nil
}

func (s *MemoryStore) SetNeedsUpdate(_ context.Context, id string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return ErrNotFound
	}
	entry.session.NeedsUpdate = v
	s.sessions[id] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RevokeAll(_ context.Context) error {
	s.mu.Lock()
	s.sessions = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}
