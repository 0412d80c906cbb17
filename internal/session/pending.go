package session

import (
	"sync"
	"time"
)

// PendingSecrets holds enrollment secrets that have been shown to a caller
// but not yet confirmed. They are session-scoped and never written to the
// durable store; at most one secret exists per key.
type PendingSecrets struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]pendingEntry
}

type pendingEntry struct {
	secret    string
	expiresAt time.Time
}

func NewPendingSecrets(ttl time.Duration) *PendingSecrets {
	return &PendingSecrets{ttl: ttl, entries: make(map[string]pendingEntry)}
}

// GetOrCreate returns the existing pending secret for key, or stores and
// returns the one produced by generate. Repeated calls before confirmation
// yield the same secret.
func (p *PendingSecrets) GetOrCreate(key string, generate func() (string, error)) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if e, ok := p.entries[key]; ok && now.Before(e.expiresAt) {
		return e.secret, nil
	}
	secret, err := generate()
	if err != nil {
		return "", err
	}
	p.entries[key] = pendingEntry{secret: secret, expiresAt: now.Add(p.ttl)}
	return secret, nil
}

// Get returns the pending secret for key, if any.
func (p *PendingSecrets) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		delete(p.entries, key)
		return "", false
	}
	return e.secret, true
}

// Replace discards any existing secret for key and stores a new one.
func (p *PendingSecrets) Replace(key, secret string) {
	p.mu.Lock()
	p.entries[key] = pendingEntry{secret: secret, expiresAt: time.Now().Add(p.ttl)}
	p.mu.Unlock()
}

// Discard removes the pending secret, typically after it has been committed
// to an account.
func (p *PendingSecrets) Discard(key string) {
	p.mu.Lock()
	delete(p.entries, key)
	p.mu.Unlock()
}
