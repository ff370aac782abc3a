// Copyright 2026 mvirt authors.

package replog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// tokenStore is an in-memory registry of short-lived, single-use join
// tokens: a minimal map-of-ids bookkeeping rather than a distributed
// token service, since join tokens only ever need to be valid on the
// leader that minted them.
type tokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]time.Time)}
}

func (t *tokenStore) issue(ttl time.Duration) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	token := uuid.NewString()
	t.tokens[token] = time.Now().Add(ttl)
	t.gcLocked()
	return token
}

// consume validates and invalidates token in one step, so a token can
// only ever admit one voter.
func (t *tokenStore) consume(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.tokens[token]
	if !ok {
		return false
	}
	delete(t.tokens, token)
	return time.Now().Before(expiry)
}

func (t *tokenStore) gcLocked() {
	now := time.Now()
	for tok, expiry := range t.tokens {
		if now.After(expiry) {
			delete(t.tokens, tok)
		}
	}
}
