package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// keyStore is the minimal Redis surface the store needs. SetNX is the atomic
// set-if-absent primitive that makes concurrent claims race-free.
type keyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Store claims opaque keys at most once within a TTL window. Keys follow the
// `trippio:idempotency:<scope>:<key>` pattern; expired keys read as absent.
type Store struct {
	store keyStore
	scope string
	ttl   time.Duration
}

// NewStore builds a claim guard for the given scope and TTL.
func NewStore(store keyStore, scope string, ttl time.Duration) (*Store, error) {
	if store == nil {
		return nil, errors.New("key store is required")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Store{store: store, scope: scope, ttl: ttl}, nil
}

// TryClaim records the key and returns true on first use within the TTL
// window. A false return means a duplicate: the caller must not re-run side
// effects.
func (s *Store) TryClaim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("idempotency key is required")
	}
	set, err := s.store.SetNX(ctx, s.store.IdempotencyKey(s.scope, key), "1", s.ttl)
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return set, nil
}

// Release drops a claim so a failed operation can be retried. Only call this
// when the claimed side effect definitively did not happen.
func (s *Store) Release(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("idempotency key is required")
	}
	return s.store.Del(ctx, s.store.IdempotencyKey(s.scope, key))
}
