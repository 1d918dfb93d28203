package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubKeyStore struct {
	keys    map[string]bool
	setErr  error
	deleted []string
}

func newStubKeyStore() *stubKeyStore {
	return &stubKeyStore{keys: map[string]bool{}}
}

func (s *stubKeyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubKeyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubKeyStore) IdempotencyKey(scope, id string) string {
	return "trippio:idempotency:" + scope + ":" + id
}

func TestTryClaimFirstUseOnly(t *testing.T) {
	store := newStubKeyStore()
	claims, err := NewStore(store, "payos", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ctx := context.Background()
	claimed, err := claims.TryClaim(ctx, "123:00:ts")
	if err != nil || !claimed {
		t.Fatalf("expected first claim to win, claimed=%v err=%v", claimed, err)
	}

	claimed, err = claims.TryClaim(ctx, "123:00:ts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed {
		t.Fatal("expected duplicate claim to lose")
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newStubKeyStore()
	claims, err := NewStore(store, "payos", time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ctx := context.Background()
	if _, err := claims.TryClaim(ctx, "evt"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := claims.Release(ctx, "evt"); err != nil {
		t.Fatalf("release: %v", err)
	}

	claimed, err := claims.TryClaim(ctx, "evt")
	if err != nil || !claimed {
		t.Fatalf("expected claim after release to win, claimed=%v err=%v", claimed, err)
	}
}

func TestTryClaimPropagatesStoreError(t *testing.T) {
	store := newStubKeyStore()
	store.setErr = errors.New("redis down")
	claims, _ := NewStore(store, "payos", time.Hour)

	if _, err := claims.TryClaim(context.Background(), "evt"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	claims, _ := NewStore(newStubKeyStore(), "payos", time.Hour)
	if _, err := claims.TryClaim(context.Background(), ""); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
	if err := claims.Release(context.Background(), ""); err == nil {
		t.Fatal("expected empty key release to be rejected")
	}
}
