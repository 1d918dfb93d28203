package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestKeyBuilders(t *testing.T) {
	client := &Client{}

	if got := client.IdempotencyKey("payos", "123:00:ts"); got != "trippio:idempotency:payos:123:00:ts" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := client.BasketKey("user-1"); got != "trippio:basket:user-1" {
		t.Fatalf("unexpected basket key %q", got)
	}
}

func TestSetNXFirstWriteWins(t *testing.T) {
	raw, mock := redismock.NewClientMock()
	client := NewFromCmdable(raw)
	ctx := context.Background()

	key := client.IdempotencyKey("payos", "evt-1")
	mock.ExpectSetNX(key, "1", 24*time.Hour).SetVal(true)
	mock.ExpectSetNX(key, "1", 24*time.Hour).SetVal(false)

	set, err := client.SetNX(ctx, key, "1", 24*time.Hour)
	if err != nil || !set {
		t.Fatalf("expected first SetNX to claim, set=%v err=%v", set, err)
	}
	set, err = client.SetNX(ctx, key, "1", 24*time.Hour)
	if err != nil || set {
		t.Fatalf("expected second SetNX to lose, set=%v err=%v", set, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}

func TestGetSetDel(t *testing.T) {
	raw, mock := redismock.NewClientMock()
	client := NewFromCmdable(raw)
	ctx := context.Background()

	key := client.BasketKey("user-1")
	mock.ExpectSet(key, "payload", time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal("payload")
	mock.ExpectDel(key).SetVal(1)

	if err := client.Set(ctx, key, "payload", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != "payload" {
		t.Fatalf("get: got=%q err=%v", got, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
