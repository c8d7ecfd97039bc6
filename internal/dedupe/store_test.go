package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(Config{Client: client, TTL: time.Minute}), mr
}

func TestClaim_OnlyOnce(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "wf:run:5")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !ok {
		t.Fatal("first claim should succeed")
	}

	ok, err = store.Claim(ctx, "wf:run:5")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ok {
		t.Error("second claim should be rejected")
	}
}

func TestRelease_AllowsReclaim(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, "k"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	claimed, err := store.Claimed(ctx, "k")
	if err != nil {
		t.Fatalf("Claimed: %v", err)
	}
	if claimed {
		t.Error("key should be free after release")
	}

	ok, _ := store.Claim(ctx, "k")
	if !ok {
		t.Error("claim after release should succeed")
	}
}

func TestClaim_ExpiresWithTTL(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.Claim(ctx, "k"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !mr.Exists(defaultPrefix + "k") {
		t.Fatal("key should be stored with prefix")
	}

	mr.FastForward(2 * time.Minute)

	ok, _ := store.Claim(ctx, "k")
	if !ok {
		t.Error("claim should succeed after ttl")
	}
}

func TestClaim_EmptyKey(t *testing.T) {
	store, _ := setupTestStore(t)

	if _, err := store.Claim(context.Background(), ""); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestClaim_RedisDown(t *testing.T) {
	store, mr := setupTestStore(t)
	mr.Close()

	if _, err := store.Claim(context.Background(), "k"); err == nil {
		t.Error("expected error when redis is down")
	}
}
