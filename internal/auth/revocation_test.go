package auth

import (
	"context"
	"testing"
	"time"
)

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore(fixedClock(now))

	if err := store.Revoke(ctx, "token-a"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Revoke(ctx, "token-a"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
	revoked, err := store.IsRevoked(ctx, "token-a")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = %v, %v", revoked, err)
	}
	revoked, err = store.IsRevoked(ctx, "token-b")
	if err != nil || revoked {
		t.Fatalf("IsRevoked(other) = %v, %v", revoked, err)
	}
}

func TestSweepRemovesOnlyAgedRecords(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	current := start
	store := NewMemoryRevocationStore(func() time.Time { return current })

	if err := store.Revoke(ctx, "old-token"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	current = start.Add(TokenLifetime / 2)
	if err := store.Revoke(ctx, "newer-token"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// Past the first token's lifetime but not the second's.
	removed, err := store.Sweep(ctx, start.Add(TokenLifetime+time.Minute))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if revoked, _ := store.IsRevoked(ctx, "old-token"); revoked {
		t.Fatal("old token should be swept")
	}
	if revoked, _ := store.IsRevoked(ctx, "newer-token"); !revoked {
		t.Fatal("newer token should remain")
	}
}

func TestRevokeSweepsBeforeInsert(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	current := start
	store := NewMemoryRevocationStore(func() time.Time { return current })

	if err := store.Revoke(ctx, "stale"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	current = start.Add(TokenLifetime + time.Hour)
	if err := store.Revoke(ctx, "fresh"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// The stale record went out with the sweep that preceded the insert.
	if got := store.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}
