package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

func TestRedisKeyIsNamespacedByUser(t *testing.T) {
	t.Parallel()

	store := NewDismissalStoreFromClient(nil, "", logging.NewNop())
	got := store.redisKey(" user-1 ", "chipSync_dismissed_gw8_defensePlusPlus")
	want := "predictions-chips:dismissal:user-1:chipSync_dismissed_gw8_defensePlusPlus"
	if got != want {
		t.Fatalf("unexpected key: got=%s want=%s", got, want)
	}

	custom := NewDismissalStoreFromClient(nil, "staging:", logging.NewNop())
	if got := custom.redisKey("u", "k"); got != "staging:u:k" {
		t.Fatalf("unexpected custom prefix key: %s", got)
	}
}

func TestDismissalStoreRequiresClient(t *testing.T) {
	t.Parallel()

	store := NewDismissalStoreFromClient(nil, "", logging.NewNop())
	if _, err := store.IsDismissed(context.Background(), "u", "k"); err == nil {
		t.Fatalf("expected uninitialized store error")
	}
	if err := store.Dismiss(context.Background(), "u", "k", time.Minute); err == nil {
		t.Fatalf("expected uninitialized store error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close on empty store: %v", err)
	}
}

func TestNewDismissalStoreFailsWhenRedisIsDown(t *testing.T) {
	t.Parallel()

	_, err := NewDismissalStore(context.Background(), Config{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
	}, logging.NewNop())
	if err == nil {
		t.Fatalf("expected ping failure")
	}

	if _, err := NewDismissalStore(context.Background(), Config{}, logging.NewNop()); err == nil {
		t.Fatalf("expected missing addr error")
	}
}
