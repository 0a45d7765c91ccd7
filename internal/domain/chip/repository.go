package chip

import (
	"context"
	"time"
)

// StatusSource reads the authoritative chip usage of a user from the predictions backend.
type StatusSource interface {
	FetchStatus(ctx context.Context, userID string) (Feed, error)
}

// DismissalStore keeps short-lived "do not prompt again" flags for drift prompts.
type DismissalStore interface {
	IsDismissed(ctx context.Context, userID, key string) (bool, error)
	Dismiss(ctx context.Context, userID, key string, ttl time.Duration) error
	Clear(ctx context.Context, userID, key string) error
}
