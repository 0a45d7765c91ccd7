package memory

import (
	"context"
	"sync"
	"time"
)

// DismissalStore keeps drift-prompt dismissals in process memory.
type DismissalStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewDismissalStore() *DismissalStore {
	return &DismissalStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *DismissalStore) IsDismissed(_ context.Context, userID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := dismissalID(userID, key)
	expiresAt, ok := s.expires[id]
	if !ok {
		return false, nil
	}
	if !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		delete(s.expires, id)
		return false, nil
	}
	return true, nil
}

// Dismiss stores the flag. A non-positive ttl keeps it until Clear.
func (s *DismissalStore) Dismiss(_ context.Context, userID, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.expires[dismissalID(userID, key)] = expiresAt
	return nil
}

func (s *DismissalStore) Clear(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expires, dismissalID(userID, key))
	return nil
}

func dismissalID(userID, key string) string {
	return userID + "\x00" + key
}
