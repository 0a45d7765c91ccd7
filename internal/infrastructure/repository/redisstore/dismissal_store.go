package redisstore

import (
	"context"
	"errors"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

const defaultKeyPrefix = "predictions-chips:dismissal"

type Config struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// DismissalStore keeps drift-prompt dismissals in Redis so they survive restarts
// and are shared between replicas. Keys look like <prefix>:<userID>:<key>.
type DismissalStore struct {
	rdb    goredis.UniversalClient
	prefix string
	logger *logging.Logger
}

func NewDismissalStore(ctx context.Context, cfg Config, logger *logging.Logger) (*DismissalStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, crerr.New("redis addr is required")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, crerr.Wrapf(err, "redis ping addr=%s", addr)
	}

	return NewDismissalStoreFromClient(rdb, cfg.KeyPrefix, logger), nil
}

func NewDismissalStoreFromClient(rdb goredis.UniversalClient, prefix string, logger *logging.Logger) *DismissalStore {
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &DismissalStore{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.Named("redisstore"),
	}
}

func (s *DismissalStore) IsDismissed(ctx context.Context, userID, key string) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, crerr.New("redis dismissal store not initialized")
	}
	_, err := s.rdb.Get(ctx, s.redisKey(userID, key)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, crerr.Wrap(err, "redis get dismissal")
	}
	return true, nil
}

// Dismiss stores the flag. A non-positive ttl keeps it until Clear.
func (s *DismissalStore) Dismiss(ctx context.Context, userID, key string, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return crerr.New("redis dismissal store not initialized")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.redisKey(userID, key), "1", ttl).Err(); err != nil {
		return crerr.Wrap(err, "redis set dismissal")
	}
	s.logger.DebugContext(ctx, "drift prompt dismissed", "user_id", userID, "key", key, "ttl", ttl.String())
	return nil
}

func (s *DismissalStore) Clear(ctx context.Context, userID, key string) error {
	if s == nil || s.rdb == nil {
		return crerr.New("redis dismissal store not initialized")
	}
	if err := s.rdb.Del(ctx, s.redisKey(userID, key)).Err(); err != nil {
		return crerr.Wrap(err, "redis delete dismissal")
	}
	return nil
}

func (s *DismissalStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *DismissalStore) redisKey(userID, key string) string {
	return s.prefix + ":" + strings.TrimSpace(userID) + ":" + strings.TrimSpace(key)
}
