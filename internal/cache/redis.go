package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/tourplanner/config"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/redis/go-redis/v9"
)

// RedisCache persists session credentials so a restarted client keeps its
// signed-in browsers.
type RedisCache struct {
	client     *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
}

func NewRedisCache(cfg config.RedisConfig, sessionTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (c *RedisCache) Save(ctx context.Context, s *session.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session id is required")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(s.ID), payload, c.ttlFor(s)).Err()
}

func (c *RedisCache) Load(ctx context.Context, id string) (*session.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ttlFor keeps the key no longer than the credential itself is usable.
func (c *RedisCache) ttlFor(s *session.Session) time.Duration {
	ttl := c.sessionTTL
	if !s.ExpiresAt.IsZero() {
		remaining := s.ExpiresAt.Sub(c.now())
		if remaining <= 0 {
			return time.Second
		}
		if ttl == 0 || remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

func sessionKey(id string) string {
	return "session:" + id
}

var _ session.Store = (*RedisCache)(nil)
