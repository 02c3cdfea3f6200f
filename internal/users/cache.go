package users

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "users:id:"

// Cache keeps sanitized accounts in Redis to absorb repeated reads. All
// methods are safe on a nil receiver so the service can run without a
// cache wired in.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached sanitized account, if present.
func (c *Cache) Get(ctx context.Context, id string) (*User, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false
	}
	return &user, true
}

// Set stores a sanitized copy of the account. Failures are ignored; the
// cache is best effort.
func (c *Cache) Set(ctx context.Context, user *User) {
	if c == nil || c.client == nil || user == nil {
		return
	}
	data, err := json.Marshal(user.Sanitized())
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKeyPrefix+user.ID, data, c.ttl)
}

// Invalidate drops the cached entry after a mutation.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, cacheKeyPrefix+id)
}
