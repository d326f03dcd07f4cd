package access

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/lalith-99/docgate/internal/models"
)

// UserCache is a short-TTL redis cache of resolved User records.
//
// Every authenticated request resolves the caller's record (the token
// carries identity, not privileges), which would otherwise be one DB read
// per request. The TTL bounds how stale a privilege check can be, and
// every ACL mutation invalidates the entry anyway, so in practice only a
// racing read sees the old grant — the same window a plain DB read has
// under last-write-wins.
//
// The cache is strictly an accelerator: any redis error degrades to a
// miss, never to a failure.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return "docgate:user:" + id.String()
}

// Get returns the cached user, or nil on miss (or any redis error).
func (c *UserCache) Get(ctx context.Context, id uuid.UUID) *models.User {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	return &u
}

func (c *UserCache) Set(ctx context.Context, u *models.User) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	c.client.Set(ctx, userKey(u.ID), data, c.ttl)
}

// Invalidate drops a user's entry. Called after every role/source
// mutation and after bootstrap promotion, BEFORE the mutation returns —
// the next resolve must see the new ACL.
func (c *UserCache) Invalidate(ctx context.Context, id uuid.UUID) {
	c.client.Del(ctx, userKey(id))
}
