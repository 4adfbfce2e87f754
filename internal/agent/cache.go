package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "agent:directory"

// Snapshot is the role/permission name directory embedded in the prompt.
type Snapshot struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// SnapshotCache keeps the name directory in Redis for a short TTL so a burst
// of agent commands does not rescan both tables per request. Redis being
// unavailable degrades to a direct load; it never fails the request.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache instantiates the cache helper.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Fetch loads the cached snapshot or populates it using the loader.
func (c *SnapshotCache) Fetch(ctx context.Context, loader func(context.Context) (Snapshot, error)) (Snapshot, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	if raw, err := c.client.Get(ctx, snapshotKey).Bytes(); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
	}
	snap, err := loader(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if data, err := json.Marshal(snap); err == nil {
		_ = c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
	}
	return snap, nil
}

// Invalidate drops the cached snapshot after the reconciler mutates the
// directory, so the next prompt sees the new names.
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, snapshotKey).Err()
}
