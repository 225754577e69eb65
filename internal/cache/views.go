// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// views.go buffers post view increments in Redis so the hot path never
// writes to Postgres. A background job drains the buffer periodically
// and applies the accumulated deltas in one statement per post.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "views:"

// ViewBuffer accumulates view counts per post in Redis.
type ViewBuffer struct {
	client *redis.Client
}

func NewViewBuffer(client *redis.Client) *ViewBuffer {
	return &ViewBuffer{client: client}
}

// Increment records one view for a post. Counts survive app restarts
// but carry a TTL so abandoned keys don't accumulate if the drain job
// stops running.
func (b *ViewBuffer) Increment(ctx context.Context, postID uuid.UUID) error {
	key := viewKeyPrefix + postID.String()
	if err := b.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("view incr %s: %w", postID, err)
	}
	b.client.Expire(ctx, key, 7*24*time.Hour)
	return nil
}

// Drain atomically removes all buffered counts and returns them keyed
// by post id. Keys holding malformed ids or counts are dropped with a
// warning rather than failing the whole drain.
func (b *ViewBuffer) Drain(ctx context.Context) (map[uuid.UUID]int, error) {
	keys, err := b.client.Keys(ctx, viewKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("view drain scan: %w", err)
	}

	counts := make(map[uuid.UUID]int, len(keys))
	for _, key := range keys {
		val, err := b.client.GetDel(ctx, key).Int()
		if err == redis.Nil {
			continue // drained concurrently
		}
		if err != nil {
			slog.Warn("view drain: bad counter", "key", key, "error", err)
			continue
		}
		id, err := uuid.Parse(strings.TrimPrefix(key, viewKeyPrefix))
		if err != nil {
			slog.Warn("view drain: bad post id", "key", key)
			continue
		}
		if val > 0 {
			counts[id] = val
		}
	}
	return counts, nil
}
