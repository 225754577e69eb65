// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// reading.go tracks which posts a visitor has recently opened so the
// site can offer a "continue reading" list. History is keyed by an
// anonymous visitor cookie and capped per visitor.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	readingKeyPrefix = "reading:"

	// maxReadingHistory caps the per-visitor list.
	maxReadingHistory = 10

	// readingTTL expires history for visitors who stop coming back.
	readingTTL = 30 * 24 * time.Hour
)

// ReadingStore keeps per-visitor reading history in Redis.
type ReadingStore struct {
	client *redis.Client
}

func NewReadingStore(client *redis.Client) *ReadingStore {
	return &ReadingStore{client: client}
}

// MarkRead records that a visitor opened a post, moving it to the front
// of their history.
func (s *ReadingStore) MarkRead(ctx context.Context, visitorID string, postID uuid.UUID) error {
	key := readingKeyPrefix + visitorID
	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, key, 0, postID.String())
	pipe.LPush(ctx, key, postID.String())
	pipe.LTrim(ctx, key, 0, maxReadingHistory-1)
	pipe.Expire(ctx, key, readingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark read %s: %w", visitorID, err)
	}
	return nil
}

// Recent returns the visitor's history, most recent first. Entries that
// no longer parse as post ids are skipped.
func (s *ReadingStore) Recent(ctx context.Context, visitorID string) ([]uuid.UUID, error) {
	vals, err := s.client.LRange(ctx, readingKeyPrefix+visitorID, 0, maxReadingHistory-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", visitorID, err)
	}
	var ids []uuid.UUID
	for _, v := range vals {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
