// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testRedisClient returns a Redis client connected to the test server.
// Skips the test if Redis is unavailable.
func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("REDIS_HOST", "localhost")
	port := envOr("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Redis not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"views:*", "reading:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestViewBufferIncrementAndDrain(t *testing.T) {
	client := testRedisClient(t)
	buf := NewViewBuffer(client)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		if err := buf.Increment(ctx, a); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}
	if err := buf.Increment(ctx, b); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	counts, err := buf.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if counts[a] != 3 || counts[b] != 1 {
		t.Errorf("counts = %v, want a=3 b=1", counts)
	}

	// Draining removed the counters; a second drain finds nothing.
	counts, err = buf.Drain(ctx)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("second drain returned %v, want empty", counts)
	}
}

func TestReadingStoreOrdersAndCaps(t *testing.T) {
	client := testRedisClient(t)
	store := NewReadingStore(client)
	ctx := context.Background()
	visitor := "visitor-" + uuid.NewString()

	var posts []uuid.UUID
	for i := 0; i < maxReadingHistory+3; i++ {
		id := uuid.New()
		posts = append(posts, id)
		if err := store.MarkRead(ctx, visitor, id); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
	}

	// Re-reading an old post moves it to the front.
	if err := store.MarkRead(ctx, visitor, posts[len(posts)-2]); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	ids, err := store.Recent(ctx, visitor)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(ids) != maxReadingHistory {
		t.Errorf("history length = %d, want %d", len(ids), maxReadingHistory)
	}
	if ids[0] != posts[len(posts)-2] {
		t.Errorf("most recent = %v, want %v", ids[0], posts[len(posts)-2])
	}
}
