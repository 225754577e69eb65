package session

import (
	"context"
	"net/http"
	"net/http/httptest"
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
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
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

// requestWithSession builds a request carrying the session cookie set by
// a previous Create.
func requestWithSession(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie was not set")
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	return r
}

func TestSessionCreateAndGet(t *testing.T) {
	client := testRedisClient(t)
	store := NewStore(client)
	ctx := context.Background()

	w := httptest.NewRecorder()
	data := &Data{
		UserID: uuid.New(),
		Email:  "test@session.local",
		Role:   "admin",
	}

	sessionID, err := store.Create(ctx, w, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sessionID == "" {
		t.Error("expected non-empty session ID")
	}

	r := requestWithSession(t, w)
	got, err := store.Get(ctx, r)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session data, got nil")
	}
	if got.UserID != data.UserID || got.Email != data.Email || got.Role != data.Role {
		t.Errorf("got %+v, want %+v", got, data)
	}
	if got.TwoFADone {
		t.Error("new session should not have 2FA done")
	}
}

func TestSessionGetWithoutCookie(t *testing.T) {
	client := testRedisClient(t)
	store := NewStore(client)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := store.Get(context.Background(), r)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil session without cookie, got %+v", got)
	}
}

func TestSessionUpdateFlips2FA(t *testing.T) {
	client := testRedisClient(t)
	store := NewStore(client)
	ctx := context.Background()

	w := httptest.NewRecorder()
	data := &Data{UserID: uuid.New(), Email: "totp@session.local", Role: "admin"}
	if _, err := store.Create(ctx, w, data); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r := requestWithSession(t, w)
	data.TwoFADone = true
	if err := store.Update(ctx, r, data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Get(ctx, r)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || !got.TwoFADone {
		t.Errorf("expected 2FA done after update, got %+v", got)
	}
}

func TestSessionDestroy(t *testing.T) {
	client := testRedisClient(t)
	store := NewStore(client)
	ctx := context.Background()

	w := httptest.NewRecorder()
	data := &Data{UserID: uuid.New(), Email: "gone@session.local", Role: "editor"}
	if _, err := store.Create(ctx, w, data); err != nil {
		t.Fatalf("Create: %v", err)
	}

	r := requestWithSession(t, w)
	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, r); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	got, err := store.Get(ctx, r)
	if err != nil {
		t.Fatalf("Get after destroy: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil session after destroy, got %+v", got)
	}

	// Cookie is expired on the destroy response.
	for _, c := range w2.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge >= 0 {
			t.Error("destroy did not expire the session cookie")
		}
	}
}
