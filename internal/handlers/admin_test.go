// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"spruceup/internal/database"
	"spruceup/internal/models"
	"spruceup/internal/store"
)

// testDB opens the test database and migrates it, skipping the test
// when PostgreSQL is unreachable. Same conventions as the store tests.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "spruceup")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "spruceup")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fakeStorage records deletions and fails for a configured key.
type fakeStorage struct {
	deleted []string
	failKey string
}

func (f *fakeStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if key == f.failKey {
		return errors.New("storage unavailable")
	}
	return nil
}

func (f *fakeStorage) FileURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) ExtractKey(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, "https://cdn.test/")
	return key, ok && key != ""
}

func deleteRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/admin/posts/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// Deleting a post removes the row and decrements counters even when a
// storage deletion fails; the failure surfaces as a warning and the
// remaining images are still attempted.
func TestAdmin_DeletePost_CascadeSurvivesStorageFailure(t *testing.T) {
	db := testDB(t)
	posts := store.NewPostStore(db)
	categories := store.NewCategoryStore(db)
	t.Cleanup(func() {
		db.Exec("DELETE FROM posts WHERE title = $1", "ZZ Cascade Post")
		db.Exec("DELETE FROM categories WHERE slug = $1", "zz-cascade-cat")
	})

	cat, err := categories.Create("ZZ Cascade Cat", "")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := categories.AdjustPostCount(context.Background(), cat.ID, 1); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	st := &fakeStorage{failKey: "uploads/hero.webp"}
	post, err := posts.Create(&models.Post{
		Title:       "ZZ Cascade Post",
		Description: "d",
		MainImg:     st.FileURL("uploads/stale-url.webp"),
		MainImgPath: "uploads/hero.webp",
		Content: `<p>x</p><img src="` + st.FileURL("uploads/body-1.webp") +
			`"><img src="` + st.FileURL("uploads/body-2.webp") + `">`,
		CategoryIDs: []uuid.UUID{cat.ID},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	admin := NewAdmin(posts, categories, store.NewSettingStore(db), store.NewSubscriberStore(db), st)
	rec := httptest.NewRecorder()
	admin.DeletePost(rec, deleteRequest(post.ID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp struct {
		OK       bool     `json:"ok"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false, want true")
	}
	if len(resp.Warnings) == 0 || !strings.Contains(resp.Warnings[0], "image cleanup") {
		t.Errorf("warnings = %v, want an image cleanup warning", resp.Warnings)
	}

	// The stored path wins over the stale public URL, and the content
	// images are attempted even though the hero deletion failed.
	want := []string{"uploads/hero.webp", "uploads/body-1.webp", "uploads/body-2.webp"}
	if len(st.deleted) != len(want) {
		t.Fatalf("deleted = %v, want %v", st.deleted, want)
	}
	for i := range want {
		if st.deleted[i] != want[i] {
			t.Errorf("deleted[%d] = %q, want %q", i, st.deleted[i], want[i])
		}
	}

	if got, err := posts.FindByID(post.ID); err != nil || got != nil {
		t.Errorf("post still present after delete (post=%v err=%v)", got, err)
	}
	updated, err := categories.FindByID(cat.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload category: %v", err)
	}
	if updated.PostCount != 0 {
		t.Errorf("post count = %d, want 0 after decrement", updated.PostCount)
	}
}
