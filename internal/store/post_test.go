// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"spruceup/internal/models"
)

// --- Pure logic: no database required ---

func TestCategoryDeltas(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name string
		old  []uuid.UUID
		new  []uuid.UUID
		want map[uuid.UUID]int
	}{
		{
			name: "symmetric difference only",
			old:  []uuid.UUID{a, b},
			new:  []uuid.UUID{b, c},
			want: map[uuid.UUID]int{a: -1, c: 1},
		},
		{
			name: "create applies plus one to every category",
			old:  nil,
			new:  []uuid.UUID{a, b},
			want: map[uuid.UUID]int{a: 1, b: 1},
		},
		{
			name: "delete applies minus one to every category",
			old:  []uuid.UUID{a, b},
			new:  nil,
			want: map[uuid.UUID]int{a: -1, b: -1},
		},
		{
			name: "no change yields no deltas",
			old:  []uuid.UUID{a, b},
			new:  []uuid.UUID{b, a},
			want: map[uuid.UUID]int{},
		},
		{
			name: "duplicates in input do not double count",
			old:  []uuid.UUID{a, a},
			new:  []uuid.UUID{a, b, b},
			want: map[uuid.UUID]int{b: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryDeltas(tt.old, tt.new)
			if len(got) != len(tt.want) {
				t.Fatalf("deltas = %v, want %v", got, tt.want)
			}
			for id, d := range tt.want {
				if got[id] != d {
					t.Errorf("delta[%s] = %d, want %d", id, got[id], d)
				}
			}
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), ID: uuid.New()}
	decoded, err := DecodeCursor(EncodeCursor(c))
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !decoded.CreatedAt.Equal(c.CreatedAt) || decoded.ID != c.ID {
		t.Errorf("round trip = %+v, want %+v", decoded, c)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	for _, token := range []string{"not base64 ???", "bm90LWpzb24"} {
		if _, err := DecodeCursor(token); err == nil {
			t.Errorf("DecodeCursor(%q) should fail", token)
		}
	}
}

func TestSplitJoinTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"  ", []string{}},
		{"diy", []string{"diy"}},
		{"diy, budget ,weekend", []string{"diy", "budget", "weekend"}},
		{",,a,", []string{"a"}},
	}
	for _, tt := range tests {
		got := SplitTags(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitTags(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitTags(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}

	if got := JoinTags([]string{" diy ", "", "budget"}); got != "diy,budget" {
		t.Errorf("JoinTags = %q, want %q", got, "diy,budget")
	}
}

// --- Integration: require PostgreSQL ---

// TestPostStore_PaginationTermination seeds exactly 25 posts and pages
// through them with pageSize 10: the three fetches return 10, 10, 5
// items with done false, false, true, and a fetch past the end returns
// an empty, done page.
func TestPostStore_PaginationTermination(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	titles := make([]string, 25)
	for i := 0; i < 25; i++ {
		titles[i] = fmt.Sprintf("ZZ Page Post %02d", i)
	}
	t.Cleanup(func() { cleanPosts(t, db, titles...) })

	for i := 0; i < 25; i++ {
		_, err := s.Create(&models.Post{
			Title:       titles[i],
			Description: "d",
			Content:     "<p>c</p>",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed post %d: %v", i, err)
		}
	}

	// A shared dev database may hold rows beyond the fixture; the exact
	// 10/10/5 page shape is only asserted when the table holds exactly
	// the 25 seeded posts (the normal case on a clean test database).
	total, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	exact := total == 25
	wantSizes := []int{10, 10, 5}
	wantDone := []bool{false, false, true}

	var (
		cursor string
		done   bool
		seen   int
		prev   time.Time
		first  = true
	)
	for fetch := 0; !done; fetch++ {
		if fetch >= (total/10)+2 {
			t.Fatal("pagination did not terminate")
		}
		page, err := s.ListOrderedByCreatedAtDesc(10, cursor)
		if err != nil {
			t.Fatalf("fetch %d: %v", fetch, err)
		}
		if exact {
			if fetch >= len(wantSizes) {
				t.Fatalf("fetch %d past expected last page", fetch)
			}
			if len(page.Items) != wantSizes[fetch] {
				t.Errorf("fetch %d returned %d items, want %d", fetch, len(page.Items), wantSizes[fetch])
			}
			if page.Done != wantDone[fetch] {
				t.Errorf("fetch %d done = %v, want %v", fetch, page.Done, wantDone[fetch])
			}
		}
		for _, p := range page.Items {
			if !first && p.CreatedAt.After(prev) {
				t.Errorf("feed out of order: %v after %v", p.CreatedAt, prev)
			}
			prev, first = p.CreatedAt, false
			seen++
		}
		cursor, done = page.NextCursor, page.Done
	}
	if seen < 25 {
		t.Errorf("walked %d posts, want at least the 25 seeded", seen)
	}

	// A fetch past the end is a no-op page.
	tail, err := s.ListOrderedByCreatedAtDesc(10, cursor)
	if err != nil {
		t.Fatalf("tail fetch: %v", err)
	}
	if len(tail.Items) != 0 || !tail.Done {
		t.Errorf("tail page = %d items done=%v, want empty and done", len(tail.Items), tail.Done)
	}
}

func TestPostStore_CreateValidation(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	cases := []models.Post{
		{Title: "", Description: "d", Content: "c"},
		{Title: "t", Description: " ", Content: "c"},
		{Title: "t", Description: "d", Content: ""},
	}
	for i, p := range cases {
		if _, err := s.Create(&p); !models.IsValidation(err) {
			t.Errorf("case %d: got %v, want ValidationError", i, err)
		}
	}
}

func TestPostStore_CreateDeduplicatesCategoryIDs(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	t.Cleanup(func() { cleanPosts(t, db, "ZZ Dedup Post") })

	cat := uuid.New()
	p, err := s.Create(&models.Post{
		Title:       "ZZ Dedup Post",
		Description: "d",
		Content:     "<p>c</p>",
		CategoryIDs: []uuid.UUID{cat, cat, cat},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Delete(p.ID)

	got, err := s.FindByID(p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.CategoryIDs) != 1 || got.CategoryIDs[0] != cat {
		t.Errorf("CategoryIDs = %v, want exactly [%s]", got.CategoryIDs, cat)
	}
}

func TestPostStore_TagsRoundTrip(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	t.Cleanup(func() { cleanPosts(t, db, "ZZ Tags Post", "ZZ No Tags Post") })

	p, err := s.Create(&models.Post{
		Title:       "ZZ Tags Post",
		Description: "d",
		Content:     "<p>c</p>",
		Tags:        []string{" diy ", "budget", ""},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Delete(p.ID)

	got, err := s.FindByID(p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	want := []string{"diy", "budget"}
	if len(got.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", got.Tags, want)
	}
	for i := range want {
		if got.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, got.Tags[i], want[i])
		}
	}

	// A tag-less post stores the empty string and scans back empty.
	bare, err := s.Create(&models.Post{
		Title:       "ZZ No Tags Post",
		Description: "d",
		Content:     "<p>c</p>",
	})
	if err != nil {
		t.Fatalf("Create without tags: %v", err)
	}
	defer s.Delete(bare.ID)

	got, err = s.FindByID(bare.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want none", got.Tags)
	}
}

func TestPostStore_FindByIDs_ChunksAndPreservesOrder(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	// 12 ids forces two chunks (10 + 2).
	titles := make([]string, 12)
	ids := make([]uuid.UUID, 12)
	for i := range titles {
		titles[i] = fmt.Sprintf("ZZ Chunk Post %02d", i)
	}
	t.Cleanup(func() { cleanPosts(t, db, titles...) })

	for i := range titles {
		p, err := s.Create(&models.Post{
			Title:       titles[i],
			Description: "d",
			Content:     "<p>c</p>",
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		ids[i] = p.ID
	}

	// Request in reverse order, with an unknown id mixed in.
	request := make([]uuid.UUID, 0, 13)
	for i := len(ids) - 1; i >= 0; i-- {
		request = append(request, ids[i])
	}
	request = append(request, uuid.New())

	got, err := s.FindByIDs(request)
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("got %d posts, want 12 (unknown id silently absent)", len(got))
	}
	for i, p := range got {
		if p.ID != request[i] {
			t.Errorf("result[%d] = %s, want %s (input order)", i, p.ID, request[i])
		}
	}
}

func TestPostStore_UpdateReplacesCategoryRefs(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	t.Cleanup(func() { cleanPosts(t, db, "ZZ Update Post") })

	a, b := uuid.New(), uuid.New()
	p, err := s.Create(&models.Post{
		Title:       "ZZ Update Post",
		Description: "d",
		Content:     "<p>c</p>",
		CategoryIDs: []uuid.UUID{a},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer s.Delete(p.ID)

	p.CategoryIDs = []uuid.UUID{b}
	p.Content = "<p>edited</p>"
	if err := s.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.FindByID(p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Content != "<p>edited</p>" {
		t.Errorf("Content = %q, want edited body", got.Content)
	}
	if len(got.CategoryIDs) != 1 || got.CategoryIDs[0] != b {
		t.Errorf("CategoryIDs = %v, want [%s]", got.CategoryIDs, b)
	}
}
