// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package feed maps category filter URL segments to category ids and
// accumulates paginated post pages into a growing in-memory feed.
package feed

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"spruceup/internal/models"
	"spruceup/internal/store"
)

// FetchFunc loads one page of the global post feed starting at cursor.
// An empty cursor starts from the newest post.
type FetchFunc func(pageSize int, cursor string) (store.Page, error)

// Feed accumulates pages of posts fetched through a FetchFunc. Fetches
// are guarded by a busy flag: a FetchMore issued while another fetch is
// in flight is dropped, not queued. It drives infinite-scroll surfaces
// that hold their own feed state, such as the server-rendered preview
// in the admin console and embedded Go clients; the public JSON API
// stays stateless and serves one page per request.
type Feed struct {
	fetch    FetchFunc
	pageSize int

	mu     sync.Mutex
	busy   bool
	posts  []models.Post
	cursor string
	done   bool
}

func New(fetch FetchFunc, pageSize int) *Feed {
	return &Feed{fetch: fetch, pageSize: pageSize}
}

// FetchMore appends the next page to the accumulated feed. It returns
// false without fetching when a fetch is already in flight or the feed
// is exhausted.
func (f *Feed) FetchMore() (bool, error) {
	f.mu.Lock()
	if f.busy || f.done {
		f.mu.Unlock()
		return false, nil
	}
	f.busy = true
	cursor := f.cursor
	f.mu.Unlock()

	page, err := f.fetch(f.pageSize, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		return false, err
	}
	f.posts = append(f.posts, page.Items...)
	f.cursor = page.NextCursor
	f.done = page.Done
	return true, nil
}

// Posts returns a copy of the accumulated feed.
func (f *Feed) Posts() []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// Done reports whether the last fetched page was the final one.
func (f *Feed) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Reset discards the accumulated feed so the next FetchMore starts from
// the newest post again. Used when the active filter changes.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = nil
	f.cursor = ""
	f.done = false
}

// ResolveSlugsToCategoryIDs maps an underscore-joined slug segment to
// the ids of the categories whose slugs appear in it. Unknown slugs are
// dropped; a segment matching nothing yields an empty result, which
// callers treat as "no filter".
func ResolveSlugsToCategoryIDs(segment string, cats []models.Category) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range strings.Split(segment, "_") {
		for _, c := range cats {
			if c.Slug == s {
				ids = append(ids, c.ID)
				break
			}
		}
	}
	return ids
}

// BuildURLSegment renders a category filter as an underscore-joined
// slug segment, ordered by category name. Ids without a known category
// are skipped; an empty filter yields "".
func BuildURLSegment(ids []uuid.UUID, cats []models.Category) string {
	var selected []models.Category
	for _, id := range ids {
		for _, c := range cats {
			if c.ID == id {
				selected = append(selected, c)
				break
			}
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })
	slugs := lo.Map(selected, func(c models.Category, _ int) string { return c.Slug })
	return strings.Join(slugs, "_")
}

// ApplyFilter narrows posts to those matching the search query (case
// insensitive, against title and description) and carrying at least one
// of the given category ids. Empty query and empty id set each mean "no
// constraint".
func ApplyFilter(posts []models.Post, query string, categoryIDs []uuid.UUID) []models.Post {
	query = strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(posts, func(p models.Post, _ int) bool {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			return false
		}
		if len(categoryIDs) > 0 && !lo.Some(p.CategoryIDs, categoryIDs) {
			return false
		}
		return true
	})
}
