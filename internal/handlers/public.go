// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"spruceup/internal/cache"
	"spruceup/internal/feed"
	"spruceup/internal/mailer"
	"spruceup/internal/middleware"
	"spruceup/internal/models"
	"spruceup/internal/store"
)

// maxPageSize caps the page_size query parameter.
const maxPageSize = 50

// Public groups the handlers of the visitor-facing JSON API.
type Public struct {
	posts       *store.PostStore
	categories  *store.CategoryStore
	settings    *store.SettingStore
	subscribers *store.SubscriberStore
	views       *cache.ViewBuffer
	reading     *cache.ReadingStore
	mail        *mailer.Mailer
	pageSize    int
}

func NewPublic(
	posts *store.PostStore,
	categories *store.CategoryStore,
	settings *store.SettingStore,
	subscribers *store.SubscriberStore,
	views *cache.ViewBuffer,
	reading *cache.ReadingStore,
	mail *mailer.Mailer,
	pageSize int,
) *Public {
	return &Public{
		posts:       posts,
		categories:  categories,
		settings:    settings,
		subscribers: subscribers,
		views:       views,
		reading:     reading,
		mail:        mail,
		pageSize:    pageSize,
	}
}

// feedPage is one page of the public feed, annotated with category
// names and the canonical filter URL segment.
type feedPage struct {
	Posts      []feedPost `json:"posts"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Done       bool       `json:"done"`
	URLSegment string     `json:"url_segment,omitempty"`
}

type feedPost struct {
	models.Post
	CategoryNames []string `json:"category_names"`
}

// annotate resolves category ids to display names. Dangling references
// surface as the "unknown category" placeholder rather than an error.
func annotate(posts []models.Post, cats []models.Category) []feedPost {
	out := make([]feedPost, 0, len(posts))
	for _, p := range posts {
		names := make([]string, 0, len(p.CategoryIDs))
		for _, id := range p.CategoryIDs {
			names = append(names, models.CategoryNameForID(cats, id))
		}
		out = append(out, feedPost{Post: p, CategoryNames: names})
	}
	return out
}

// Feed serves one page of the post feed, optionally narrowed by a
// category slug segment ("cleaning_decor") and a search query. A
// segment that matches no category is ignored entirely.
func (h *Public) Feed(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.ListOrderedByName()
	if err != nil {
		respondStoreError(w, "feed: list categories", err)
		return
	}

	var filterIDs []uuid.UUID
	if segment := chi.URLParam(r, "slugs"); segment != "" {
		filterIDs = feed.ResolveSlugsToCategoryIDs(segment, cats)
	}
	query := r.URL.Query().Get("q")

	pageSize := h.pageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= maxPageSize {
			pageSize = n
		}
	}

	page, err := h.posts.ListOrderedByCreatedAtDesc(pageSize, r.URL.Query().Get("cursor"))
	if err != nil {
		respondStoreError(w, "feed: list posts", err)
		return
	}

	items := feed.ApplyFilter(page.Items, query, filterIDs)
	respondJSON(w, http.StatusOK, feedPage{
		Posts:      annotate(items, cats),
		NextCursor: page.NextCursor,
		Done:       page.Done,
		URLSegment: feed.BuildURLSegment(filterIDs, cats),
	})
}

// GetPost serves a single post and records it in the visitor's reading
// history. History failures are logged, never surfaced.
func (h *Public) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondStoreError(w, "get post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		if err := h.reading.MarkRead(r.Context(), visitor, post.ID); err != nil {
			slog.Warn("reading history update failed", "error", err)
		}
	}

	cats, err := h.categories.ListOrderedByName()
	if err != nil {
		respondStoreError(w, "get post: list categories", err)
		return
	}
	annotated := annotate([]models.Post{*post}, cats)
	respondJSON(w, http.StatusOK, annotated[0])
}

// ListCategories serves all categories with their post counters,
// ordered by name.
func (h *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.ListOrderedByName()
	if err != nil {
		respondStoreError(w, "list categories", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// Home serves the home page payload: the hero slider, the first feed
// page, and the category list.
func (h *Public) Home(w http.ResponseWriter, r *http.Request) {
	slider, err := h.settings.SliderConfig()
	if err != nil {
		respondStoreError(w, "home: slider config", err)
		return
	}
	sliderPosts, err := h.posts.FindByIDs(slider.PostIDs())
	if err != nil {
		respondStoreError(w, "home: slider posts", err)
		return
	}

	page, err := h.posts.ListOrderedByCreatedAtDesc(h.pageSize, "")
	if err != nil {
		respondStoreError(w, "home: latest posts", err)
		return
	}
	cats, err := h.categories.ListOrderedByName()
	if err != nil {
		respondStoreError(w, "home: categories", err)
		return
	}
	menu, err := h.settings.Menu()
	if err != nil {
		respondStoreError(w, "home: menu", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"slider": map[string]any{
			"slots": slider.Slots,
			"posts": annotate(sliderPosts, cats),
		},
		"latest": feedPage{
			Posts:      annotate(page.Items, cats),
			NextCursor: page.NextCursor,
			Done:       page.Done,
		},
		"categories": cats,
		"menu":       menu.Items,
	})
}

type viewRequest struct {
	PostID uuid.UUID `json:"post_id"`
}

// AddView buffers one view for a post. Fire-and-forget: the response is
// always 204 unless the request itself is malformed, so a Redis outage
// never breaks page loads.
func (h *Public) AddView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil || req.PostID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "post_id is required")
		return
	}
	if err := h.views.Increment(r.Context(), req.PostID); err != nil {
		slog.Warn("view increment failed", "post", req.PostID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=300"`
	Message string `json:"message" validate:"required,max=10000"`
}

// SendEmail delivers a contact form submission to the site inbox.
func (h *Public) SendEmail(w http.ResponseWriter, r *http.Request) {
	if h.mail == nil {
		respondError(w, http.StatusServiceUnavailable, "mail is not configured")
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "name, email, subject and message are required")
		return
	}

	if err := h.mail.SendContact(req.Name, req.Email, req.Subject, req.Message); err != nil {
		slog.Error("contact mail failed", "error", err)
		respondError(w, http.StatusBadGateway, "could not deliver the message")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type subscribeRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Source  string `json:"source" validate:"max=100"`
	PageURL string `json:"page_url" validate:"max=500"`
}

// Subscribe adds a newsletter signup. Resubscribing an existing address
// is a silent success.
func (h *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	added, err := h.subscribers.Add(models.Subscriber{
		Email:     req.Email,
		Source:    req.Source,
		PageURL:   req.PageURL,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		respondStoreError(w, "newsletter subscribe", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"added": added})
}

// MarkRead explicitly records a post in the visitor's reading history.
// GetPost already does this implicitly; this endpoint covers cached or
// prerendered post views that never hit GetPost.
func (h *Public) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil || req.PostID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "post_id is required")
		return
	}
	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		if err := h.reading.MarkRead(r.Context(), visitor, req.PostID); err != nil {
			slog.Warn("reading history update failed", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reading serves the visitor's recently opened posts, most recent
// first, so the frontend can offer "continue reading".
func (h *Public) Reading(w http.ResponseWriter, r *http.Request) {
	visitor := middleware.VisitorFromCtx(r.Context())
	if visitor == "" {
		respondJSON(w, http.StatusOK, map[string]any{"posts": []feedPost{}})
		return
	}

	ids, err := h.reading.Recent(r.Context(), visitor)
	if err != nil {
		slog.Warn("reading history lookup failed", "error", err)
		respondJSON(w, http.StatusOK, map[string]any{"posts": []feedPost{}})
		return
	}

	posts, err := h.posts.FindByIDs(ids)
	if err != nil {
		respondStoreError(w, "reading: load posts", err)
		return
	}
	cats, err := h.categories.ListOrderedByName()
	if err != nil {
		respondStoreError(w, "reading: list categories", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": annotate(posts, cats)})
}
