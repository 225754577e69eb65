// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"spruceup/internal/htmlimg"
	"spruceup/internal/models"
	"spruceup/internal/storage"
	"spruceup/internal/store"
)

// maxUploadBytes caps image uploads.
const maxUploadBytes = 10 << 20

// ImageStorage is the slice of object storage the admin handlers need.
// *storage.Client satisfies it.
type ImageStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// Admin groups the handlers of the admin console API.
type Admin struct {
	posts       *store.PostStore
	categories  *store.CategoryStore
	settings    *store.SettingStore
	subscribers *store.SubscriberStore
	storage     ImageStorage
}

func NewAdmin(
	posts *store.PostStore,
	categories *store.CategoryStore,
	settings *store.SettingStore,
	subscribers *store.SubscriberStore,
	st ImageStorage,
) *Admin {
	return &Admin{
		posts:       posts,
		categories:  categories,
		settings:    settings,
		subscribers: subscribers,
		storage:     st,
	}
}

// Dashboard serves the admin landing counts.
func (h *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	postCount, err := h.posts.Count()
	if err != nil {
		respondStoreError(w, "dashboard: post count", err)
		return
	}
	catCount, err := h.categories.Count()
	if err != nil {
		respondStoreError(w, "dashboard: category count", err)
		return
	}
	subCount, err := h.subscribers.Count()
	if err != nil {
		respondStoreError(w, "dashboard: subscriber count", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"posts":       postCount,
		"categories":  catCount,
		"subscribers": subCount,
	})
}

type postRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	MainImg     string      `json:"main_img"`
	MainImgPath string      `json:"main_img_path"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	Tags        []string    `json:"tags"`
	CreatedAt   *time.Time  `json:"created_at"` // optional; feed position is editable
}

func (req *postRequest) toPost() *models.Post {
	p := &models.Post{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		MainImg:     req.MainImg,
		MainImgPath: req.MainImgPath,
		CategoryIDs: req.CategoryIDs,
		Tags:        req.Tags,
	}
	if req.CreatedAt != nil {
		p.CreatedAt = *req.CreatedAt
	}
	return p
}

// warningStrings flattens an aggregated error into response strings.
func warningStrings(err error) []string {
	var out []string
	for _, e := range multierr.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}

// CreatePost saves a new post and increments the counter of every
// referenced category. Counter failures do not fail the save: the post
// exists, the counters drift until reconciliation, and the response
// carries warnings.
func (h *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePostInput(req.Title, req.Description, req.Content, req.Tags); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	post, err := h.posts.Create(req.toPost())
	if err != nil {
		respondStoreError(w, "create post", err)
		return
	}

	deltas := store.CategoryDeltas(nil, post.CategoryIDs)
	var warnings []string
	if err := h.categories.AdjustPostCounts(r.Context(), deltas); err != nil {
		slog.Warn("post counters not incremented", "post", post.ID, "error", err)
		warnings = warningStrings(&models.ReconciliationWarning{Op: "increment counters", Err: err})
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"post":     post,
		"warnings": warnings,
	})
}

// UpdatePost saves an edited post, applies counter deltas for the
// category changes, and removes images the edit no longer references.
// Counter and storage failures are reported as warnings, not errors.
func (h *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePostInput(req.Title, req.Description, req.Content, req.Tags); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	old, err := h.posts.FindByID(id)
	if err != nil {
		respondStoreError(w, "update post: load", err)
		return
	}
	if old == nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	post := req.toPost()
	post.ID = id
	if req.CreatedAt == nil {
		post.CreatedAt = old.CreatedAt
	}
	if err := h.posts.Update(post); err != nil {
		respondStoreError(w, "update post", err)
		return
	}

	// Only the categories that actually changed get counter updates.
	var warn error
	deltas := store.CategoryDeltas(old.CategoryIDs, post.CategoryIDs)
	if err := h.categories.AdjustPostCounts(r.Context(), deltas); err != nil {
		slog.Warn("post counters not adjusted", "post", id, "error", err)
		warn = multierr.Append(warn, &models.ReconciliationWarning{Op: "adjust counters", Err: err})
	}

	if err := h.cleanupReplacedImages(r, old, post); err != nil {
		warn = multierr.Append(warn, &models.ReconciliationWarning{Op: "image cleanup", Err: err})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"post":     post,
		"warnings": warningStrings(warn),
	})
}

// heroKey resolves the storage key of a post's hero image. The stored
// path is authoritative; rows written before paths were recorded only
// carry the public URL, so fall back to parsing it.
func (h *Admin) heroKey(p *models.Post) (string, bool) {
	if p.MainImgPath != "" {
		return p.MainImgPath, true
	}
	if p.MainImg == "" {
		return "", false
	}
	return h.storage.ExtractKey(p.MainImg)
}

// cleanupReplacedImages deletes the hero image if it was swapped and
// any embedded images dropped from the content. Best effort: every
// failure is collected, none blocks the edit.
func (h *Admin) cleanupReplacedImages(r *http.Request, old, updated *models.Post) error {
	if h.storage == nil {
		return nil
	}

	var errs error
	if old.MainImg != updated.MainImg || old.MainImgPath != updated.MainImgPath {
		if key, ok := h.heroKey(old); ok {
			errs = multierr.Append(errs, h.storage.Delete(r.Context(), key))
		}
	}
	for _, url := range htmlimg.Removed(old.Content, updated.Content) {
		if key, ok := h.storage.ExtractKey(url); ok {
			errs = multierr.Append(errs, h.storage.Delete(r.Context(), key))
		}
	}
	if errs != nil {
		slog.Warn("image cleanup incomplete", "post", old.ID, "error", errs)
	}
	return errs
}

// DeletePost removes a post and everything attached to it: the hero
// image, images embedded in the content, and one count from every
// referenced category. The row deletion must succeed; the attached
// cleanup is best effort and reported as warnings.
func (h *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondStoreError(w, "delete post: load", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	var warn error
	if h.storage != nil {
		var imgErrs error
		if key, ok := h.heroKey(post); ok {
			imgErrs = multierr.Append(imgErrs, h.storage.Delete(r.Context(), key))
		}
		for _, url := range htmlimg.Extract(post.Content) {
			if key, ok := h.storage.ExtractKey(url); ok {
				imgErrs = multierr.Append(imgErrs, h.storage.Delete(r.Context(), key))
			}
		}
		if imgErrs != nil {
			warn = multierr.Append(warn, &models.ReconciliationWarning{Op: "image cleanup", Err: imgErrs})
		}
	}

	if err := h.posts.Delete(id); err != nil {
		respondStoreError(w, "delete post", err)
		return
	}

	deltas := store.CategoryDeltas(post.CategoryIDs, nil)
	if err := h.categories.AdjustPostCounts(r.Context(), deltas); err != nil {
		slog.Warn("post counters not decremented", "post", id, "error", err)
		warn = multierr.Append(warn, &models.ReconciliationWarning{Op: "decrement counters", Err: err})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"warnings": warningStrings(warn),
	})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CreateCategory adds a category. A name whose slug collides with an
// existing category is silently dropped: the response is a success but
// nothing is created. The admin frontend surfaces the unchanged list.
func (h *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCategoryInput(req.Name); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := h.categories.Create(req.Name, req.Description)
	if errors.Is(err, models.ErrSlugTaken) {
		respondJSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}
	if err != nil {
		respondStoreError(w, "create category", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"created": true, "category": cat})
}

// UpdateCategory edits a category's name, slug, and description. As
// with creation, a slug collision is a silent no-op.
func (h *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCategoryInput(req.Name); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	err = h.categories.Update(id, req.Name, req.Slug, req.Description)
	if errors.Is(err, models.ErrSlugTaken) {
		respondJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}
	if err != nil {
		respondStoreError(w, "update category", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"updated": true})
}

// DeleteCategory removes a category. Posts keep their reference to the
// deleted id; feeds render it as "unknown category" until the posts are
// edited.
func (h *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.categories.Delete(id); err != nil {
		respondStoreError(w, "delete category", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Reconcile recomputes every category's post counter from the
// association table. Safe to run repeatedly; a second run right after
// the first fixes zero rows.
func (h *Admin) Reconcile(w http.ResponseWriter, r *http.Request) {
	fixed, err := h.categories.ReconcilePostCounts()
	if err != nil {
		respondStoreError(w, "reconcile counters", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"fixed": fixed})
}

// GetSlider serves the home slider configuration.
func (h *Admin) GetSlider(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.SliderConfig()
	if err != nil {
		respondStoreError(w, "get slider", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// SetSlider replaces the home slider configuration. Slots pointing at
// posts that no longer exist are dropped.
func (h *Admin) SetSlider(w http.ResponseWriter, r *http.Request) {
	var cfg models.SliderConfig
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	posts, err := h.posts.FindByIDs(cfg.PostIDs())
	if err != nil {
		respondStoreError(w, "set slider: verify posts", err)
		return
	}
	known := make(map[uuid.UUID]bool, len(posts))
	for _, p := range posts {
		known[p.ID] = true
	}
	kept := cfg.Slots[:0]
	for _, slot := range cfg.Slots {
		if known[slot.PostID] {
			kept = append(kept, slot)
		}
	}
	cfg.Slots = kept

	if err := h.settings.SetSliderConfig(cfg); err != nil {
		respondStoreError(w, "set slider", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// GetMenu serves the site navigation menu.
func (h *Admin) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.settings.Menu()
	if err != nil {
		respondStoreError(w, "get menu", err)
		return
	}
	respondJSON(w, http.StatusOK, menu)
}

// SetMenu replaces the site navigation menu.
func (h *Admin) SetMenu(w http.ResponseWriter, r *http.Request) {
	var menu models.Menu
	if err := decodeJSON(r, &menu); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, item := range menu.Items {
		if item.Label == "" || item.Href == "" {
			respondError(w, http.StatusBadRequest, "menu items need a label and href")
			return
		}
	}
	if err := h.settings.SetMenu(menu); err != nil {
		respondStoreError(w, "set menu", err)
		return
	}
	respondJSON(w, http.StatusOK, menu)
}

// allowedImageTypes are the content types accepted for uploads.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadImage stores an editor image in object storage and returns its
// public URL and key.
func (h *Admin) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "a file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		respondError(w, http.StatusUnsupportedMediaType, "only jpeg, png, webp and gif images are accepted")
		return
	}

	key := storage.NewKey(header.Filename)
	if err := h.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		slog.Error("image upload failed", "key", key, "error", err)
		respondError(w, http.StatusBadGateway, "upload failed")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"url": h.storage.FileURL(key),
		"key": key,
	})
}
