// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"spruceup/internal/models"
)

// batchChunkSize caps id-list lookups per query. Inherited from the
// document-store batch contract: callers split id lists into chunks of
// at most 10 and merge the results.
const batchChunkSize = 10

// PostStore handles all post-related database operations, including the
// post_categories reference rows backing each post's category set.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Cursor marks a position in the created_at DESC feed. It is serialized
// into an opaque token so callers cannot depend on its fields.
type Cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        uuid.UUID `json:"i"`
}

// EncodeCursor serializes a cursor into its opaque token form.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque pagination token.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("decode cursor: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("decode cursor: %w", err)
	}
	return c, nil
}

// Page is one fetched slice of the feed. Done is set when the page came
// back short, meaning there is nothing after NextCursor.
type Page struct {
	Items      []models.Post `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Done       bool          `json:"done"`
}

const postColumns = `id, title, description, content, main_img, main_img_path, tags, views, created_at, updated_at`

// scanPost scans a row into a Post. Tags are stored comma-joined.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var tags string
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Description, &p.Content,
		&p.MainImg, &p.MainImgPath, &tags, &p.Views,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = SplitTags(tags)
	return &p, nil
}

// SplitTags parses a comma-joined tag string into a clean slice.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

// ListOrderedByCreatedAtDesc returns one page of the feed, ordered by
// created_at descending with id as tiebreaker. An empty cursor starts
// from the most recent post. Traversal cost is O(pages fetched).
func (s *PostStore) ListOrderedByCreatedAtDesc(pageSize int, cursor string) (Page, error) {
	if pageSize < 1 {
		return Page{}, &models.ValidationError{Field: "page_size", Msg: "must be positive"}
	}

	var (
		rows *sql.Rows
		err  error
	)
	if cursor == "" {
		rows, err = s.db.Query(`
			SELECT `+postColumns+` FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, pageSize)
	} else {
		var c Cursor
		c, err = DecodeCursor(cursor)
		if err != nil {
			return Page{}, &models.ValidationError{Field: "cursor", Msg: "is malformed"}
		}
		rows, err = s.db.Query(`
			SELECT `+postColumns+` FROM posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`, c.CreatedAt, c.ID, pageSize)
	}
	if err != nil {
		return Page{}, &models.RepositoryError{Op: "list posts page", Err: err}
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return Page{}, &models.RepositoryError{Op: "scan post", Err: err}
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, &models.RepositoryError{Op: "list posts page", Err: err}
	}

	if err := s.attachCategoryIDs(items); err != nil {
		return Page{}, err
	}

	page := Page{Items: items, Done: len(items) < pageSize}
	if len(items) > 0 {
		last := items[len(items)-1]
		page.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// FindByID retrieves a post with its category references. Returns nil
// if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.RepositoryError{Op: "find post by id", Err: err}
	}

	single := []models.Post{*p}
	if err := s.attachCategoryIDs(single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// FindByIDs performs a batched lookup, splitting the id list into chunks
// of at most batchChunkSize and merging results in the order of the
// input ids. Unknown ids are silently absent from the result.
func (s *PostStore) FindByIDs(ids []uuid.UUID) ([]models.Post, error) {
	ids = lo.Uniq(ids)
	byID := make(map[uuid.UUID]models.Post, len(ids))

	for _, chunk := range lo.Chunk(ids, batchChunkSize) {
		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}

		rows, err := s.db.Query(
			`SELECT `+postColumns+` FROM posts WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
			args...,
		)
		if err != nil {
			return nil, &models.RepositoryError{Op: "find posts by ids", Err: err}
		}
		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				rows.Close()
				return nil, &models.RepositoryError{Op: "scan post", Err: err}
			}
			byID[p.ID] = *p
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, &models.RepositoryError{Op: "find posts by ids", Err: err}
		}
		rows.Close()
	}

	merged := make([]models.Post, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			merged = append(merged, p)
		}
	}
	if err := s.attachCategoryIDs(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// attachCategoryIDs loads the category references for the given posts,
// chunking the id lookups like any other batched read.
func (s *PostStore) attachCategoryIDs(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(posts))
	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		posts[i].CategoryIDs = []uuid.UUID{}
		index[posts[i].ID] = i
		ids[i] = posts[i].ID
	}

	for _, chunk := range lo.Chunk(ids, batchChunkSize) {
		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}

		rows, err := s.db.Query(
			`SELECT post_id, category_id FROM post_categories WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)`,
			args...,
		)
		if err != nil {
			return &models.RepositoryError{Op: "load post categories", Err: err}
		}
		for rows.Next() {
			var postID, catID uuid.UUID
			if err := rows.Scan(&postID, &catID); err != nil {
				rows.Close()
				return &models.RepositoryError{Op: "scan post category", Err: err}
			}
			if i, ok := index[postID]; ok {
				posts[i].CategoryIDs = append(posts[i].CategoryIDs, catID)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return &models.RepositoryError{Op: "load post categories", Err: err}
		}
		rows.Close()
	}
	return nil
}

// Create inserts a new post and its category references. Category ids
// are de-duplicated before persisting. Counter adjustment is NOT done
// here — it is the caller's best-effort secondary step, taken only
// after this primary write succeeds.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	if err := validatePost(p); err != nil {
		return nil, err
	}
	p.CategoryIDs = lo.Uniq(p.CategoryIDs)

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, &models.RepositoryError{Op: "create post", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		INSERT INTO posts (title, description, content, main_img, main_img_path, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		p.Title, p.Description, p.Content, p.MainImg, p.MainImgPath, JoinTags(p.Tags), p.CreatedAt,
	)
	result, err := scanPost(row)
	if err != nil {
		return nil, &models.RepositoryError{Op: "create post", Err: err}
	}

	if err := insertCategoryRefs(tx, result.ID, p.CategoryIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &models.RepositoryError{Op: "create post", Err: err}
	}

	result.CategoryIDs = p.CategoryIDs
	return result, nil
}

// Update rewrites a post and replaces its category references. Callers
// read the previous state first to compute counter deltas and image
// cleanup; this method only performs the primary write.
func (s *PostStore) Update(p *models.Post) error {
	if err := validatePost(p); err != nil {
		return err
	}
	p.CategoryIDs = lo.Uniq(p.CategoryIDs)

	tx, err := s.db.Begin()
	if err != nil {
		return &models.RepositoryError{Op: "update post", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE posts SET
			title = $1, description = $2, content = $3,
			main_img = $4, main_img_path = $5, tags = $6,
			created_at = $7, updated_at = NOW()
		WHERE id = $8
	`, p.Title, p.Description, p.Content, p.MainImg, p.MainImgPath, JoinTags(p.Tags), p.CreatedAt, p.ID)
	if err != nil {
		return &models.RepositoryError{Op: "update post", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &models.RepositoryError{Op: "update post", Err: sql.ErrNoRows}
	}

	if _, err := tx.Exec(`DELETE FROM post_categories WHERE post_id = $1`, p.ID); err != nil {
		return &models.RepositoryError{Op: "update post categories", Err: err}
	}
	if err := insertCategoryRefs(tx, p.ID, p.CategoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &models.RepositoryError{Op: "update post", Err: err}
	}
	return nil
}

// Delete removes the post document. Reference rows cascade; callers
// must have read the post beforehand to recover category ids and image
// paths, since the document is unavailable afterwards.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return &models.RepositoryError{Op: "delete post", Err: err}
	}
	return nil
}

// AddViews folds buffered view-counter increments into the post row.
// Used by the flush job; increments are commutative.
func (s *PostStore) AddViews(id uuid.UUID, delta int) error {
	_, err := s.db.Exec(`UPDATE posts SET views = views + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return &models.RepositoryError{Op: "add views", Err: err}
	}
	return nil
}

// Count returns the number of posts.
func (s *PostStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, &models.RepositoryError{Op: "count posts", Err: err}
	}
	return count, nil
}

// insertCategoryRefs writes the post_categories rows for a post.
func insertCategoryRefs(tx *sql.Tx, postID uuid.UUID, catIDs []uuid.UUID) error {
	for _, catID := range catIDs {
		if _, err := tx.Exec(
			`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2)`,
			postID, catID,
		); err != nil {
			return &models.RepositoryError{Op: "insert post category", Err: err}
		}
	}
	return nil
}

// validatePost enforces the required fields of a post mutation. These
// checks run before any write; a failure means nothing was attempted.
func validatePost(p *models.Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return &models.ValidationError{Field: "title", Msg: "is required"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return &models.ValidationError{Field: "description", Msg: "is required"}
	}
	if strings.TrimSpace(p.Content) == "" {
		return &models.ValidationError{Field: "content", Msg: "is required"}
	}
	return nil
}

// CategoryDeltas computes the counter adjustments for a category-set
// change: +1 for every category that entered the set, -1 for every one
// that left. The unchanged intersection gets no delta, which keeps
// counter churn minimal and avoids double counting.
func CategoryDeltas(oldIDs, newIDs []uuid.UUID) map[uuid.UUID]int {
	removed, added := lo.Difference(lo.Uniq(oldIDs), lo.Uniq(newIDs))

	deltas := make(map[uuid.UUID]int, len(added)+len(removed))
	for _, id := range added {
		deltas[id] = 1
	}
	for _, id := range removed {
		deltas[id] = -1
	}
	return deltas
}
