// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"spruceup/internal/models"
	"spruceup/internal/slug"
)

// CategoryStore manages categories and owns the denormalized post_count
// column. Counters are adjusted by commutative increments, never absolute
// sets, so concurrent post mutations can at worst miss a delta — they
// cannot corrupt a total.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, post_count, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description,
		&c.PostCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListOrderedByName returns all categories sorted ascending by name.
// Categories are few; there is no pagination.
func (s *CategoryStore) ListOrderedByName() ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, &models.RepositoryError{Op: "list categories", Err: err}
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, &models.RepositoryError{Op: "scan category", Err: err}
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.RepositoryError{Op: "list categories", Err: err}
	}
	return items, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.RepositoryError{Op: "find category by id", Err: err}
	}
	return c, nil
}

// Create inserts a new category with a slug derived from its name.
// The slug is checked against the currently loaded category set;
// a collision returns models.ErrSlugTaken, which callers treat as a
// silent no-op. The check is best-effort only: two admins creating the
// same category concurrently can both pass it.
func (s *CategoryStore) Create(name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Msg: "is required"}
	}

	sl := slug.Generate(name)
	if err := s.guardSlug(sl, uuid.Nil); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		name, sl, description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, &models.RepositoryError{Op: "create category", Err: err}
	}
	return result, nil
}

// Update modifies a category's name, slug, and description. The slug
// collision guard excludes the record being edited.
func (s *CategoryStore) Update(id uuid.UUID, name, slugValue, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &models.ValidationError{Field: "name", Msg: "is required"}
	}
	if slugValue == "" {
		slugValue = slug.Generate(name)
	}
	if err := s.guardSlug(slugValue, id); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		UPDATE categories SET
			name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`, name, slugValue, description, id)
	if err != nil {
		return &models.RepositoryError{Op: "update category", Err: err}
	}
	return nil
}

// guardSlug scans the loaded category list for a slug collision,
// excluding the record identified by exclude (uuid.Nil for creates).
func (s *CategoryStore) guardSlug(sl string, exclude uuid.UUID) error {
	loaded, err := s.ListOrderedByName()
	if err != nil {
		return err
	}
	for _, c := range loaded {
		if c.Slug == sl && c.ID != exclude {
			return models.ErrSlugTaken
		}
	}
	return nil
}

// Delete removes a category. Posts referencing it are NOT touched:
// their dangling category ids resolve to "unknown category" downstream.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return &models.RepositoryError{Op: "delete category", Err: err}
	}
	return nil
}

// AdjustPostCount applies a single counter delta as create-if-absent
// followed by an atomic increment, so adjusting a counter on a category
// that no longer exists does not fail outright. Transient failures are
// retried briefly; callers treat a final failure as a reconciliation
// warning, never as a failure of the post mutation that triggered it.
func (s *CategoryStore) AdjustPostCount(ctx context.Context, id uuid.UUID, delta int) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.db.Exec(`
			INSERT INTO categories (id, name, slug, post_count)
			VALUES ($1, '', '', $2)
			ON CONFLICT (id)
			DO UPDATE SET post_count = categories.post_count + $2
		`, id, delta)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("adjust post count for %s by %+d: %w", id, delta, err)
	}
	return nil
}

// AdjustPostCounts applies a set of counter deltas independently:
// one failing category does not block the others. All failures are
// aggregated into a single error for warning reporting.
func (s *CategoryStore) AdjustPostCounts(ctx context.Context, deltas map[uuid.UUID]int) error {
	var errs error
	for id, delta := range deltas {
		if delta == 0 {
			continue
		}
		if err := s.AdjustPostCount(ctx, id, delta); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// ReconcilePostCounts recomputes every post_count from the actual
// reference graph. Idempotent and safe to replay; run from the nightly
// job or the admin reconcile endpoint to repair drift accumulated by
// missed best-effort deltas.
func (s *CategoryStore) ReconcilePostCounts() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE categories c SET post_count = sub.n
		FROM (
			SELECT c2.id, COUNT(pc.post_id) AS n
			FROM categories c2
			LEFT JOIN post_categories pc ON pc.category_id = c2.id
			GROUP BY c2.id
		) sub
		WHERE sub.id = c.id AND c.post_count <> sub.n
	`)
	if err != nil {
		return 0, &models.RepositoryError{Op: "reconcile post counts", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &models.RepositoryError{Op: "reconcile post counts", Err: err}
	}
	return affected, nil
}

// Count returns the number of categories.
func (s *CategoryStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count)
	if err != nil {
		return 0, &models.RepositoryError{Op: "count categories", Err: err}
	}
	return count, nil
}
