// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a content category. Posts reference categories
// many-to-many; PostCount is a denormalized counter maintained by
// increments on every post mutation, so it tracks the true reference
// count only approximately until the next reconciliation run.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PostCount   int       `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnknownCategoryName is what consumers render for a dangling category
// reference left behind by a category deletion (no cascade).
const UnknownCategoryName = "unknown category"

// CategoryNameForID resolves a category id against a loaded category list.
// Dangling ids resolve to UnknownCategoryName.
func CategoryNameForID(cats []Category, id uuid.UUID) string {
	for _, c := range cats {
		if c.ID == id {
			return c.Name
		}
	}
	return UnknownCategoryName
}
