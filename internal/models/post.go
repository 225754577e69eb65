// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a blog post. Content is rich HTML produced by the
// admin editor. CreatedAt is user-editable and is the sole sort key for
// every feed. MainImgPath is the object-storage key of the hero image,
// kept alongside the URL because deletion needs the original key.
type Post struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	MainImg     string      `json:"main_img"`
	MainImgPath string      `json:"main_img_path,omitempty"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	Tags        []string    `json:"tags"`
	Views       int         `json:"views"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SliderSlot is one entry in the home-page hero rotation, with optional
// textual overrides for the post's own title/description.
type SliderSlot struct {
	PostID        uuid.UUID `json:"post_id"`
	TitleOverride string    `json:"title_override,omitempty"`
	TextOverride  string    `json:"text_override,omitempty"`
}

// SliderConfig is the singleton home-page slider configuration.
// Slot order is display order.
type SliderConfig struct {
	Slots []SliderSlot `json:"slots"`
}

// PostIDs returns the slider's post ids in display order.
func (s *SliderConfig) PostIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Slots))
	for _, slot := range s.Slots {
		ids = append(ids, slot.PostID)
	}
	return ids
}

// MenuItem is one entry of the site navigation menu.
type MenuItem struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	External bool   `json:"external,omitempty"`
}

// Menu is the singleton ordered navigation menu.
type Menu struct {
	Items []MenuItem `json:"items"`
}
