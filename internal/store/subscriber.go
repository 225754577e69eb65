// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"strings"

	"spruceup/internal/models"
)

// SubscriberStore manages newsletter signups. Emails are stored
// normalized (trimmed, lowercased) and deduplicated case-insensitively.
type SubscriberStore struct {
	db *sql.DB
}

// NewSubscriberStore returns a new SubscriberStore.
func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

// Add records a newsletter signup. Returns (false, nil) if the email is
// already subscribed, (true, nil) on a fresh signup.
func (s *SubscriberStore) Add(sub models.Subscriber) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" {
		return false, &models.ValidationError{Field: "email", Msg: "is required"}
	}
	if sub.Source == "" {
		sub.Source = "newsletter-signup"
	}

	res, err := s.db.Exec(`
		INSERT INTO newsletter_subscribers (email, source, user_agent, page_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LOWER(email)) DO NOTHING
	`, email, sub.Source, sub.UserAgent, sub.PageURL)
	if err != nil {
		return false, &models.RepositoryError{Op: "add subscriber", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &models.RepositoryError{Op: "add subscriber", Err: err}
	}
	return n > 0, nil
}

// Count returns the number of subscribers.
func (s *SubscriberStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM newsletter_subscribers`).Scan(&count)
	if err != nil {
		return 0, &models.RepositoryError{Op: "count subscribers", Err: err}
	}
	return count, nil
}
