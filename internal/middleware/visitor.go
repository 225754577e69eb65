// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// VisitorCookieName identifies an anonymous visitor across visits.
	// It carries no identity, only a random id used to key reading
	// history.
	VisitorCookieName = "su_visitor"

	// VisitorKey is the context key for the visitor id.
	VisitorKey contextKey = "visitor"

	visitorTTL = 365 * 24 * time.Hour
)

// Visitor ensures every request carries an anonymous visitor id,
// assigning a new one on first visit, and stores it in the request
// context.
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(VisitorCookieName); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(visitorTTL.Seconds()),
			})
		}

		ctx := context.WithValue(r.Context(), VisitorKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorFromCtx extracts the visitor id from the request context.
func VisitorFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(VisitorKey).(string)
	return id
}
