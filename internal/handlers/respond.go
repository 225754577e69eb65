// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the public JSON API
// and the admin console API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spruceup/internal/models"
)

// maxBodyBytes caps JSON request bodies. Post content is rich HTML and
// can be large; anything beyond this is abuse.
const maxBodyBytes = 2 << 20

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// respondError writes a JSON error body with the given status.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondStoreError maps a store error to an HTTP response: validation
// problems become 400s with the message exposed, everything else is a
// logged 500.
func respondStoreError(w http.ResponseWriter, op string, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	slog.Error(op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
