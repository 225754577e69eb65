package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator for request payloads.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validation limits for post and category fields.
const (
	maxTitleLen       = 300
	maxDescriptionLen = 1_000
	maxContentLen     = 500_000
	maxNameLen        = 200
	maxTagLen         = 100
	maxTags           = 20
)

// validatePostInput checks post payload fields and returns the first
// problem found, or "".
func validatePostInput(title, description, content string, tags []string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if strings.TrimSpace(description) == "" {
		return "Description is required."
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)."
	}
	if strings.TrimSpace(content) == "" {
		return "Content is required."
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 500,000 characters)."
	}
	if len(tags) > maxTags {
		return "Too many tags (max 20)."
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLen {
			return "Tag is too long (max 100 characters)."
		}
	}
	return ""
}

// validateCategoryInput checks category payload fields.
func validateCategoryInput(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 200 characters)."
	}
	return ""
}
