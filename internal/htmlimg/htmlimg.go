// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package htmlimg extracts image URLs from stored post HTML so that
// uploads no longer referenced after an edit can be cleaned up.
package htmlimg

import (
	"regexp"

	"github.com/samber/lo"
)

// Matches the src attribute of img tags as produced by the editor:
// double-quoted, no embedded quotes.
var imgSrc = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// Extract returns the distinct img src URLs in order of appearance.
func Extract(html string) []string {
	var urls []string
	for _, m := range imgSrc.FindAllStringSubmatch(html, -1) {
		urls = append(urls, m[1])
	}
	if len(urls) == 0 {
		return nil
	}
	return lo.Uniq(urls)
}

// Removed returns the image URLs present in oldHTML but absent from
// newHTML. These are safe to delete from storage once the edit is saved.
func Removed(oldHTML, newHTML string) []string {
	return lo.Without(Extract(oldHTML), Extract(newHTML)...)
}
