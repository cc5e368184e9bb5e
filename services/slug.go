package services

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	slugRX       = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Slugify derives a URL-safe slug from a human-readable title: lowercase,
// strip everything outside letters/digits/whitespace/hyphens, collapse
// whitespace runs to single hyphens. Deterministic.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is a well-formed taxonomy slug.
func ValidSlug(s string) bool {
	return slugRX.MatchString(s)
}
