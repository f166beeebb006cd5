package models

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugInvalid = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugRepeats = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL-friendly slug, capped at 100 characters.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugRepeats.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 100 {
		slug = slug[:100]
		slug = strings.TrimRight(slug, "-")
	}
	return slug
}

// SlugWithSuffix appends a numeric suffix for collision handling, keeping
// the result within the 100-character cap.
func SlugWithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > 100 {
		base = strings.TrimRight(base[:100-len(suffix)], "-")
	}
	return base + suffix
}
