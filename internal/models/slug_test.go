package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Philips Airfryer XXL", "philips-airfryer-xxl"},
		{"Koffie & Thee!  Set", "koffie-thee-set"},
		{"  --Sale--  ", "sale"},
		{"Érgonomische Bureaustoel", "érgonomische-bureaustoel"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	slug := Slugify(strings.Repeat("wasmachine ", 20))
	assert.LessOrEqual(t, len(slug), 100)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugWithSuffix(t *testing.T) {
	assert.Equal(t, "philips-airfryer-2", SlugWithSuffix("philips-airfryer", 2))
	assert.Equal(t, "philips-airfryer-13", SlugWithSuffix("philips-airfryer", 13))
}

func TestSlugWithSuffixKeepsCap(t *testing.T) {
	base := Slugify(strings.Repeat("wasmachine ", 20))

	suffixed := SlugWithSuffix(base, 42)
	assert.LessOrEqual(t, len(suffixed), 100)
	assert.True(t, strings.HasSuffix(suffixed, "-42"))
	assert.NotContains(t, suffixed, "--")
}