package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)

	// 01:30 local is still the previous day in UTC.
	now := time.Date(2026, time.July, 14, 1, 30, 0, 0, loc)
	got := startOfDay(now)

	assert.Equal(t, time.Date(2026, time.July, 14, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
	assert.NotEqual(t, now.Truncate(24*time.Hour), got)
}

func TestStartOfDayIdempotent(t *testing.T) {
	loc := time.FixedZone("CET", 1*60*60)
	midnight := time.Date(2026, time.January, 2, 0, 0, 0, 0, loc)

	assert.Equal(t, midnight, startOfDay(midnight))
}
