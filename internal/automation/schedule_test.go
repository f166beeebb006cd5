package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestShouldRunDiscovery(t *testing.T) {
	settings := DefaultSettings()
	settings.Discovery.RunHour = 6

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		lastRun *time.Time
		want    bool
	}{
		{
			name: "before run hour",
			now:  day.Add(5 * time.Hour),
			want: false,
		},
		{
			name: "after run hour, never ran",
			now:  day.Add(7 * time.Hour),
			want: true,
		},
		{
			name:    "after run hour, ran yesterday",
			now:     day.Add(7 * time.Hour),
			lastRun: timePtr(day.Add(-17 * time.Hour)),
			want:    true,
		},
		{
			name:    "already ran today",
			now:     day.Add(9 * time.Hour),
			lastRun: timePtr(day.Add(6*time.Hour + 10*time.Minute)),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRunDiscovery(tt.now, tt.lastRun, settings))
		})
	}
}

func TestShouldRunDiscoveryDisabled(t *testing.T) {
	settings := DefaultSettings()
	settings.Discovery.Enabled = false

	now := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.False(t, ShouldRunDiscovery(now, nil, settings))
}

func TestShouldRunLinkCheck(t *testing.T) {
	settings := DefaultSettings()
	settings.LinkCheck.IntervalDays = 1

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRunLinkCheck(now, nil, settings), "never ran")
	assert.True(t, ShouldRunLinkCheck(now, timePtr(now.Add(-25*time.Hour)), settings), "interval passed")
	assert.False(t, ShouldRunLinkCheck(now, timePtr(now.Add(-2*time.Hour)), settings), "too recent")

	settings.LinkCheck.Enabled = false
	assert.False(t, ShouldRunLinkCheck(now, nil, settings), "disabled")
}

func TestShouldRunCommissionSync(t *testing.T) {
	settings := DefaultSettings()
	settings.CommissionSync.IntervalHours = 6

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRunCommissionSync(now, nil, settings))
	assert.True(t, ShouldRunCommissionSync(now, timePtr(now.Add(-7*time.Hour)), settings))
	assert.False(t, ShouldRunCommissionSync(now, timePtr(now.Add(-time.Hour)), settings))
}
