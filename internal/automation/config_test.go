package automation

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigService() *ConfigService {
	return NewConfigService(nil, "", slog.Default())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	svc := newTestConfigService()
	assert.NoError(t, svc.Validate(DefaultSettings()))
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{
			name:   "products per day too high",
			mutate: func(s *Settings) { s.Discovery.ProductsPerDay = 11 },
		},
		{
			name:   "products per day negative",
			mutate: func(s *Settings) { s.Discovery.ProductsPerDay = -1 },
		},
		{
			name:   "run hour out of range",
			mutate: func(s *Settings) { s.Discovery.RunHour = 24 },
		},
		{
			name:   "articles per run too high",
			mutate: func(s *Settings) { s.Content.ArticlesPerRun = 21 },
		},
		{
			name:   "link check interval zero",
			mutate: func(s *Settings) { s.LinkCheck.IntervalDays = 0 },
		},
		{
			name:   "commission sync interval too long",
			mutate: func(s *Settings) { s.CommissionSync.IntervalHours = 200 },
		},
	}

	svc := newTestConfigService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(settings)
			assert.Error(t, svc.Validate(settings))
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	original := DefaultSettings()
	original.Discovery.ProductsPerDay = 7
	original.Discovery.Categories = []string{"keukens"}
	original.Content.PublishDrafts = true

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Settings
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, *original, restored)
}

func TestPartialConfigMergesOverDefaults(t *testing.T) {
	raw := []byte(`{"discovery": {"enabled": true, "productsPerDay": 2, "runHour": 9}}`)

	settings := DefaultSettings()
	require.NoError(t, json.Unmarshal(raw, settings))

	assert.Equal(t, 2, settings.Discovery.ProductsPerDay)
	assert.Equal(t, 9, settings.Discovery.RunHour)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultSettings().Content, settings.Content)
	assert.Equal(t, DefaultSettings().LinkCheck, settings.LinkCheck)
}
