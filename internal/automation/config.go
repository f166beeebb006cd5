package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/productpraat/productpraat/internal/database"
)

// Settings is the operator-editable automation configuration. It is stored
// as one JSON blob in the automation_config table, with a local file
// fallback for when the database is unreachable at startup.
type Settings struct {
	Discovery      DiscoverySettings      `json:"discovery"`
	Content        ContentSettings        `json:"content"`
	LinkCheck      LinkCheckSettings      `json:"linkCheck"`
	CommissionSync CommissionSyncSettings `json:"commissionSync"`
}

type DiscoverySettings struct {
	Enabled        bool     `json:"enabled"`
	ProductsPerDay int      `json:"productsPerDay" validate:"min=0,max=10"`
	Categories     []string `json:"categories"`
	RunHour        int      `json:"runHour" validate:"min=0,max=23"`
}

type ContentSettings struct {
	Enabled        bool `json:"enabled"`
	ArticlesPerRun int  `json:"articlesPerRun" validate:"min=0,max=20"`
	RunHour        int  `json:"runHour" validate:"min=0,max=23"`
	PublishDrafts  bool `json:"publishDrafts"`
}

type LinkCheckSettings struct {
	Enabled      bool `json:"enabled"`
	IntervalDays int  `json:"intervalDays" validate:"min=1,max=30"`
}

type CommissionSyncSettings struct {
	Enabled       bool `json:"enabled"`
	IntervalHours int  `json:"intervalHours" validate:"min=1,max=168"`
}

// DefaultSettings returns the configuration a fresh install runs with.
func DefaultSettings() *Settings {
	return &Settings{
		Discovery: DiscoverySettings{
			Enabled:        true,
			ProductsPerDay: 5,
			Categories:     []string{"tech", "home"},
			RunHour:        6,
		},
		Content: ContentSettings{
			Enabled:        true,
			ArticlesPerRun: 3,
			RunHour:        7,
			PublishDrafts:  false,
		},
		LinkCheck: LinkCheckSettings{
			Enabled:      true,
			IntervalDays: 1,
		},
		CommissionSync: CommissionSyncSettings{
			Enabled:       true,
			IntervalHours: 6,
		},
	}
}

// ConfigService loads and saves automation settings, merging stored values
// over the defaults so new fields pick up their default.
type ConfigService struct {
	db       *database.DB
	filePath string
	validate *validator.Validate
	logger   *slog.Logger

	mu      sync.RWMutex
	current *Settings
}

func NewConfigService(db *database.DB, filePath string, logger *slog.Logger) *ConfigService {
	return &ConfigService{
		db:       db,
		filePath: filePath,
		validate: validator.New(),
		logger:   logger.With("component", "automation_config"),
	}
}

// Load returns the active settings: database first, local file second,
// defaults last.
func (s *ConfigService) Load(ctx context.Context) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.LoadConfigJSON(ctx)
	if err != nil {
		s.logger.Warn("failed to load config from database, trying file", "error", err)
		raw = s.loadFile()
	} else if raw == nil {
		raw = s.loadFile()
	}

	settings := DefaultSettings()
	if raw != nil {
		if err := json.Unmarshal(raw, settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal automation config: %w", err)
		}
	}

	if err := s.Validate(settings); err != nil {
		return nil, err
	}

	s.current = settings
	return settings, nil
}

// Save validates and persists settings to the database and the file
// fallback.
func (s *ConfigService) Save(ctx context.Context, settings *Settings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal automation config: %w", err)
	}

	if err := s.db.SaveConfigJSON(ctx, raw); err != nil {
		return err
	}

	s.saveFile(raw)

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	return nil
}

// Current returns the last loaded settings, loading on first use.
func (s *ConfigService) Current(ctx context.Context) (*Settings, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current != nil {
		return current, nil
	}
	return s.Load(ctx)
}

// Validate checks field ranges.
func (s *ConfigService) Validate(settings *Settings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid automation config: %w", err)
	}
	return nil
}

func (s *ConfigService) loadFile() json.RawMessage {
	if s.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil
	}
	return data
}

func (s *ConfigService) saveFile(raw []byte) {
	if s.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		s.logger.Warn("failed to create config dir", "error", err)
		return
	}
	if err := os.WriteFile(s.filePath, raw, 0o644); err != nil {
		s.logger.Warn("failed to write config file", "error", err)
	}
}
