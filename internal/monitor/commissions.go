package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/models"
)

// CommissionSource fetches commission records from one affiliate network.
// Bol has a real reporting API; the other Dutch networks expose CSV or
// portal exports only, so their sources return nothing until an API
// integration lands.
type CommissionSource interface {
	Network() string
	FetchCommissions(ctx context.Context) ([]*models.CommissionRecord, error)
}

// CommissionMonitor syncs commission records from all configured sources
// into the commission_records table. Upserts are keyed on network plus
// external id, so repeated syncs are idempotent.
type CommissionMonitor struct {
	db      *database.DB
	sources []CommissionSource
	logger  *slog.Logger
}

func NewCommissionMonitor(db *database.DB, sources []CommissionSource, logger *slog.Logger) *CommissionMonitor {
	return &CommissionMonitor{
		db:      db,
		sources: sources,
		logger:  logger.With("component", "commission_monitor"),
	}
}

// Sync pulls each source once. A failing source raises an alert but does
// not stop the others.
func (m *CommissionMonitor) Sync(ctx context.Context, run *models.Run) error {
	for _, source := range m.sources {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		records, err := source.FetchCommissions(ctx)
		if err != nil {
			run.ItemsFailed++
			m.logger.Error("commission sync failed", "network", source.Network(), "error", err)

			alert := &models.Alert{
				Kind:    "sync_failed",
				Subject: source.Network(),
				Message: err.Error(),
			}
			if aerr := m.db.InsertAlert(ctx, alert); aerr != nil {
				m.logger.Error("failed to create sync alert", "network", source.Network(), "error", aerr)
			}
			continue
		}

		for _, record := range records {
			if err := m.db.UpsertCommission(ctx, record); err != nil {
				run.ItemsFailed++
				m.logger.Error("failed to store commission",
					"network", record.Network, "external_id", record.ExternalID, "error", err)
				continue
			}
			run.ProductsFound++
		}

		m.logger.Info("commission source synced", "network", source.Network(), "records", len(records))
	}

	return nil
}

// StubSource is a placeholder for networks without a reporting API yet.
type StubSource struct {
	network string
}

func NewStubSource(network string) *StubSource {
	return &StubSource{network: network}
}

func (s *StubSource) Network() string { return s.network }

func (s *StubSource) FetchCommissions(ctx context.Context) ([]*models.CommissionRecord, error) {
	return nil, nil
}

var _ CommissionSource = (*StubSource)(nil)

// ErrNotConfigured is returned by sources missing their credentials.
var ErrNotConfigured = fmt.Errorf("commission source is not configured")
