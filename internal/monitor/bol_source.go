package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/productpraat/productpraat/internal/affiliate"
	"github.com/productpraat/productpraat/internal/models"
)

// BolSource syncs commissions from the Bol partner reporting API.
type BolSource struct {
	client   *affiliate.BolClient
	lookback time.Duration
}

func NewBolSource(client *affiliate.BolClient, lookback time.Duration) *BolSource {
	if lookback == 0 {
		lookback = 30 * 24 * time.Hour
	}
	return &BolSource{client: client, lookback: lookback}
}

func (s *BolSource) Network() string { return string(affiliate.NetworkBol) }

func (s *BolSource) FetchCommissions(ctx context.Context) ([]*models.CommissionRecord, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}

	since := time.Now().Add(-s.lookback)
	commissions, err := s.client.FetchCommissions(ctx, since)
	if err != nil {
		return nil, err
	}

	records := make([]*models.CommissionRecord, 0, len(commissions))
	for _, c := range commissions {
		occurred, err := time.Parse("2006-01-02", c.OrderDate)
		if err != nil {
			occurred = time.Now()
		}
		records = append(records, &models.CommissionRecord{
			Network:    string(affiliate.NetworkBol),
			ExternalID: c.OrderItemID,
			Amount:     c.Commission,
			Currency:   "EUR",
			Status:     mapBolStatus(c.Status),
			OccurredAt: occurred,
		})
	}

	return records, nil
}

func mapBolStatus(status string) models.CommissionStatus {
	switch strings.ToUpper(status) {
	case "APPROVED":
		return models.CommissionStatusApproved
	case "REJECTED":
		return models.CommissionStatusRejected
	case "PAID":
		return models.CommissionStatusPaid
	default:
		return models.CommissionStatusOpen
	}
}

var _ CommissionSource = (*BolSource)(nil)

// Sources builds the commission source list for the configured networks.
// Only Bol has a reporting API integration; other networks get a stub so
// the sync loop still reports them.
func Sources(bol *affiliate.BolClient, extraNetworks []string) []CommissionSource {
	sources := []CommissionSource{NewBolSource(bol, 0)}
	for _, network := range extraNetworks {
		if network == string(affiliate.NetworkBol) {
			continue
		}
		sources = append(sources, NewStubSource(network))
	}
	return sources
}
