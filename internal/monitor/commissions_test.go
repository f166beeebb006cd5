package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/productpraat/productpraat/internal/affiliate"
	"github.com/productpraat/productpraat/internal/models"
)

func TestMapBolStatus(t *testing.T) {
	tests := []struct {
		in   string
		want models.CommissionStatus
	}{
		{"OPEN", models.CommissionStatusOpen},
		{"APPROVED", models.CommissionStatusApproved},
		{"approved", models.CommissionStatusApproved},
		{"REJECTED", models.CommissionStatusRejected},
		{"PAID", models.CommissionStatusPaid},
		{"SOMETHING_NEW", models.CommissionStatusOpen},
		{"", models.CommissionStatusOpen},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapBolStatus(tt.in), "status %q", tt.in)
	}
}

func TestSourcesComposition(t *testing.T) {
	bol := affiliate.NewBolClient("", "", 0)
	sources := Sources(bol, []string{"tradetracker", "daisycon", "bol"})

	networks := make([]string, len(sources))
	for i, s := range sources {
		networks[i] = s.Network()
	}

	// Bol appears once even when listed as an extra network.
	assert.Equal(t, []string{"bol", "tradetracker", "daisycon"}, networks)
}

func TestBolSourceRequiresCredentials(t *testing.T) {
	source := NewBolSource(affiliate.NewBolClient("", "", 0), 0)

	_, err := source.FetchCommissions(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStubSourceReturnsNothing(t *testing.T) {
	stub := NewStubSource("daisycon")

	records, err := stub.FetchCommissions(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
}
