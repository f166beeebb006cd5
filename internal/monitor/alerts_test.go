package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productpraat/productpraat/internal/models"
)

func TestApplyDeliverySuccess(t *testing.T) {
	soon := time.Now()
	alert := &models.Alert{
		Status:      models.AlertStatusOpen,
		RetryCount:  2,
		MaxRetries:  5,
		NextRetryAt: &soon,
	}

	applyDelivery(alert, nil, 5*time.Minute, time.Now())

	assert.Equal(t, models.AlertStatusResolved, alert.Status)
	assert.Nil(t, alert.NextRetryAt)
	assert.Equal(t, 2, alert.RetryCount, "success does not touch the counter")
}

func TestApplyDeliveryFailureSchedulesRetry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	alert := &models.Alert{Status: models.AlertStatusOpen, MaxRetries: 3}

	applyDelivery(alert, errors.New("smtp down"), 5*time.Minute, now)

	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Equal(t, 1, alert.RetryCount)
	require.NotNil(t, alert.NextRetryAt)
	assert.Equal(t, now.Add(5*time.Minute), *alert.NextRetryAt)
}

func TestApplyDeliveryExhaustsAfterMaxRetries(t *testing.T) {
	alert := &models.Alert{Status: models.AlertStatusOpen, MaxRetries: 3}
	failure := errors.New("smtp down")

	for i := 0; i < 3; i++ {
		applyDelivery(alert, failure, time.Minute, time.Now())
	}

	assert.Equal(t, models.AlertStatusExhausted, alert.Status)
	assert.Equal(t, 3, alert.RetryCount)
	assert.Nil(t, alert.NextRetryAt)
}
