package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/models"
)

// Notifier delivers an alert to an operator channel. A delivery error
// leaves the alert open for a later retry.
type Notifier interface {
	Notify(ctx context.Context, alert *models.Alert) error
}

// LogNotifier writes alerts to the structured log. It is the default
// sink until a mail or chat integration is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "alerts")}
}

func (n *LogNotifier) Notify(ctx context.Context, alert *models.Alert) error {
	n.logger.Warn("alert", "kind", alert.Kind, "subject", alert.Subject, "message", alert.Message)
	return nil
}

// AlertDispatcher delivers open alerts with a linear retry backoff. An
// alert that exhausts its retries is parked so it stops flooding the
// notifier.
type AlertDispatcher struct {
	db         *database.DB
	notifier   Notifier
	logger     *slog.Logger
	retryDelay time.Duration
	interval   time.Duration
}

func NewAlertDispatcher(db *database.DB, notifier Notifier, retryDelay time.Duration, logger *slog.Logger) *AlertDispatcher {
	if retryDelay == 0 {
		retryDelay = 5 * time.Minute
	}
	return &AlertDispatcher{
		db:         db,
		notifier:   notifier,
		logger:     logger.With("component", "alert_dispatcher"),
		retryDelay: retryDelay,
		interval:   time.Minute,
	}
}

// Start blocks until the context is cancelled.
func (d *AlertDispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchDue(ctx); err != nil {
				d.logger.Error("alert dispatch failed", "error", err)
			}
		}
	}
}

// DispatchDue processes one batch of due alerts.
func (d *AlertDispatcher) DispatchDue(ctx context.Context) error {
	alerts, err := d.db.ListDueAlerts(ctx, 50)
	if err != nil {
		return err
	}

	for _, alert := range alerts {
		d.dispatch(ctx, alert)
	}
	return nil
}

func (d *AlertDispatcher) dispatch(ctx context.Context, alert *models.Alert) {
	err := d.notifier.Notify(ctx, alert)
	applyDelivery(alert, err, d.retryDelay, time.Now())

	switch alert.Status {
	case models.AlertStatusExhausted:
		d.logger.Error("alert delivery exhausted", "alert_id", alert.ID, "error", err)
	case models.AlertStatusOpen:
		d.logger.Warn("alert delivery failed, will retry",
			"alert_id", alert.ID, "retry", alert.RetryCount, "error", err)
	}

	if err := d.db.UpdateAlert(ctx, alert); err != nil {
		d.logger.Error("failed to update alert", "alert_id", alert.ID, "error", err)
	}
}

// applyDelivery advances the alert state machine after a delivery attempt.
// Failed attempts increment the retry counter linearly until the alert is
// exhausted.
func applyDelivery(alert *models.Alert, deliveryErr error, retryDelay time.Duration, now time.Time) {
	if deliveryErr == nil {
		alert.Status = models.AlertStatusResolved
		alert.NextRetryAt = nil
		return
	}

	alert.RetryCount++
	if alert.Exhausted() {
		alert.Status = models.AlertStatusExhausted
		alert.NextRetryAt = nil
		return
	}
	next := now.Add(retryDelay)
	alert.NextRetryAt = &next
}
