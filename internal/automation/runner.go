package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/models"
)

// Run kinds stored in automation_runs.
const (
	KindDiscover       = "discover"
	KindGenerate       = "generate"
	KindLinkCheck      = "link_check"
	KindCommissionSync = "commission_sync"
)

// LinkChecker verifies affiliate link health during a link_check run.
type LinkChecker interface {
	CheckLinks(ctx context.Context, run *models.Run) error
}

// CommissionSyncer pulls commission records during a commission_sync run.
type CommissionSyncer interface {
	Sync(ctx context.Context, run *models.Run) error
}

// Runner owns the automation loop. One goroutine schedules due runs into
// the automation_runs table, another claims and executes pending runs.
// Multiple instances can share the table; FOR UPDATE SKIP LOCKED keeps
// each run on one worker.
type Runner struct {
	db          *database.DB
	config      *ConfigService
	pipeline    *Pipeline
	linkChecker LinkChecker
	commissions CommissionSyncer
	logger      *slog.Logger

	pollInterval     time.Duration
	scheduleInterval time.Duration
}

func NewRunner(
	db *database.DB,
	config *ConfigService,
	pipeline *Pipeline,
	linkChecker LinkChecker,
	commissions CommissionSyncer,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		db:               db,
		config:           config,
		pipeline:         pipeline,
		linkChecker:      linkChecker,
		commissions:      commissions,
		logger:           logger.With("component", "runner"),
		pollInterval:     5 * time.Second,
		scheduleInterval: time.Minute,
	}
}

// Start blocks until the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("automation runner started")

	go r.scheduleLoop(ctx)
	r.workLoop(ctx)

	r.logger.Info("automation runner stopped")
}

func (r *Runner) scheduleLoop(ctx context.Context) {
	ticker := time.NewTicker(r.scheduleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scheduleDueRuns(ctx)
		}
	}
}

func (r *Runner) scheduleDueRuns(ctx context.Context) {
	settings, err := r.config.Current(ctx)
	if err != nil {
		r.logger.Error("failed to load settings", "error", err)
		return
	}

	now := time.Now()
	checks := []struct {
		kind string
		due  func(time.Time, *time.Time, *Settings) bool
	}{
		{KindDiscover, ShouldRunDiscovery},
		{KindGenerate, ShouldRunContent},
		{KindLinkCheck, ShouldRunLinkCheck},
		{KindCommissionSync, ShouldRunCommissionSync},
	}

	for _, check := range checks {
		last, err := r.db.LastCompletedRun(ctx, check.kind)
		if err != nil {
			r.logger.Error("failed to read last run", "kind", check.kind, "error", err)
			continue
		}
		var lastRun *time.Time
		if !last.IsZero() {
			lastRun = &last
		}
		if !check.due(now, lastRun, settings) {
			continue
		}

		run := &models.Run{Kind: check.kind, Status: models.RunStatusPending}
		if err := r.db.InsertRun(ctx, run); err != nil {
			r.logger.Error("failed to schedule run", "kind", check.kind, "error", err)
			continue
		}
		r.logger.Info("scheduled run", "kind", check.kind, "run_id", run.ID)
	}
}

func (r *Runner) workLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				run, err := r.db.ClaimNextRun(ctx)
				if err != nil {
					r.logger.Error("failed to claim run", "error", err)
					break
				}
				if run == nil {
					break
				}
				r.execute(ctx, run)
			}
		}
	}
}

func (r *Runner) execute(ctx context.Context, run *models.Run) {
	logger := r.logger.With("run_id", run.ID, "kind", run.Kind)
	logger.Info("run started")

	settings, err := r.config.Current(ctx)
	if err != nil {
		r.fail(ctx, run, err)
		return
	}

	switch run.Kind {
	case KindDiscover:
		err = r.pipeline.Discover(ctx, run, settings)
	case KindGenerate:
		err = r.pipeline.Generate(ctx, run, settings)
	case KindLinkCheck:
		err = r.linkChecker.CheckLinks(ctx, run)
	case KindCommissionSync:
		err = r.commissions.Sync(ctx, run)
	default:
		logger.Error("unknown run kind")
		run.Error = "unknown run kind: " + run.Kind
		run.Status = models.RunStatusFailed
		if ferr := r.db.FinishRun(ctx, run); ferr != nil {
			logger.Error("failed to finish run", "error", ferr)
		}
		return
	}

	if err != nil {
		r.fail(ctx, run, err)
		return
	}

	run.Status = models.RunStatusCompleted
	if err := r.db.FinishRun(ctx, run); err != nil {
		logger.Error("failed to finish run", "error", err)
		return
	}
	logger.Info("run completed",
		"products_found", run.ProductsFound,
		"products_new", run.ProductsNew,
		"articles_generated", run.ArticlesGenerated,
		"items_failed", run.ItemsFailed)
}

func (r *Runner) fail(ctx context.Context, run *models.Run, runErr error) {
	r.logger.Error("run failed", "run_id", run.ID, "kind", run.Kind, "error", runErr)

	run.Status = models.RunStatusFailed
	run.Error = runErr.Error()
	if err := r.db.FinishRun(ctx, run); err != nil {
		r.logger.Error("failed to record run failure", "run_id", run.ID, "error", err)
	}

	alert := &models.Alert{
		Kind:    "run_failed",
		Subject: run.Kind,
		Message: runErr.Error(),
	}
	if err := r.db.InsertAlert(ctx, alert); err != nil {
		r.logger.Error("failed to create alert", "run_id", run.ID, "error", err)
	}
}
