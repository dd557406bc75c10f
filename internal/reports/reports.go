// Package reports runs a cron-driven activity snapshot: session and
// escalation counts are logged and exported as gauges so dashboards see
// queue depth without polling the admin API.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"helpdesk/pkg/config"
	"helpdesk/pkg/logger"
	"helpdesk/pkg/metrics"
	"helpdesk/pkg/store"
)

// Start starts the reports scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	if !cfg.Reports.Enabled {
		logger.Info("reports_disabled")
		return func() {}, nil
	}

	// default hourly at minute 0
	cronExpr := cfg.Reports.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("reports_invalid_cron", "cron", cfg.Reports.Cron)
		return nil, fmt.Errorf("invalid reports cron expression: %s", cfg.Reports.Cron)
	}

	logger.Info("reports_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr)
	return cancel, nil
}

// RunOnce computes one snapshot immediately. Exposed so tests and admin
// triggers can force a report.
func RunOnce() error {
	st, err := store.ComputeStats()
	if err != nil {
		return err
	}
	open := st.PendingEscalations + st.InProgress
	metrics.OpenEscalations.Set(float64(open))
	metrics.HighPriorityOpen.Set(float64(st.HighPriorityOpen))
	logger.Info("activity_report",
		"sessions_total", st.TotalSessions,
		"sessions_active", st.ActiveSessions,
		"sessions_escalated", st.EscalatedSessions,
		"sessions_resolved", st.ResolvedSessions,
		"sessions_recent", st.RecentSessions,
		"escalations_total", st.TotalEscalations,
		"escalations_open", open,
		"escalations_high_priority", st.HighPriorityOpen,
		"escalations_recent", st.RecentEscalations,
	)
	return nil
}

// runScheduler uses gronx to compute the next tick for the configured
// cron expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("reports_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("reports_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			if err := RunOnce(); err != nil {
				logger.Error("reports_run_error", "error", err)
			}
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			if err := RunOnce(); err != nil {
				logger.Error("reports_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("reports_scheduler_stopping")
			return
		}
	}
}
