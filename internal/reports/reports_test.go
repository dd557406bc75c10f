package reports

import (
	"context"
	"testing"
	"time"

	"helpdesk/pkg/config"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
)

func TestRunOnce(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now().UTC().UnixNano()
	if err := store.SaveSession(models.Session{Token: "t1", Status: models.SessionEscalated, CreatedTS: now}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := store.SaveEscalation(models.Escalation{
		ID: "e1", SessionToken: "t1",
		Status: models.EscalationPending, Priority: models.PriorityHigh, CreatedTS: now,
	}); err != nil {
		t.Fatalf("SaveEscalation: %v", err)
	}

	if err := RunOnce(); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
}

func TestStartValidatesCron(t *testing.T) {
	cfg := &config.Config{}
	cfg.Reports.Enabled = true
	cfg.Reports.Cron = "not a cron"
	if _, err := Start(context.Background(), cfg); err == nil {
		t.Fatalf("invalid cron must be rejected")
	}

	cfg.Reports.Enabled = false
	cancel, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("disabled reports should be a no-op: %v", err)
	}
	cancel()
}
