package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/config"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func tempCfg(t *testing.T) config.AuditConfig {
	t.Helper()
	return config.AuditConfig{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "audit_test.db"),
		RetentionDays: 90,
	}
}

func mustNew(t *testing.T, cfg config.AuditConfig) *Logger {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleEntry() models.AuditEntry {
	return models.AuditEntry{
		RequestID:     "req-001",
		GroupID:       "g1",
		CallerName:    "Ana",
		SubjectText:   "Taco Night!!",
		NormalizedKey: "taco night",
		Outcome:       models.OutcomeGenerated,
		ArtifactURL:   "http://localhost:8080/objects/meal-covers/event-covers/taco-night.png",
		LatencyMs:     1500,
		CreatedAt:     time.Now(),
	}
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	if err := l.Log(ctx, sampleEntry()); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := l.Query(ctx, models.AuditQueryOpts{GroupID: "g1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.RequestID != "req-001" || e.Outcome != models.OutcomeGenerated || e.NormalizedKey != "taco night" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.LatencyMs != 1500 {
		t.Errorf("expected latency 1500, got %d", e.LatencyMs)
	}
}

func TestQueryFilters(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleEntry())
	e2 := sampleEntry()
	e2.RequestID = "req-002"
	e2.GroupID = "g2"
	e2.Outcome = models.OutcomeBudgetExceeded
	e2.ArtifactURL = ""
	_ = l.Log(ctx, e2)

	tests := []struct {
		name string
		opts models.AuditQueryOpts
		want int
	}{
		{"all", models.AuditQueryOpts{}, 2},
		{"request id", models.AuditQueryOpts{RequestID: "req-002"}, 1},
		{"outcome", models.AuditQueryOpts{Outcome: models.OutcomeBudgetExceeded}, 1},
		{"group miss", models.AuditQueryOpts{GroupID: "nope"}, 0},
		{"since future", models.AuditQueryOpts{Since: time.Now().Add(time.Hour)}, 0},
		{"limit", models.AuditQueryOpts{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.Query(ctx, tt.opts)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}
}

func TestSubjectDroppedByDefault(t *testing.T) {
	ctx := context.Background()

	l := mustNew(t, tempCfg(t))
	_ = l.Log(ctx, sampleEntry())
	entries, _ := l.Query(ctx, models.AuditQueryOpts{RequestID: "req-001"})
	if entries[0].SubjectText != "" {
		t.Errorf("expected subject dropped, got %q", entries[0].SubjectText)
	}

	cfg := tempCfg(t)
	cfg.StoreSubject = true
	l = mustNew(t, cfg)
	_ = l.Log(ctx, sampleEntry())
	entries, _ = l.Query(ctx, models.AuditQueryOpts{RequestID: "req-001"})
	if entries[0].SubjectText != "Taco Night!!" {
		t.Errorf("expected subject kept, got %q", entries[0].SubjectText)
	}
}

func TestCleanup(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RetentionDays = 0 // everything is old
	l := mustNew(t, cfg)
	ctx := context.Background()

	entry := sampleEntry()
	entry.CreatedAt = time.Now().AddDate(0, 0, -1)
	_ = l.Log(ctx, entry)

	deleted, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleEntry())
	e2 := sampleEntry()
	e2.RequestID = "req-002"
	_ = l.Log(ctx, e2)

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat row, got %d", len(stats))
	}
	if stats[0].Count != 2 || stats[0].Outcome != models.OutcomeGenerated {
		t.Errorf("unexpected stat %+v", stats[0])
	}
	if stats[0].Day != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("unexpected day %q", stats[0].Day)
	}
}

func TestDuplicateRequestIDKeepsFirst(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	if err := l.Log(ctx, sampleEntry()); err != nil {
		t.Fatalf("Log: %v", err)
	}
	forged := sampleEntry()
	forged.GroupID = "g2"
	forged.Outcome = models.OutcomeFailed
	if err := l.Log(ctx, forged); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}

	entries, err := l.Query(ctx, models.AuditQueryOpts{RequestID: "req-001"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].GroupID != "g1" || entries[0].Outcome != models.OutcomeGenerated {
		t.Errorf("original entry overwritten: %+v", entries)
	}
}

func TestNilLoggerSafe(t *testing.T) {
	var l *Logger
	if err := l.Log(context.Background(), sampleEntry()); err != nil {
		t.Errorf("nil logger should be safe: %v", err)
	}
}

func TestNewInvalidPath(t *testing.T) {
	cfg := config.AuditConfig{
		Enabled: true,
		DBPath:  filepath.Join(os.TempDir(), "nonexistent", "deep", "path", "audit.db"),
	}
	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for invalid path")
	}
}
