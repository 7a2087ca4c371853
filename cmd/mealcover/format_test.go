package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func TestFormatAuditEntries(t *testing.T) {
	if got := formatAuditEntries(nil); got != "No audit entries found.\n" {
		t.Errorf("unexpected empty output %q", got)
	}

	out := formatAuditEntries([]models.AuditEntry{{
		RequestID:     "req-1",
		GroupID:       "g1",
		CallerName:    "Ana",
		Outcome:       models.OutcomeFailed,
		NormalizedKey: "taco night",
		Error:         "image generation failed",
		LatencyMs:     42,
		CreatedAt:     time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
	}})
	for _, want := range []string{"req-1", "taco night", "failed", "42ms", "2026-03-01 18:30:00", "error: image generation failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatAuditStats(t *testing.T) {
	out := formatAuditStats([]models.AuditStat{{Outcome: models.OutcomeCacheHit, Day: "2026-03-01", Count: 7}})
	if !strings.Contains(out, "cache_hit") || !strings.Contains(out, "7") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteBudgetStatus(t *testing.T) {
	var buf bytes.Buffer
	err := writeBudgetStatus(&buf, "sqlite", models.BudgetStatus{
		State:     models.BudgetState{UnitsGenerated: 2, TotalCostMicros: 78_000},
		Cap:       50,
		UnitCost:  0.039,
		Remaining: 49.922,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "0.078000") || !strings.Contains(out, "never") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteGroups(t *testing.T) {
	var buf bytes.Buffer
	groups := []models.Group{{ID: "g1", Members: []models.Member{{DisplayName: "Ana"}, {DisplayName: "Ben"}}}}
	if err := writeGroups(&buf, groups); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Ana, Ben") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteCacheEntries(t *testing.T) {
	var buf bytes.Buffer
	writeCacheEntries(&buf, "taco night", []models.CacheEntry{
		{NormalizedKey: "taco night", ArtifactURL: "http://x/first.png"},
		{NormalizedKey: "taco night", ArtifactURL: "http://x/second.png"},
	})
	if !strings.Contains(buf.String(), "* ") || !strings.Contains(buf.String(), "first.png") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
