package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func newAuditCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the pipeline audit log",
	}

	cmd.AddCommand(
		newAuditSearchCmd(configPath),
		newAuditStatsCmd(configPath),
		newAuditCleanupCmd(configPath),
	)
	return cmd
}

func newAuditSearchCmd(configPath *string) *cobra.Command {
	var (
		groupID   string
		outcome   string
		since     string
		requestID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			l, err := a.openAuditor()
			if err != nil {
				return err
			}

			opts := models.AuditQueryOpts{
				GroupID:   groupID,
				Outcome:   models.Outcome(outcome),
				RequestID: requestID,
				Limit:     limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			entries, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatAuditEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "filter by group ID")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome (cache_hit, generated, budget_exceeded, failed, rejected)")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&requestID, "request-id", "", "filter by request ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries to return")

	return cmd
}

func newAuditStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show audit counts by outcome and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			l, err := a.openAuditor()
			if err != nil {
				return err
			}
			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatAuditStats(stats))
			return nil
		},
	}
}

func newAuditCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete audit entries older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			l, err := a.openAuditor()
			if err != nil {
				return err
			}
			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d audit entries.\n", deleted)
			return nil
		},
	}
}

func formatAuditEntries(entries []models.AuditEntry) string {
	if len(entries) == 0 {
		return "No audit entries found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-12s %-16s %-16s %-24s %8s %-20s\n",
		"REQUEST ID", "GROUP", "CALLER", "OUTCOME", "KEY", "LATENCY", "TIME")
	b.WriteString(strings.Repeat("-", 140) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-38s %-12s %-16s %-16s %-24s %6dms %-20s\n",
			e.RequestID, e.GroupID, e.CallerName, e.Outcome, e.NormalizedKey,
			e.LatencyMs, e.CreatedAt.Format("2006-01-02 15:04:05"))
		if e.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", e.Error)
		}
	}
	return b.String()
}

func formatAuditStats(stats []models.AuditStat) string {
	if len(stats) == 0 {
		return "No audit stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-12s %8s\n", "OUTCOME", "DAY", "COUNT")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-18s %-12s %8d\n", s.Outcome, s.Day, s.Count)
	}
	return b.String()
}
