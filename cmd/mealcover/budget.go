package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func newBudgetCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect the global generation budget",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show spend against the cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			status, err := ledger.Status(context.Background())
			if err != nil {
				return err
			}
			return writeBudgetStatus(os.Stdout, a.cfg.Budget.Backend, status)
		},
	}

	cmd.AddCommand(statusCmd)
	return cmd
}

func writeBudgetStatus(out io.Writer, backend string, s models.BudgetStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tUNITS\tSPENT\tCAP\tUNIT COST\tREMAINING\tLAST UPDATED")
	updated := "never"
	if s.Exists {
		updated = s.State.LastUpdated.Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(w, "%s\t%d\t%.6f\t%.6f\t%.6f\t%.6f\t%s\n",
		backend, s.State.UnitsGenerated, s.State.TotalCostSpent(), s.Cap, s.UnitCost, s.Remaining, updated)
	return w.Flush()
}
