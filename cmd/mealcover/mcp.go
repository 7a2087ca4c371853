package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve mealcover tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, _, err := a.controller(nil)
			if err != nil {
				return err
			}
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			c, err := a.openCache()
			if err != nil {
				return err
			}

			deps := mcp.Deps{
				Pipeline: ctrl,
				Budget:   ledger,
				Cache:    c,
				Logger:   a.logger,
			}
			if a.cfg.Audit.Enabled {
				auditor, err := a.openAuditor()
				if err != nil {
					return err
				}
				deps.Audit = auditor
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return mcp.New(deps, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
