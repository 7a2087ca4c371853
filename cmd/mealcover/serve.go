package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/metrics"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/server"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/storage"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/tracing"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the cover image HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			shutdownTracing, err := tracing.Setup(a.cfg.Tracing, os.Stdout)
			if err != nil {
				return err
			}
			defer func() { _ = shutdownTracing(context.Background()) }()

			collector := metrics.NewCollector("mealcover")
			ctrl, bucket, err := a.controller(collector)
			if err != nil {
				return err
			}

			base, err := url.Parse(a.cfg.Storage.PublicBase)
			if err != nil {
				return fmt.Errorf("parse storage.public_base: %w", err)
			}

			srv := server.New(server.Options{
				Listen:      a.cfg.Listen,
				Logger:      a.logger,
				Objects:     storage.NewHandler(bucket, a.cfg.Storage.Bucket),
				ObjectsPath: base.Path,
				Metrics:     collector.Handler(),
			}, ctrl)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting mealcover",
				zap.String("config", *configPath),
				zap.String("cache_backend", a.cfg.Cache.Backend),
				zap.String("budget_backend", a.cfg.Budget.Backend),
			)
			return srv.ListenAndServe(ctx)
		},
	}
}
