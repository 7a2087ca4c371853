package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/audit"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/budget"
	budgetredis "github.com/burzuercher/group-meal-planner-sub001/pkg/budget/redis"
	budgetsqlite "github.com/burzuercher/group-meal-planner-sub001/pkg/budget/sqlite"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/cache"
	cacheredis "github.com/burzuercher/group-meal-planner-sub001/pkg/cache/redis"
	cachesqlite "github.com/burzuercher/group-meal-planner-sub001/pkg/cache/sqlite"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/config"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/generation"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/logging"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/membership"
	membershipsqlite "github.com/burzuercher/group-meal-planner-sub001/pkg/membership/sqlite"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/metrics"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/pipeline"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/storage"
	storagesqlite "github.com/burzuercher/group-meal-planner-sub001/pkg/storage/sqlite"
)

// artifactCache is what the CLI needs from either cache backend.
type artifactCache interface {
	cache.ArtifactCache
	Entries(ctx context.Context, key string) ([]models.CacheEntry, error)
}

// app holds the loaded config and every resource opened for one command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	closers []func() error

	rdb     *goredis.Client
	cache   artifactCache
	ledger  *budget.Ledger
	auditor *audit.Logger
}

func loadApp(configPath string) (*app, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// Close releases resources in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) redis() *goredis.Client {
	if a.rdb == nil {
		a.rdb = goredis.NewClient(&goredis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.rdb.Close)
	}
	return a.rdb
}

func (a *app) openCache() (artifactCache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	if a.cfg.Cache.Backend == config.BackendRedis {
		a.cache = cacheredis.New(a.redis(), a.cfg.Redis.KeyPrefix)
		return a.cache, nil
	}
	c, err := cachesqlite.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	a.closers = append(a.closers, c.Close)
	a.cache = c
	return c, nil
}

func (a *app) openLedger() (*budget.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	var store budget.Store
	if a.cfg.Budget.Backend == config.BackendRedis {
		store = budgetredis.New(a.redis(), a.cfg.Redis.KeyPrefix)
	} else {
		s, err := budgetsqlite.New(a.cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init budget: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		store = s
	}
	a.ledger = budget.New(store, a.cfg.Budget.Cap, a.cfg.Budget.UnitCost)
	return a.ledger, nil
}

func (a *app) openRoster() (*membershipsqlite.Roster, error) {
	r, err := membershipsqlite.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init roster: %w", err)
	}
	a.closers = append(a.closers, r.Close)
	return r, nil
}

func (a *app) openBucket() (*storagesqlite.Bucket, error) {
	b, err := storagesqlite.New(a.cfg.DBPath, a.cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	a.closers = append(a.closers, b.Close)
	return b, nil
}

func (a *app) openAuditor() (*audit.Logger, error) {
	if a.auditor != nil {
		return a.auditor, nil
	}
	l, err := audit.New(a.cfg.Audit)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, l.Close)
	a.auditor = l
	return l, nil
}

// controller wires the pipeline from config. m may be nil.
func (a *app) controller(m *metrics.Collector) (*pipeline.Controller, *storagesqlite.Bucket, error) {
	roster, err := a.openRoster()
	if err != nil {
		return nil, nil, err
	}
	c, err := a.openCache()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := a.openLedger()
	if err != nil {
		return nil, nil, err
	}
	bucket, err := a.openBucket()
	if err != nil {
		return nil, nil, err
	}

	opts := pipeline.Options{
		RequestTimeout: a.cfg.Pipeline.RequestTimeout,
		StorageTimeout: a.cfg.Storage.Timeout,
		RejectEmptyKey: a.cfg.Pipeline.RejectEmptyKey,
		Logger:         a.logger,
		Metrics:        m,
	}
	if a.cfg.Audit.Enabled {
		auditor, err := a.openAuditor()
		if err != nil {
			return nil, nil, err
		}
		opts.Auditor = auditor
	}

	gen := generation.New(generation.Config{
		Endpoint:    a.cfg.Generation.Endpoint,
		Model:       a.cfg.Generation.Model,
		APIKey:      a.cfg.Generation.APIKey,
		AspectRatio: a.cfg.Generation.AspectRatio,
		Timeout:     a.cfg.Generation.Timeout,
	})
	store := storage.New(bucket, storage.Config{
		PublicBase: a.cfg.Storage.PublicBase,
		Bucket:     a.cfg.Storage.Bucket,
		Prefix:     a.cfg.Storage.Prefix,
	})

	ctrl := pipeline.New(membership.NewGate(roster), c, ledger, gen, store, opts)
	// Registered after the auditor so pending audit writes drain before it closes.
	a.closers = append(a.closers, ctrl.Close)
	return ctrl, bucket, nil
}
