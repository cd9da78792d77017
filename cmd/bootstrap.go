package cmd

import (
	"context"
	"fmt"

	"connector-service/core/config"
	"connector-service/core/database"
	"connector-service/core/directory"
	"connector-service/core/logger"
	"connector-service/core/reconcile"
	"connector-service/core/source"
	"connector-service/core/storage"
	"connector-service/feature/networkdrive"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the dependencies shared by the server and the CLI commands.
type runtime struct {
	cfg        *config.Config
	logg       *zap.Logger
	db         *gorm.DB
	client     storage.Client
	connectors *directory.GormConnectors
	jobs       *directory.GormJobs
	state      *directory.GormState
	registry   *source.Registry
}

func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := directory.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate registry: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	registry := source.NewRegistry()
	if err := registry.Register(networkdrive.Definition()); err != nil {
		return nil, err
	}

	pageSize := cfg.Service.PageSize
	return &runtime{
		cfg:        cfg,
		logg:       logg,
		db:         db,
		client:     client,
		connectors: directory.NewGormConnectors(db, pageSize),
		jobs:       directory.NewGormJobs(db, storage.NewIndexStore(client, cfg.Storage.Bucket), pageSize),
		state:      directory.NewGormState(db),
		registry:   registry,
	}, nil
}

func (r *runtime) newLoop() *reconcile.Loop {
	engine := reconcile.NewEngine(r.connectors, r.jobs, r.state, reconcile.Config{
		Interval:           r.cfg.Service.JobCleanupInterval,
		StuckThreshold:     r.cfg.Service.StuckJobThreshold,
		NativeServiceTypes: r.cfg.Service.NativeServiceTypes,
		ConnectorIDs:       r.cfg.Service.ConnectorIDs(),
	}, r.logg)
	return reconcile.NewLoop(engine, nil, r.logg)
}

func (r *runtime) close(ctx context.Context) {
	if err := r.connectors.Close(ctx); err != nil {
		r.logg.Warn("Failed to close connector directory", zap.Error(err))
	}
	if err := r.jobs.Close(ctx); err != nil {
		r.logg.Warn("Failed to close sync job directory", zap.Error(err))
	}
	_ = r.logg.Sync()
}
