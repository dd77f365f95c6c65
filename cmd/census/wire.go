package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"herd-census/internal/config"
	"herd-census/internal/gateway"
	"herd-census/internal/metrics"
	"herd-census/internal/source"
	"herd-census/internal/usecase"
)

// application is the wired census engine plus what must be released on exit.
type application struct {
	census   *usecase.CensusUseCase
	registry *prometheus.Registry
	db       *sql.DB
}

func (a *application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// --- Dependency Injection (wiring the application) ---
func buildApplication(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application, error) {
	app := &application{registry: prometheus.NewRegistry()}

	openDB := func() (*sql.DB, error) {
		if app.db != nil {
			return app.db, nil
		}
		dialect, err := gateway.ParseDialect(cfg.Database.Dialect)
		if err != nil {
			return nil, err
		}
		db, err := gateway.OpenDB(ctx, dialect, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		app.db = db
		return db, nil
	}
	sqlStore := func() (*gateway.SQLStore, error) {
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		dialect, _ := gateway.ParseDialect(cfg.Database.Dialect)
		return gateway.NewSQLStore(db, dialect), nil
	}

	// 1. Create the stores (the outermost layer)
	var records usecase.RecordStore
	switch cfg.Records.Driver {
	case "csv":
		records = gateway.NewCSVRecordStore(cfg.Records.AnimalsPath, cfg.Records.MovementsPath)
	case "sql":
		store, err := sqlStore()
		if err != nil {
			return nil, errors.Join(fmt.Errorf("record store: %w", err), app.Close())
		}
		records = store
	default:
		return nil, fmt.Errorf("unknown records.driver %q", cfg.Records.Driver)
	}

	var invoices usecase.InvoiceStore
	switch cfg.Invoices.Driver {
	case "dir":
		invoices = gateway.NewDirInvoiceStore(cfg.Invoices.Dir)
	case "sql":
		store, err := sqlStore()
		if err != nil {
			return nil, errors.Join(fmt.Errorf("invoice store: %w", err), app.Close())
		}
		invoices = store
	case "s3":
		s3cfg := gateway.S3Config{
			Region:    cfg.Invoices.S3.Region,
			Bucket:    cfg.Invoices.S3.Bucket,
			Prefix:    cfg.Invoices.S3.Prefix,
			Endpoint:  cfg.Invoices.S3.Endpoint,
			PathStyle: cfg.Invoices.S3.PathStyle,
		}
		client, err := gateway.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		store, err := gateway.NewS3InvoiceStore(client, s3cfg.Bucket, s3cfg.Prefix)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		invoices = store
	default:
		return nil, errors.Join(fmt.Errorf("unknown invoices.driver %q", cfg.Invoices.Driver), app.Close())
	}

	// 2. Build the engine from the reference tables
	tables, err := config.LoadTables(cfg.Engine.TablesPath)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	components, err := tables.Build()
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	policy, err := usecase.ParseUnresolvedPolicy(cfg.Engine.UnresolvedPolicy)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}

	// 3. Create the usecase and inject the stores
	app.census = usecase.NewCensusUseCase(records, invoices, usecase.Engine{
		Sources: source.Deps{
			Corrector: components.Corrector,
			Sex:       components.Sex,
			Resolver:  components.Resolver,
			Retry: source.RetryPolicy{
				Attempts:  cfg.Engine.RetryAttempts,
				BaseDelay: cfg.Engine.RetryBaseDelay,
				MaxDelay:  cfg.Engine.RetryMaxDelay,
			},
			MaxQuantity: cfg.Engine.MaxQuantity,
			Logger:      logger,
		},
		Descriptors: components.Descriptors,
		Unresolved:  policy,
		Metrics:     metrics.NewRecorder(app.registry),
		Logger:      logger,
	})
	return app, nil
}
