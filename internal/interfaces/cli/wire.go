package cli

import (
	"context"

	"github.com/chemforge/molpipe/internal/application/dataset"
	"github.com/chemforge/molpipe/internal/domain/chem"
	"github.com/chemforge/molpipe/internal/infrastructure/database/postgres"
	"github.com/chemforge/molpipe/internal/infrastructure/database/redis"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/messaging/kafka"
	"github.com/chemforge/molpipe/internal/infrastructure/storage/minio"
)

// serviceDeps bundles the dataset service with the connections it owns so a
// command can close them when it is done.
type serviceDeps struct {
	service *dataset.Service
	closers []func()
}

func (d *serviceDeps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// newToolkit builds the chemistry toolkit from config, loading the
// natural-product score model when one is configured.
func newToolkit(cliCtx *CLIContext) (*chem.Toolkit, error) {
	opts := []chem.Option{chem.WithMaxRingSize(cliCtx.Config.Chem.MaxRingSize)}
	if path := cliCtx.Config.Chem.NPModelPath; path != "" {
		model, err := chem.LoadNPModel(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chem.WithNPModel(model))
	}
	return chem.NewToolkit(opts...), nil
}

// newServiceDeps wires the dataset service.  Every external system is
// optional: redis, kafka, postgres, and the registry are only connected when
// their config sections enable them.
func newServiceDeps(ctx context.Context, cliCtx *CLIContext) (*serviceDeps, error) {
	cfg := cliCtx.Config
	logger := cliCtx.Logger

	toolkit, err := newToolkit(cliCtx)
	if err != nil {
		return nil, err
	}

	builderOpts := []dataset.BuilderOption{
		dataset.WithConcurrency(cfg.Worker.Concurrency),
	}
	deps := &serviceDeps{}

	if cfg.Redis.Addr != "" {
		cache, err := redis.NewDescriptorCache(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() { _ = cache.Close() })
		builderOpts = append(builderOpts, dataset.WithCache(cache))
	}

	producer := kafka.NewDisabledProducer(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewEventProducer(cfg.Kafka, logger)
		deps.closers = append(deps.closers, func() { _ = producer.Close() })
	}

	serviceOpts := []dataset.ServiceOption{}

	if cfg.Dataset.Sink == "postgres" {
		if cfg.Database.MigrationPath != "" {
			if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
				deps.close()
				return nil, err
			}
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.closers = append(deps.closers, conn.Close)
		serviceOpts = append(serviceOpts, dataset.WithRecordSink(postgres.NewRecordRepository(conn, logger)))
	}

	if cfg.Registry.Endpoint != "" {
		client, err := minio.NewClient(ctx, cfg.Registry, logger)
		if err != nil {
			deps.close()
			return nil, err
		}
		serviceOpts = append(serviceOpts, dataset.WithRegistry(minio.NewDatasetRegistry(client, logger)))
	}

	builder := dataset.NewBuilder(toolkit, cliCtx.Metrics, logger, builderOpts...)
	exporter := dataset.NewParquetExporter(logger)
	deps.service = dataset.NewService(
		builder,
		exporter,
		producer,
		cliCtx.Metrics,
		logger,
		cfg.Dataset.Name,
		cfg.Dataset.OutputDir,
		serviceOpts...,
	)
	return deps, nil
}

// startMetricsServer exposes /metrics when a listen address is configured.
// The listener shuts down when ctx is cancelled.
func startMetricsServer(ctx context.Context, cliCtx *CLIContext) {
	addr := cliCtx.Config.Metrics.ListenAddr
	if addr == "" {
		return
	}
	go func() {
		if err := cliCtx.Metrics.Serve(ctx, addr, cliCtx.Logger); err != nil {
			cliCtx.Logger.Warn("metrics listener stopped", logging.Err(err))
		}
	}()
}
