//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/remotejobs/internal/config"
	"github.com/honeycarbs/remotejobs/internal/domain/job"
	"github.com/honeycarbs/remotejobs/internal/storage/localfs"
	"github.com/honeycarbs/remotejobs/pkg/logging"
	"github.com/honeycarbs/remotejobs/pkg/remotive"
)

// InitializePipeline creates the Pipeline with all sinks wired up
func InitializePipeline(ctx context.Context, cfg config.Config, logger *logging.Logger) (*job.Pipeline, func(), error) {
	wire.Build(
		// Source - Remotive
		provideRemotiveConfig,
		remotive.NewClient,
		provideRemotiveProvider,
		wire.Bind(new(job.Provider), new(*remotiveProvider)),

		// Files
		localfs.NewStore,
		wire.Bind(new(job.FileStore), new(localfs.Store)),
		provideSnapshotPath,

		// Sinks
		provideWarehouseLoader,
		provideGraphLoader,
		provideSheetsExporter,
		provideLoaders,

		job.NewPipelineWithDeps,
	)

	return nil, nil, nil
}
