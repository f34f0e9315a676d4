package app

import (
	"context"

	"github.com/honeycarbs/remotejobs/internal/config"
	"github.com/honeycarbs/remotejobs/internal/domain/job"
	remotiveprovider "github.com/honeycarbs/remotejobs/internal/domain/job/providers/remotive"
	bqstorage "github.com/honeycarbs/remotejobs/internal/storage/bigquery"
	neo4jstorage "github.com/honeycarbs/remotejobs/internal/storage/neo4j"
	sheetsstorage "github.com/honeycarbs/remotejobs/internal/storage/sheets"
	pkgbq "github.com/honeycarbs/remotejobs/pkg/bigquery"
	"github.com/honeycarbs/remotejobs/pkg/logging"
	n4j "github.com/honeycarbs/remotejobs/pkg/neo4j"
	"github.com/honeycarbs/remotejobs/pkg/remotive"
	"github.com/honeycarbs/remotejobs/pkg/sheets"
)

type remotiveProvider = remotiveprovider.Provider

// provideRemotiveConfig extracts Remotive config from main config
func provideRemotiveConfig(cfg config.Config) remotive.Config {
	return remotive.Config{
		BaseURL:  cfg.Remotive.BaseURL,
		Category: cfg.Remotive.Category,
		Search:   cfg.Remotive.Search,
		Limit:    cfg.Remotive.Limit,
		Timeout:  cfg.Remotive.Timeout,
	}
}

// provideRemotiveProvider creates the job provider from the client
func provideRemotiveProvider(client *remotive.Client) (*remotiveProvider, error) {
	return remotiveprovider.NewProvider(client)
}

func provideSnapshotPath(cfg config.Config) job.SnapshotPath {
	return job.SnapshotPath(cfg.SnapshotPath)
}

// provideWarehouseLoader returns nil in file mode
func provideWarehouseLoader(ctx context.Context, cfg config.Config, logger *logging.Logger) (*bqstorage.Loader, func(), error) {
	if cfg.Mode != config.ModeWarehouse {
		return nil, func() {}, nil
	}

	client, err := pkgbq.NewClient(ctx, pkgbq.Config{
		ProjectID:   cfg.BigQuery.ProjectID,
		Location:    cfg.BigQuery.Location,
		JobIDPrefix: "remotejobs",
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close BigQuery client", "err", err)
		}
	}

	logger.Info("BigQuery loader initialized",
		"project", client.ProjectID(),
		"location", client.Location(),
	)

	loader, err := bqstorage.NewLoader(client, bqstorage.TableRef{
		DatasetID: cfg.BigQuery.DatasetID,
		TableID:   cfg.BigQuery.TableID,
	}, logger.Named("bigquery"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return loader, cleanup, nil
}

// provideGraphLoader returns nil unless NEO4J_URI is set
func provideGraphLoader(ctx context.Context, cfg config.Config, logger *logging.Logger) (*neo4jstorage.JobRepository, func(), error) {
	if !cfg.Neo4jEnabled() {
		return nil, func() {}, nil
	}

	client, err := n4j.NewClient(ctx, n4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("failed to close Neo4j driver", "err", err)
		}
	}

	logger.Info("Neo4j sink initialized", "uri", cfg.Neo4j.URI)
	return neo4jstorage.NewJobRepository(client, logger.Named("neo4j")), cleanup, nil
}

// provideSheetsExporter returns nil unless SHEETS_SPREADSHEET_ID is set
func provideSheetsExporter(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sheetsstorage.Exporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}

	client, err := sheets.NewClient(ctx, sheets.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Sheets sink initialized", "spreadsheet_id", cfg.Sheets.SpreadsheetID, "tab", cfg.Sheets.Tab)
	return sheetsstorage.NewExporter(client, sheetsstorage.Target{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		Tab:           cfg.Sheets.Tab,
	}, logger.Named("sheets"))
}

// provideLoaders orders the configured sinks; the warehouse always runs first
func provideLoaders(
	warehouse *bqstorage.Loader,
	graph *neo4jstorage.JobRepository,
	sheet *sheetsstorage.Exporter,
) []job.Loader {
	var loaders []job.Loader
	if warehouse != nil {
		loaders = append(loaders, warehouse)
	}
	if graph != nil {
		loaders = append(loaders, graph)
	}
	if sheet != nil {
		loaders = append(loaders, sheet)
	}
	return loaders
}
