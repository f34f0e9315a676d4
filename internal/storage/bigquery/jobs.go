package bigquery

import (
	"context"
	"fmt"
	"os"

	gbq "cloud.google.com/go/bigquery"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
	pkgbq "github.com/honeycarbs/remotejobs/pkg/bigquery"
	"github.com/honeycarbs/remotejobs/pkg/logging"
)

// warehouseClient is the subset of the BigQuery client used by the loader
type warehouseClient interface {
	EnsureDataset(ctx context.Context, datasetID string) (bool, error)
	EnsureTable(ctx context.Context, datasetID, tableID string, schema gbq.Schema) (bool, error)
	Load(ctx context.Context, req pkgbq.LoadRequest) (*pkgbq.LoadResult, error)
}

// Ensure Loader implements job.Loader
var _ jobdomain.Loader = (*Loader)(nil)

// TableRef names the target table
type TableRef struct {
	DatasetID string
	TableID   string
}

// Loader bootstraps the jobs table and replaces its contents with the
// batch's NDJSON file
type Loader struct {
	client warehouseClient
	table  TableRef
	logger *logging.Logger
}

// NewLoader creates a Loader
func NewLoader(client warehouseClient, table TableRef, logger *logging.Logger) (*Loader, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery loader: client is required")
	}
	if table.DatasetID == "" || table.TableID == "" {
		return nil, fmt.Errorf("bigquery loader: dataset and table are required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		client: client,
		table:  table,
		logger: logger.With("dataset", table.DatasetID, "table", table.TableID),
	}, nil
}

func (l *Loader) Name() string {
	return "bigquery"
}

// Load ensures dataset and table exist, then overwrites the table
func (l *Loader) Load(ctx context.Context, batch jobdomain.Batch) error {
	batch.Enter(domain.StageLoadingDataset)
	created, err := l.client.EnsureDataset(ctx, l.table.DatasetID)
	if err != nil {
		return domain.NewStageError(domain.StageLoadingDataset, err)
	}
	if created {
		l.logger.Info("dataset created")
	} else {
		l.logger.Info("dataset already exists")
	}

	batch.Enter(domain.StageLoadingTable)
	created, err = l.client.EnsureTable(ctx, l.table.DatasetID, l.table.TableID, JobSchema)
	if err != nil {
		return domain.NewStageError(domain.StageLoadingTable, err)
	}
	if created {
		l.logger.Info("table created")
	} else {
		l.logger.Info("table already exists")
	}

	batch.Enter(domain.StageLoadingData)
	f, err := os.Open(batch.NDJSONPath)
	if err != nil {
		return domain.NewStageError(domain.StageLoadingData, fmt.Errorf("bigquery loader: open %s: %w", batch.NDJSONPath, err))
	}
	defer func() {
		_ = f.Close()
	}()

	l.logger.Info("loading data into BigQuery", "file", batch.NDJSONPath)
	res, err := l.client.Load(ctx, pkgbq.LoadRequest{
		DatasetID:        l.table.DatasetID,
		TableID:          l.table.TableID,
		Schema:           JobSchema,
		Source:           f,
		WriteDisposition: gbq.WriteTruncate,
	})
	if err != nil {
		return domain.NewStageError(domain.StageLoadingData, err)
	}

	l.logger.Info("load job completed", "job_id", res.JobID, "rows", res.OutputRows)
	return nil
}
