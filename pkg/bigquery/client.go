package bigquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gbq "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultLocation = "US"

// Config holds BigQuery connection settings. Credentials and, when ProjectID
// is empty, the project come from Application Default Credentials.
type Config struct {
	ProjectID string
	Location  string
	// Endpoint and HTTPClient override the API transport, mainly for tests
	Endpoint    string
	HTTPClient  *http.Client
	JobIDPrefix string
}

// Client wraps the BigQuery client for dataset, table and load calls
type Client struct {
	client      *gbq.Client
	location    string
	jobIDPrefix string
}

// LoadRequest describes a single newline-delimited JSON load job
type LoadRequest struct {
	DatasetID string
	TableID   string
	Schema    gbq.Schema
	Source    io.Reader
	// WriteDisposition defaults to gbq.WriteTruncate
	WriteDisposition gbq.TableWriteDisposition
}

// LoadResult is the outcome of a finished, successful load job
type LoadResult struct {
	JobID      string
	OutputRows int64
}

// JobError is returned when a load job finished with errors
type JobError struct {
	JobID  string
	Errors []*gbq.Error
}

func (e *JobError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ep := range e.Errors {
		if ep == nil {
			continue
		}
		if ep.Reason != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", ep.Reason, ep.Message))
		} else {
			msgs = append(msgs, ep.Message)
		}
	}
	return fmt.Sprintf("bigquery: job %s failed: %s", e.JobID, strings.Join(msgs, "; "))
}

// NewClient creates a BigQuery client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = gbq.DetectProjectID
	}

	client, err := gbq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: failed to create client: %w", err)
	}

	location := cfg.Location
	if location == "" {
		location = defaultLocation
	}
	client.Location = location

	prefix := cfg.JobIDPrefix
	if prefix == "" {
		prefix = "load"
	}

	return &Client{
		client:      client,
		location:    location,
		jobIDPrefix: prefix,
	}, nil
}

// Close releases the underlying client
func (c *Client) Close() error {
	return c.client.Close()
}

// ProjectID returns the project all calls are made against
func (c *Client) ProjectID() string {
	return c.client.Project()
}

// Location returns the region datasets and jobs are created in
func (c *Client) Location() string {
	return c.location
}

// EnsureDataset creates the dataset unless it already exists. It reports
// whether a dataset was created.
func (c *Client) EnsureDataset(ctx context.Context, datasetID string) (bool, error) {
	if datasetID == "" {
		return false, fmt.Errorf("bigquery: dataset id is required")
	}

	err := c.client.Dataset(datasetID).Create(ctx, &gbq.DatasetMetadata{Location: c.location})
	switch {
	case err == nil:
		return true, nil
	case isAlreadyExists(err):
		return false, nil
	default:
		return false, fmt.Errorf("bigquery: create dataset %s: %w", datasetID, err)
	}
}

// EnsureTable creates the table with the given schema unless it already
// exists. An existing table is left untouched.
func (c *Client) EnsureTable(ctx context.Context, datasetID, tableID string, schema gbq.Schema) (bool, error) {
	if datasetID == "" || tableID == "" {
		return false, fmt.Errorf("bigquery: dataset and table id are required")
	}

	err := c.client.Dataset(datasetID).Table(tableID).Create(ctx, &gbq.TableMetadata{Schema: schema})
	switch {
	case err == nil:
		return true, nil
	case isAlreadyExists(err):
		return false, nil
	default:
		return false, fmt.Errorf("bigquery: create table %s.%s: %w", datasetID, tableID, err)
	}
}

// Load uploads req.Source as a load job and blocks until the job is done.
// A finished job carrying any error is reported as *JobError.
func (c *Client) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("bigquery: load source is required")
	}

	src := gbq.NewReaderSource(req.Source)
	src.SourceFormat = gbq.JSON
	src.Schema = req.Schema

	loader := c.client.Dataset(req.DatasetID).Table(req.TableID).LoaderFrom(src)
	loader.CreateDisposition = gbq.CreateNever
	loader.WriteDisposition = req.WriteDisposition
	if loader.WriteDisposition == "" {
		loader.WriteDisposition = gbq.WriteTruncate
	}
	loader.JobID = fmt.Sprintf("%s_%s", c.jobIDPrefix, strings.ReplaceAll(uuid.NewString(), "-", "_"))
	loader.Location = c.location

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: submit load job: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: wait for job %s: %w", job.ID(), err)
	}

	if errs := jobErrors(status); len(errs) > 0 {
		return nil, &JobError{JobID: job.ID(), Errors: errs}
	}

	result := &LoadResult{JobID: job.ID()}
	if status.Statistics != nil {
		if stats, ok := status.Statistics.Details.(*gbq.LoadStatistics); ok {
			result.OutputRows = stats.OutputRows
		}
	}
	return result, nil
}

// jobErrors merges the terminal error and the per-row errors of a done job
func jobErrors(status *gbq.JobStatus) []*gbq.Error {
	errs := append([]*gbq.Error(nil), status.Errors...)
	if len(errs) > 0 {
		return errs
	}
	var final *gbq.Error
	if errors.As(status.Err(), &final) && final != nil {
		errs = append(errs, final)
	}
	return errs
}

func isAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}
