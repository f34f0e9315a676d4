package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/remotejobs/internal/domain"
	"github.com/honeycarbs/remotejobs/pkg/logging"
)

// SnapshotPath is where the pretty JSON snapshot of a run is written
type SnapshotPath string

// Option configures Pipeline
type Option func(*config)

type config struct {
	provider     Provider
	files        FileStore
	loaders      []Loader
	snapshotPath SnapshotPath
	logger       *logging.Logger
	clock        func() time.Time
}

// WithProvider sets the job source
func WithProvider(provider Provider) Option {
	return func(c *config) {
		c.provider = provider
	}
}

// WithFileStore sets the store used for intermediate files
func WithFileStore(files FileStore) Option {
	return func(c *config) {
		c.files = files
	}
}

// WithLoaders sets the final sinks. Without loaders the pipeline runs the
// file-only variant and keeps the snapshot.
func WithLoaders(loaders ...Loader) Option {
	return func(c *config) {
		c.loaders = loaders
	}
}

// WithSnapshotPath sets the snapshot location
func WithSnapshotPath(path SnapshotPath) Option {
	return func(c *config) {
		c.snapshotPath = path
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// NewPipeline builds Pipeline from options
func NewPipeline(opts ...Option) (*Pipeline, error) {
	cfg := &config{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return newPipeline(cfg)
}

// NewPipelineWithDeps creates a Pipeline with direct dependencies (Wire-compatible)
func NewPipelineWithDeps(
	provider Provider,
	files FileStore,
	loaders []Loader,
	snapshotPath SnapshotPath,
	logger *logging.Logger,
) (*Pipeline, error) {
	return newPipeline(&config{
		provider:     provider,
		files:        files,
		loaders:      loaders,
		snapshotPath: snapshotPath,
		logger:       logger,
		clock:        time.Now,
	})
}

func newPipeline(cfg *config) (*Pipeline, error) {
	if cfg.provider == nil {
		return nil, fmt.Errorf("job.Pipeline: provider is required")
	}
	if cfg.files == nil {
		return nil, fmt.Errorf("job.Pipeline: file store is required")
	}
	if cfg.snapshotPath == "" {
		return nil, fmt.Errorf("job.Pipeline: snapshot path is required")
	}
	for i, l := range cfg.loaders {
		if l == nil {
			return nil, fmt.Errorf("job.Pipeline: loader %d is nil", i)
		}
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}

	return &Pipeline{
		provider:     cfg.provider,
		files:        cfg.files,
		loaders:      cfg.loaders,
		snapshotPath: string(cfg.snapshotPath),
		logger:       cfg.logger,
		clock:        cfg.clock,
	}, nil
}

// Pipeline runs fetch, projection, file output and the optional loaders
// strictly in sequence. It is meant to run once per process.
type Pipeline struct {
	provider     Provider
	files        FileStore
	loaders      []Loader
	snapshotPath string
	logger       *logging.Logger
	clock        func() time.Time
}

// Run executes the pipeline once. Any stage failure stops the run; the error
// is a *domain.StageError.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	r := &run{
		report: domain.Report{
			RunID:        uuid.New(),
			State:        domain.StageIdle,
			SnapshotPath: p.snapshotPath,
			StartedAt:    p.clock(),
		},
		trail: []domain.Stage{domain.StageIdle},
	}
	r.log = p.logger.With("run_id", r.report.RunID.String())

	err := p.run(ctx, r)

	r.report.FinishedAt = p.clock()
	if err != nil {
		r.enter(domain.StageFailed)
		r.log.Error("pipeline failed", "err", err)
	} else {
		r.enter(domain.StageDone)
		r.log.Info("pipeline finished",
			"fetched", r.report.Fetched,
			"loaded", r.report.Loaded,
			"elapsed", r.report.FinishedAt.Sub(r.report.StartedAt).String(),
		)
	}
	r.report.State = r.trail[len(r.trail)-1]
	return r.report, err
}

type run struct {
	report domain.Report
	trail  []domain.Stage
	log    *logging.Logger
}

func (r *run) enter(stage domain.Stage) {
	if r.trail[len(r.trail)-1] == stage {
		return
	}
	r.trail = append(r.trail, stage)
	r.report.Stages = r.trail
	r.log.Debug("stage entered", "stage", string(stage))
}

func (p *Pipeline) run(ctx context.Context, r *run) error {
	r.enter(domain.StageFetching)
	r.log.Info("fetching jobs", "provider", p.provider.Name())

	records, err := p.provider.Fetch(ctx)
	if err != nil {
		return domain.NewStageError(domain.StageFetching, err)
	}
	r.report.Fetched = len(records)
	r.log.Info("fetched jobs", "count", len(records))

	if len(p.loaders) == 0 {
		return p.writeSnapshot(r, records)
	}

	r.enter(domain.StageProjecting)
	rows := Project(records)

	r.enter(domain.StageWriting)
	ndjsonPath := p.files.NDJSONPath(p.snapshotPath)
	defer func() {
		if err := p.files.Remove(p.snapshotPath, ndjsonPath); err != nil {
			r.log.Warn("failed to remove intermediate files", "err", err)
		}
	}()

	if err := p.files.WriteJSON(p.snapshotPath, rows); err != nil {
		return domain.NewStageError(domain.StageWriting, err)
	}
	r.log.Info("saved jobs", "count", len(rows), "path", p.snapshotPath)

	if err := p.files.WriteNDJSON(ndjsonPath, rows); err != nil {
		return domain.NewStageError(domain.StageWriting, err)
	}

	batch := Batch{
		Rows:         rows,
		SnapshotPath: p.snapshotPath,
		NDJSONPath:   ndjsonPath,
		enter:        r.enter,
	}

	for _, l := range p.loaders {
		r.log.Info("loading jobs", "sink", l.Name())
		if err := l.Load(ctx, batch); err != nil {
			return sinkError(l.Name(), err)
		}
		r.report.Loaded = append(r.report.Loaded, l.Name())
		r.log.Info("jobs loaded", "sink", l.Name(), "rows", len(rows))
	}

	return nil
}

// writeSnapshot is the file-only variant: the fetched records are written
// unchanged and the file is kept as the run's output.
func (p *Pipeline) writeSnapshot(r *run, records []domain.JobRecord) error {
	r.enter(domain.StageProjecting)
	r.enter(domain.StageWriting)

	if err := p.files.WriteJSON(p.snapshotPath, records); err != nil {
		return domain.NewStageError(domain.StageWriting, err)
	}
	r.report.SnapshotKept = true
	r.log.Info("saved jobs", "count", len(records), "path", p.snapshotPath)
	return nil
}

func sinkError(sink string, err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return &domain.StageError{Stage: se.Stage, Sink: sink, Err: se.Err}
	}
	return &domain.StageError{Stage: domain.StageLoadingData, Sink: sink, Err: err}
}
