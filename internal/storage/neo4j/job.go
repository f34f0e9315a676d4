package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
	"github.com/honeycarbs/remotejobs/pkg/logging"
)

// Ensure JobRepository implements job.Loader
var _ jobdomain.Loader = (*JobRepository)(nil)

type writer interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultSummary, error)
}

// JobRepository merges projected rows into the job graph
type JobRepository struct {
	client writer
	logger *logging.Logger
}

// NewJobRepository creates a JobRepository with a Neo4j client
func NewJobRepository(client writer, logger *logging.Logger) *JobRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobRepository{
		client: client,
		logger: logger,
	}
}

func (r *JobRepository) Name() string {
	return "neo4j"
}

// replaceJobsQuery makes the graph mirror the batch: listed jobs are merged
// with their edges rebuilt, jobs missing from the batch are removed and
// Company, Category and Tag nodes left without edges are dropped.
const replaceJobsQuery = `
	UNWIND $jobs AS job
	MERGE (j:Job {id: job.id})
	SET j.url = job.url,
	    j.title = job.title,
	    j.jobType = job.jobType,
	    j.publicationDate = job.publicationDate,
	    j.candidateRequiredLocation = job.location,
	    j.salary = job.salary,
	    j.description = job.description
	WITH j, job
	OPTIONAL MATCH (j)-[old:POSTED_BY|IN_CATEGORY|TAGGED]->()
	DELETE old
	WITH DISTINCT j, job
	FOREACH (_ IN CASE WHEN job.company IS NULL THEN [] ELSE [1] END |
		MERGE (c:Company {id: job.company.id})
		SET c.name = job.company.name
		MERGE (j)-[:POSTED_BY]->(c)
	)
	FOREACH (_ IN CASE WHEN job.category IS NULL THEN [] ELSE [1] END |
		MERGE (cat:Category {name: job.category})
		MERGE (j)-[:IN_CATEGORY]->(cat)
	)
	FOREACH (tag IN job.tags |
		MERGE (t:Tag {name: tag})
		MERGE (j)-[:TAGGED]->(t)
	)
	WITH count(*) AS merged
	OPTIONAL MATCH (stale:Job)
	WHERE NOT stale.id IN $ids
	DETACH DELETE stale
	WITH count(*) AS pruned
	OPTIONAL MATCH (orphan)
	WHERE (orphan:Company OR orphan:Category OR orphan:Tag) AND NOT (orphan)--()
	DELETE orphan
`

// Load replaces the graph contents with the batch. Rows without an id are
// skipped; an empty batch clears all jobs.
func (r *JobRepository) Load(ctx context.Context, batch jobdomain.Batch) error {
	batch.Enter(domain.StageLoadingData)

	params, skipped := jobParams(batch.Rows)
	if skipped > 0 {
		r.logger.Warn("skipping jobs without id", "count", skipped)
	}

	ids := make([]int64, 0, len(params))
	for _, p := range params {
		ids = append(ids, p["id"].(int64))
	}

	summary, err := r.client.ExecuteWrite(ctx, replaceJobsQuery, map[string]any{
		"jobs": params,
		"ids":  ids,
	})
	if err != nil {
		return fmt.Errorf("neo4j: replace jobs: %w", err)
	}

	counters := summary.Counters()
	r.logger.Info("jobs written to graph",
		"jobs", len(params),
		"nodes_created", counters.NodesCreated(),
		"nodes_deleted", counters.NodesDeleted(),
		"relationships_created", counters.RelationshipsCreated(),
		"relationships_deleted", counters.RelationshipsDeleted(),
	)
	return nil
}

func jobParams(rows []domain.ProjectedRow) ([]map[string]any, int) {
	out := make([]map[string]any, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		if row.ID == nil {
			skipped++
			continue
		}

		tags := make([]string, 0, len(row.Tags))
		for _, t := range row.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, strings.ToLower(t))
			}
		}

		var company any
		if row.CompanyName != nil && strings.TrimSpace(*row.CompanyName) != "" {
			company = map[string]any{
				"id":   slugify(*row.CompanyName),
				"name": *row.CompanyName,
			}
		}

		out = append(out, map[string]any{
			"id":              *row.ID,
			"url":             deref(row.URL),
			"title":           deref(row.Title),
			"company":         company,
			"category":        deref(row.Category),
			"tags":            tags,
			"jobType":         deref(row.JobType),
			"publicationDate": deref(row.PublicationDate),
			"location":        deref(row.CandidateRequiredLocation),
			"salary":          deref(row.Salary),
			"description":     deref(row.Description),
		})
	}

	return out, skipped
}

// deref returns nil for absent values so Cypher sees null
func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
