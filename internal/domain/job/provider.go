package job

import (
	"context"

	"github.com/honeycarbs/remotejobs/internal/domain"
)

// Provider represents the external job data source
type Provider interface {
	// e.g. "remotive"
	Name() string

	// Fetch returns the full listing in one call
	Fetch(ctx context.Context) ([]domain.JobRecord, error)
}
