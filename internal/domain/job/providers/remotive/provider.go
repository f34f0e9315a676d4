package remotive

import (
	"context"
	"fmt"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
	"github.com/honeycarbs/remotejobs/pkg/remotive"
)

// fetchClient describes the subset of the Remotive client used by the provider.
type fetchClient interface {
	FetchJobs(ctx context.Context) ([]remotive.Job, error)
}

// Provider implements job.Provider using the Remotive API
type Provider struct {
	client fetchClient
}

// NewProvider builds a Remotive provider
func NewProvider(client fetchClient) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("remotive provider: client is required")
	}
	return &Provider{client: client}, nil
}

// Name returns provider identifier
func (p *Provider) Name() string {
	return "remotive"
}

// Fetch downloads the listing and converts it to domain records
func (p *Provider) Fetch(ctx context.Context) ([]domain.JobRecord, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("remotive provider: client is nil")
	}

	jobs, err := p.client.FetchJobs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, domain.JobRecord{
			ID:                        j.ID,
			URL:                       j.URL,
			Title:                     j.Title,
			CompanyName:               j.CompanyName,
			Category:                  j.Category,
			Tags:                      j.Tags,
			JobType:                   j.JobType,
			PublicationDate:           j.PublicationDate,
			CandidateRequiredLocation: j.CandidateRequiredLocation,
			Salary:                    j.Salary,
			Description:               j.Description,
			Raw:                       j.Raw,
		})
	}

	return out, nil
}

var _ jobdomain.Provider = (*Provider)(nil)
