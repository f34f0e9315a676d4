package remotive

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFetchJobsIntegration(t *testing.T) {
	if os.Getenv("REMOTIVE_INTEGRATION") == "" {
		t.Skip("REMOTIVE_INTEGRATION must be set to run this test")
	}

	client, err := NewClient(Config{Limit: 5})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	jobs, err := client.FetchJobs(ctx)
	if err != nil {
		t.Fatalf("FetchJobs: %v", err)
	}

	if len(jobs) == 0 {
		t.Log("Remotive returned zero jobs; check category")
		return
	}

	for i, job := range jobs {
		if job.Title == nil || job.CompanyName == nil {
			continue
		}
		t.Logf("Result %d: %s @ %s", i+1, *job.Title, *job.CompanyName)
	}
	t.Logf("Remotive returned %d jobs", len(jobs))
}
