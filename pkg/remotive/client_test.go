package remotive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleBody = `{
	"0-legal-notice": "notice",
	"job-count": 2,
	"jobs": [
		{
			"id": 1,
			"url": "u",
			"title": "t",
			"company_name": "c",
			"company_logo": "logo.png",
			"category": "software-dev",
			"tags": ["remote"],
			"job_type": "full_time",
			"publication_date": "2024-01-01T00:00:00Z",
			"candidate_required_location": "Worldwide",
			"salary": "",
			"description": "d"
		},
		{"id": 2, "title": "only title"}
	]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestFetchJobsDecodesPostings(t *testing.T) {
	var gotPath, gotCategory, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCategory = r.URL.Query().Get("category")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	jobs, err := c.FetchJobs(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/api/remote-jobs", gotPath)
	require.Equal(t, "software-dev", gotCategory)
	require.Equal(t, "application/json", gotAccept)

	require.Len(t, jobs, 2)
	require.Equal(t, int64(1), *jobs[0].ID)
	require.Equal(t, "c", *jobs[0].CompanyName)
	require.Equal(t, []string{"remote"}, jobs[0].Tags)
	require.Equal(t, "", *jobs[0].Salary)
	require.Contains(t, string(jobs[0].Raw), `"company_logo": "logo.png"`)

	require.Equal(t, "only title", *jobs[1].Title)
	require.Nil(t, jobs[1].URL)
	require.Nil(t, jobs[1].Tags)
}

func TestFetchJobsToleratesMistypedFields(t *testing.T) {
	body := `{"jobs":[
		{"id":1,"title":"ok"},
		{"id":"2","salary":50000,"tags":"go","title":null},
		{"id":"n/a","tags":["go",3,null],"description":{"html":"<p>"}},
		"not an object",
		{"tags":[]}
	]}`
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	jobs, err := c.FetchJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	require.Equal(t, "ok", *jobs[0].Title)

	require.Equal(t, int64(2), *jobs[1].ID)
	require.Equal(t, "50000", *jobs[1].Salary)
	require.Equal(t, []string{"go"}, jobs[1].Tags)
	require.Nil(t, jobs[1].Title)
	require.JSONEq(t, `{"id":"2","salary":50000,"tags":"go","title":null}`, string(jobs[1].Raw))

	require.Nil(t, jobs[2].ID)
	require.Equal(t, []string{"go", "3"}, jobs[2].Tags)
	require.JSONEq(t, `{"html":"<p>"}`, *jobs[2].Description)

	require.Nil(t, jobs[3].ID)
	require.Equal(t, `"not an object"`, string(jobs[3].Raw))

	require.NotNil(t, jobs[4].Tags)
	require.Empty(t, jobs[4].Tags)
}

func TestFetchJobsMissingJobsKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"job-count": 0}`))
	})

	jobs, err := c.FetchJobs(context.Background())
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
}

func TestFetchJobsNonOKStatus(t *testing.T) {
	for _, code := range []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("  slow down  "))
		})

		jobs, err := c.FetchJobs(context.Background())
		require.Nil(t, jobs)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, code, statusErr.StatusCode)
		if code != http.StatusNoContent {
			require.Equal(t, "slow down", statusErr.Body)
		}
	}
}

func TestFetchJobsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.FetchJobs(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "remotive: request failed")

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestFetchJobsBadPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jobs": [`))
	})

	_, err := c.FetchJobs(context.Background())
	require.ErrorContains(t, err, "remotive: decode response")
}

func TestBuildURLOptionalParams(t *testing.T) {
	c, err := NewClient(Config{
		BaseURL:  "https://example.test/",
		Category: "devops",
		Search:   "golang",
		Limit:    25,
	})
	require.NoError(t, err)

	u, err := c.buildURL()
	require.NoError(t, err)
	require.Equal(t, "https://example.test/api/remote-jobs?category=devops&limit=25&search=golang", u)
}

func TestNewClientRejectsNegativeLimit(t *testing.T) {
	_, err := NewClient(Config{Limit: -1})
	require.Error(t, err)
}
