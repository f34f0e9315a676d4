package bigquery

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	gbq "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
	"github.com/honeycarbs/remotejobs/internal/storage/localfs"
	pkgbq "github.com/honeycarbs/remotejobs/pkg/bigquery"
	"github.com/honeycarbs/remotejobs/pkg/bigquery/bigquerytest"
)

func ptr[T any](v T) *T { return &v }

func TestSchemaMatchesProjectedRow(t *testing.T) {
	rt := reflect.TypeOf(domain.ProjectedRow{})
	require.Equal(t, rt.NumField(), len(JobSchema))

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		require.Equal(t, JobSchema[i].Name, name, "column %d", i)

		require.Equal(t, f.Type.Kind() == reflect.Slice, JobSchema[i].Repeated, name)
	}
}

func writeBatch(t *testing.T, rows []domain.ProjectedRow) jobdomain.Batch {
	t.Helper()
	store := localfs.NewStore()
	path := filepath.Join(t.TempDir(), "temp_jobs.json")
	ndjson := store.NDJSONPath(path)
	require.NoError(t, store.WriteNDJSON(ndjson, rows))
	return jobdomain.Batch{Rows: rows, SnapshotPath: path, NDJSONPath: ndjson}
}

func newFakeLoader(t *testing.T) (*Loader, *bigquerytest.Server) {
	t.Helper()
	srv := bigquerytest.NewServer()
	t.Cleanup(srv.Close)

	client, err := pkgbq.NewClient(context.Background(), pkgbq.Config{
		ProjectID:  "test-project",
		Endpoint:   srv.Endpoint(),
		HTTPClient: srv.HTTPClient(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewLoader(client, TableRef{DatasetID: "remote_jobs_dataset", TableID: "jobs"}, nil)
	require.NoError(t, err)
	return l, srv
}

func TestLoaderBootstrapsAndOverwrites(t *testing.T) {
	l, srv := newFakeLoader(t)
	ctx := context.Background()

	first := []domain.ProjectedRow{
		{ID: ptr(int64(1)), Title: ptr("a")},
		{ID: ptr(int64(2)), Title: ptr("b")},
	}
	require.NoError(t, l.Load(ctx, writeBatch(t, first)))

	second := []domain.ProjectedRow{
		{ID: ptr(int64(3)), Tags: []string{"remote"}, PublicationDate: ptr("2024-01-01T00:00:00Z")},
	}
	require.NoError(t, l.Load(ctx, writeBatch(t, second)))

	require.Equal(t, []string{"remote_jobs_dataset"}, srv.Datasets())
	require.Equal(t, []string{"remote_jobs_dataset.jobs"}, srv.Tables())
	require.Equal(t, 1, srv.Inserts("dataset"))
	require.Equal(t, 1, srv.Inserts("table"))

	tbl := srv.Table("remote_jobs_dataset", "jobs")
	require.Len(t, tbl.Rows, 1)
	require.JSONEq(t, `{"id":3,"tags":["remote"],"publication_date":"2024-01-01T00:00:00Z"}`, string(tbl.Rows[0]))
	require.Len(t, tbl.Schema.Fields, len(JobSchema))
	require.Equal(t, "TIMESTAMP", tbl.Schema.Fields[7].Type)
}

func TestLoaderStageErrors(t *testing.T) {
	cases := []struct {
		kind  string
		stage domain.Stage
	}{
		{"dataset", domain.StageLoadingDataset},
		{"table", domain.StageLoadingTable},
		{"job", domain.StageLoadingData},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			l, srv := newFakeLoader(t)
			srv.FailRequests(tc.kind, http.StatusForbidden)

			err := l.Load(context.Background(), writeBatch(t, []domain.ProjectedRow{{ID: ptr(int64(1))}}))

			var se *domain.StageError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tc.stage, se.Stage)
		})
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l, _ := newFakeLoader(t)

	err := l.Load(context.Background(), jobdomain.Batch{NDJSONPath: filepath.Join(t.TempDir(), "nope.ndjson")})

	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, domain.StageLoadingData, se.Stage)
	require.ErrorIs(t, err, os.ErrNotExist)
}

type stubClient struct {
	calls   []string
	loadErr error
}

func (s *stubClient) EnsureDataset(context.Context, string) (bool, error) {
	s.calls = append(s.calls, "dataset")
	return false, nil
}

func (s *stubClient) EnsureTable(_ context.Context, _, _ string, _ gbq.Schema) (bool, error) {
	s.calls = append(s.calls, "table")
	return false, nil
}

func (s *stubClient) Load(_ context.Context, req pkgbq.LoadRequest) (*pkgbq.LoadResult, error) {
	s.calls = append(s.calls, "load:"+string(req.WriteDisposition))
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return &pkgbq.LoadResult{JobID: "j"}, nil
}

func TestLoaderCallOrder(t *testing.T) {
	stub := &stubClient{}
	l, err := NewLoader(stub, TableRef{DatasetID: "d", TableID: "t"}, nil)
	require.NoError(t, err)

	require.NoError(t, l.Load(context.Background(), writeBatch(t, nil)))
	require.Equal(t, []string{"dataset", "table", "load:WRITE_TRUNCATE"}, stub.calls)
}

func TestLoaderWrapsJobError(t *testing.T) {
	jobErr := &pkgbq.JobError{JobID: "j"}
	l, err := NewLoader(&stubClient{loadErr: jobErr}, TableRef{DatasetID: "d", TableID: "t"}, nil)
	require.NoError(t, err)

	err = l.Load(context.Background(), writeBatch(t, nil))

	var target *pkgbq.JobError
	require.True(t, errors.As(err, &target))
}

func TestNewLoaderValidates(t *testing.T) {
	_, err := NewLoader(nil, TableRef{DatasetID: "d", TableID: "t"}, nil)
	require.Error(t, err)

	_, err = NewLoader(&stubClient{}, TableRef{DatasetID: "d"}, nil)
	require.Error(t, err)
}
