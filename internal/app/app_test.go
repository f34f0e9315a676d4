package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/remotejobs/internal/config"
	"github.com/honeycarbs/remotejobs/internal/domain"
	bqstorage "github.com/honeycarbs/remotejobs/internal/storage/bigquery"
	"github.com/honeycarbs/remotejobs/pkg/logging"
)

func TestProvideLoadersSkipsDisabledSinks(t *testing.T) {
	require.Empty(t, provideLoaders(nil, nil, nil))

	warehouse := &bqstorage.Loader{}
	loaders := provideLoaders(warehouse, nil, nil)
	require.Len(t, loaders, 1)
	require.Equal(t, "bigquery", loaders[0].Name())
}

func TestInitializePipelineFileMode(t *testing.T) {
	var category string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category = r.URL.Query().Get("category")
		_, _ = w.Write([]byte(`{"jobs":[{"id":1,"title":"t","company_logo":"l.png"},{"id":2}]}`))
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.Mode = config.ModeFile
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "remote_jobs.json")
	cfg.Remotive.BaseURL = srv.URL
	cfg.Remotive.Category = "software-dev"

	p, cleanup, err := InitializePipeline(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "software-dev", category)
	require.Equal(t, domain.StageDone, report.State)
	require.Equal(t, 2, report.Fetched)
	require.True(t, report.SnapshotKept)

	data, err := os.ReadFile(cfg.SnapshotPath)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	require.Equal(t, "l.png", got[0]["company_logo"])
}
