package sheets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
)

func ptr[T any](v T) *T { return &v }

type fakeValues struct {
	cleared  []string
	updated  string
	values   [][]interface{}
	clearErr error
}

func (f *fakeValues) ClearValues(_ context.Context, id, rng string) error {
	f.cleared = append(f.cleared, id+"/"+rng)
	return f.clearErr
}

func (f *fakeValues) UpdateValues(_ context.Context, id, rng string, values [][]interface{}) error {
	f.updated = id + "/" + rng
	f.values = values
	return nil
}

func TestExporterOverwritesTab(t *testing.T) {
	fake := &fakeValues{}
	e, err := NewExporter(fake, Target{SpreadsheetID: "sheet-1"}, nil)
	require.NoError(t, err)

	rows := []domain.ProjectedRow{
		{ID: ptr(int64(5)), Title: ptr("Go dev"), Tags: []string{"go", "k8s"}},
		{},
	}
	require.NoError(t, e.Load(context.Background(), jobdomain.Batch{Rows: rows}))

	require.Equal(t, []string{"sheet-1/Jobs!A:K"}, fake.cleared)
	require.Equal(t, "sheet-1/Jobs!A1", fake.updated)
	require.Len(t, fake.values, 3)
	require.Equal(t, header, fake.values[0])
	require.Equal(t, "5", fake.values[1][0])
	require.Equal(t, "Go dev", fake.values[1][2])
	require.Equal(t, "go, k8s", fake.values[1][5])
	require.Equal(t, "", fake.values[2][0])
}

func TestExporterClearFailure(t *testing.T) {
	fake := &fakeValues{clearErr: errors.New("denied")}
	e, err := NewExporter(fake, Target{SpreadsheetID: "s", Tab: "Remote"}, nil)
	require.NoError(t, err)

	err = e.Load(context.Background(), jobdomain.Batch{})
	require.ErrorContains(t, err, "failed to clear sheet")
	require.Empty(t, fake.updated)
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("a", maxCellLen-1) + "é" + "tail"
	out := truncate(s)
	require.Equal(t, maxCellLen-1, len(out))
	require.Equal(t, "short", truncate("short"))
}

func TestNewExporterValidates(t *testing.T) {
	_, err := NewExporter(&fakeValues{}, Target{}, nil)
	require.Error(t, err)
}
