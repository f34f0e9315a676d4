package job_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/remotejobs/internal/domain"
	"github.com/honeycarbs/remotejobs/internal/domain/job"
)

const scenarioJob = `{"id":1,"url":"u","title":"t","company_name":"c","category":"software-dev","tags":["remote"],"job_type":"full_time","publication_date":"2024-01-01T00:00:00Z","candidate_required_location":"Worldwide","salary":"","description":"d"}`

func decodeRecords(t *testing.T, raw string) []domain.JobRecord {
	t.Helper()
	var records []domain.JobRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

func TestProjectScenario(t *testing.T) {
	records := decodeRecords(t, "["+scenarioJob+"]")

	rows := job.Project(records)
	require.Len(t, rows, 1)

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	require.JSONEq(t, scenarioJob, string(out))
}

func TestProjectPreservesLengthAndOrder(t *testing.T) {
	records := decodeRecords(t, `[
		{"id": 3, "title": "c", "company_logo": "dropped.png"},
		{"id": 1},
		{},
		{"id": 2, "tags": []}
	]`)

	rows := job.Project(records)
	require.Len(t, rows, len(records))

	for i, r := range records {
		require.Equal(t, r.ID, rows[i].ID)
		require.Equal(t, r.Title, rows[i].Title)
		require.Equal(t, r.Tags, rows[i].Tags)
	}

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"id":3,"title":"c"}`, string(out))

	out, err = json.Marshal(rows[2])
	require.NoError(t, err)
	require.Equal(t, `{}`, string(out))
}

func TestProjectEmpty(t *testing.T) {
	rows := job.Project(nil)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}
