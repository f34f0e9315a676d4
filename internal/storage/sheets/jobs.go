package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
	"github.com/honeycarbs/remotejobs/pkg/logging"
)

const defaultTab = "Jobs"

var header = []interface{}{
	"id", "url", "title", "company_name", "category", "tags", "job_type",
	"publication_date", "candidate_required_location", "salary", "description",
}

type valuesClient interface {
	ClearValues(ctx context.Context, spreadsheetID, range_ string) error
	UpdateValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

var _ jobdomain.Loader = (*Exporter)(nil)

// Target is the spreadsheet tab the rows go to
type Target struct {
	SpreadsheetID string
	Tab           string
}

// Exporter replaces a sheet tab with the current listing. Like the warehouse
// table, the tab is overwritten on every run.
type Exporter struct {
	client valuesClient
	target Target
	logger *logging.Logger
}

func NewExporter(client valuesClient, target Target, logger *logging.Logger) (*Exporter, error) {
	if client == nil {
		return nil, fmt.Errorf("sheets exporter: client is required")
	}
	if target.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets exporter: spreadsheet id is required")
	}
	if target.Tab == "" {
		target.Tab = defaultTab
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{client: client, target: target, logger: logger}, nil
}

func (e *Exporter) Name() string {
	return "sheets"
}

func (e *Exporter) Load(ctx context.Context, batch jobdomain.Batch) error {
	batch.Enter(domain.StageLoadingData)

	if err := e.client.ClearValues(ctx, e.target.SpreadsheetID, fmt.Sprintf("%s!A:K", e.target.Tab)); err != nil {
		return fmt.Errorf("sheets: failed to clear sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(batch.Rows)+1)
	values = append(values, header)
	for _, row := range batch.Rows {
		values = append(values, rowValues(row))
	}

	if err := e.client.UpdateValues(ctx, e.target.SpreadsheetID, fmt.Sprintf("%s!A1", e.target.Tab), values); err != nil {
		return fmt.Errorf("sheets: failed to write rows: %w", err)
	}

	e.logger.Info("jobs exported to sheet", "spreadsheet_id", e.target.SpreadsheetID, "tab", e.target.Tab, "rows", len(batch.Rows))
	return nil
}

func rowValues(row domain.ProjectedRow) []interface{} {
	id := ""
	if row.ID != nil {
		id = strconv.FormatInt(*row.ID, 10)
	}
	return []interface{}{
		id,
		str(row.URL),
		str(row.Title),
		str(row.CompanyName),
		str(row.Category),
		strings.Join(row.Tags, ", "),
		str(row.JobType),
		str(row.PublicationDate),
		str(row.CandidateRequiredLocation),
		str(row.Salary),
		truncate(str(row.Description)),
	}
}

// Sheets rejects cells longer than 50000 characters
const maxCellLen = 50000

func truncate(s string) string {
	if len(s) <= maxCellLen {
		return s
	}
	cut := maxCellLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
