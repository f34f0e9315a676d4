package job

import "github.com/honeycarbs/remotejobs/internal/domain"

// Project maps every record to a warehouse row. Nothing is filtered or
// validated; absent fields stay absent.
func Project(records []domain.JobRecord) []domain.ProjectedRow {
	rows := make([]domain.ProjectedRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.ProjectedRow{
			ID:                        r.ID,
			URL:                       r.URL,
			Title:                     r.Title,
			CompanyName:               r.CompanyName,
			Category:                  r.Category,
			Tags:                      r.Tags,
			JobType:                   r.JobType,
			PublicationDate:           r.PublicationDate,
			CandidateRequiredLocation: r.CandidateRequiredLocation,
			Salary:                    r.Salary,
			Description:               r.Description,
		})
	}
	return rows
}
