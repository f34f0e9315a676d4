package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunID identifies a single pipeline invocation
type RunID = uuid.UUID

// JobRecord is a posting as fetched from the source API. Fields absent
// upstream are nil.
type JobRecord struct {
	ID                        *int64   `json:"id,omitempty"`
	URL                       *string  `json:"url,omitempty"`
	Title                     *string  `json:"title,omitempty"`
	CompanyName               *string  `json:"company_name,omitempty"`
	Category                  *string  `json:"category,omitempty"`
	Tags                      []string `json:"tags,omitzero"`
	JobType                   *string  `json:"job_type,omitempty"`
	PublicationDate           *string  `json:"publication_date,omitempty"`
	CandidateRequiredLocation *string  `json:"candidate_required_location,omitempty"`
	Salary                    *string  `json:"salary,omitempty"`
	Description               *string  `json:"description,omitempty"`

	// Raw is the upstream document; when set it is what gets marshaled
	Raw json.RawMessage `json:"-"`
}

// MarshalJSON emits the upstream document verbatim when available so that a
// snapshot of fetched records is an identity copy of the source.
func (r JobRecord) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain JobRecord
	return json.Marshal(plain(r))
}

func (r *JobRecord) UnmarshalJSON(data []byte) error {
	type plain JobRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = JobRecord(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ProjectedRow is the warehouse row shape. Field order and JSON names must
// match the declared table schema.
type ProjectedRow struct {
	ID                        *int64   `json:"id,omitempty"`
	URL                       *string  `json:"url,omitempty"`
	Title                     *string  `json:"title,omitempty"`
	CompanyName               *string  `json:"company_name,omitempty"`
	Category                  *string  `json:"category,omitempty"`
	Tags                      []string `json:"tags,omitzero"`
	JobType                   *string  `json:"job_type,omitempty"`
	PublicationDate           *string  `json:"publication_date,omitempty"`
	CandidateRequiredLocation *string  `json:"candidate_required_location,omitempty"`
	Salary                    *string  `json:"salary,omitempty"`
	Description               *string  `json:"description,omitempty"`
}

// Report summarizes one pipeline run
type Report struct {
	RunID        RunID
	State        Stage
	// Stages lists every state the run went through, in order
	Stages       []Stage
	Fetched      int
	SnapshotPath string
	// SnapshotKept is true when the snapshot is the run's persisted output
	SnapshotKept bool
	Loaded       []string
	StartedAt    time.Time
	FinishedAt   time.Time
}
