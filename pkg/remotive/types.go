package remotive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Config defines Remotive API client settings
type Config struct {
	BaseURL    string
	Category   string
	Search     string
	Limit      int
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// Client queries the Remotive remote-jobs API
type Client struct {
	baseURL    string
	category   string
	search     string
	limit      int
	httpClient *http.Client
	userAgent  string
}

// StatusError is returned when the API answers with anything but 200 OK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remotive: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("remotive: unexpected status %d: %s", e.StatusCode, e.Body)
}

// remoteJobsResponse keeps each posting undecoded so that one malformed
// field cannot fail the whole listing.
type remoteJobsResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

// Job is a single posting as returned by the API. Fields missing from the
// payload stay nil. Values of an unexpected JSON type are coerced where
// possible and dropped otherwise; Raw is always the untouched document.
type Job struct {
	ID                        *int64   `json:"id,omitempty"`
	URL                       *string  `json:"url,omitempty"`
	Title                     *string  `json:"title,omitempty"`
	CompanyName               *string  `json:"company_name,omitempty"`
	CompanyLogo               *string  `json:"company_logo,omitempty"`
	Category                  *string  `json:"category,omitempty"`
	Tags                      []string `json:"tags,omitzero"`
	JobType                   *string  `json:"job_type,omitempty"`
	PublicationDate           *string  `json:"publication_date,omitempty"`
	CandidateRequiredLocation *string  `json:"candidate_required_location,omitempty"`
	Salary                    *string  `json:"salary,omitempty"`
	Description               *string  `json:"description,omitempty"`

	// Raw holds the posting exactly as received
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON never rejects well-formed JSON
func (j *Job) UnmarshalJSON(data []byte) error {
	*j = decodeJob(data)
	return nil
}

func decodeJob(data []byte) Job {
	j := Job{Raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// not an object; only the raw document survives
		return j
	}

	j.ID = intField(fields["id"])
	j.URL = stringField(fields["url"])
	j.Title = stringField(fields["title"])
	j.CompanyName = stringField(fields["company_name"])
	j.CompanyLogo = stringField(fields["company_logo"])
	j.Category = stringField(fields["category"])
	j.Tags = stringsField(fields["tags"])
	j.JobType = stringField(fields["job_type"])
	j.PublicationDate = stringField(fields["publication_date"])
	j.CandidateRequiredLocation = stringField(fields["candidate_required_location"])
	j.Salary = stringField(fields["salary"])
	j.Description = stringField(fields["description"])
	return j
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// stringField keeps strings as they are and any other value as its JSON text
func stringField(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(bytes.TrimSpace(raw))
	}
	return &s
}

// intField accepts integral numbers and numeric strings
func intField(raw json.RawMessage) *int64 {
	if isNull(raw) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return nil
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// stringsField reads an array of scalars; a lone scalar becomes one element
func stringsField(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{*stringField(raw)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringField(item); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
