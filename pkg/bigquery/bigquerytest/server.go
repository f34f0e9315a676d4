// Package bigquerytest provides an in-memory stand-in for the parts of the
// BigQuery REST API the loader uses: dataset and table inserts, multipart
// load-job uploads and job polling. Point a client at it with
// option.WithEndpoint and option.WithHTTPClient.
package bigquerytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	bq "google.golang.org/api/bigquery/v2"
)

// Table is the stored state of a fake table
type Table struct {
	Schema *bq.TableSchema
	Rows   []json.RawMessage
}

// Server is a fake BigQuery endpoint backed by maps
type Server struct {
	srv *httptest.Server

	mu            sync.Mutex
	datasets      map[string]*bq.Dataset
	tables        map[string]*Table
	jobs          map[string]*bq.Job
	pending       map[string]int
	inserts       map[string]int
	nextJobErrors []*bq.ErrorProto
	nextPolls     int
	failStatus    map[string]int
}

// NewServer starts a fake server. It is closed when the test ends if the
// caller registers Close with t.Cleanup.
func NewServer() *Server {
	s := &Server{
		datasets:   make(map[string]*bq.Dataset),
		tables:     make(map[string]*Table),
		jobs:       make(map[string]*bq.Job),
		pending:    make(map[string]int),
		inserts:    make(map[string]int),
		failStatus: make(map[string]int),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Close shuts the server down
func (s *Server) Close() {
	s.srv.Close()
}

// Endpoint is the base path to pass to option.WithEndpoint
func (s *Server) Endpoint() string {
	return s.srv.URL + "/bigquery/v2/"
}

// HTTPClient returns a client that talks to the server without credentials
func (s *Server) HTTPClient() *http.Client {
	return s.srv.Client()
}

// Datasets lists existing dataset IDs
func (s *Server) Datasets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.datasets)
}

// Tables lists existing tables as "dataset.table"
func (s *Server) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.tables)
}

// Table returns a copy of the stored table, or nil
func (s *Server) Table(datasetID, tableID string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[datasetID+"."+tableID]
	if !ok {
		return nil
	}
	return &Table{
		Schema: t.Schema,
		Rows:   append([]json.RawMessage(nil), t.Rows...),
	}
}

// Job returns the stored job, or nil
func (s *Server) Job(jobID string) *bq.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[jobID]
}

// Inserts counts successful create calls by kind: "dataset", "table", "job"
func (s *Server) Inserts(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts[kind]
}

// FailNextLoad makes the next load job finish as DONE with these errors
func (s *Server) FailNextLoad(errs ...*bq.ErrorProto) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextJobErrors = errs
}

// DelayNextLoad keeps the next load job RUNNING for n polls
func (s *Server) DelayNextLoad(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolls = n
}

// FailRequests answers every request for kind ("dataset", "table", "job")
// with the given HTTP status
func (s *Server) FailRequests(kind string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus[kind] = status
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	idx := strings.Index(r.URL.Path, "/projects/")
	if idx < 0 {
		writeError(w, http.StatusNotFound, "notFound", "unknown path "+r.URL.Path)
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path[idx+len("/projects/"):], "/"), "/")

	switch {
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "datasets":
		s.insertDataset(w, r, parts[0])
	case r.Method == http.MethodPost && len(parts) == 4 && parts[1] == "datasets" && parts[3] == "tables":
		s.insertTable(w, r, parts[0], parts[2])
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "jobs":
		s.insertJob(w, r, parts[0])
	case r.Method == http.MethodGet && len(parts) == 3 && parts[1] == "jobs":
		s.getJob(w, parts[2])
	default:
		writeError(w, http.StatusNotFound, "notFound", fmt.Sprintf("unsupported %s %s", r.Method, r.URL.Path))
	}
}

func (s *Server) insertDataset(w http.ResponseWriter, r *http.Request, project string) {
	var ds bq.Dataset
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil || ds.DatasetReference == nil {
		writeError(w, http.StatusBadRequest, "invalid", "bad dataset body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if code := s.failStatus["dataset"]; code != 0 {
		writeError(w, code, "accessDenied", "dataset insert failed")
		return
	}

	id := ds.DatasetReference.DatasetId
	if _, ok := s.datasets[id]; ok {
		writeError(w, http.StatusConflict, "duplicate", "Already Exists: Dataset "+project+":"+id)
		return
	}
	ds.Id = project + ":" + id
	s.datasets[id] = &ds
	s.inserts["dataset"]++
	writeJSON(w, &ds)
}

func (s *Server) insertTable(w http.ResponseWriter, r *http.Request, project, datasetID string) {
	var tbl bq.Table
	if err := json.NewDecoder(r.Body).Decode(&tbl); err != nil || tbl.TableReference == nil {
		writeError(w, http.StatusBadRequest, "invalid", "bad table body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if code := s.failStatus["table"]; code != 0 {
		writeError(w, code, "accessDenied", "table insert failed")
		return
	}
	if _, ok := s.datasets[datasetID]; !ok {
		writeError(w, http.StatusNotFound, "notFound", "Not found: Dataset "+project+":"+datasetID)
		return
	}

	key := datasetID + "." + tbl.TableReference.TableId
	if _, ok := s.tables[key]; ok {
		writeError(w, http.StatusConflict, "duplicate", "Already Exists: Table "+project+":"+key)
		return
	}
	s.tables[key] = &Table{Schema: tbl.Schema}
	s.inserts["table"]++
	writeJSON(w, &tbl)
}

func (s *Server) insertJob(w http.ResponseWriter, r *http.Request, project string) {
	job, data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	if job.JobReference == nil || job.JobReference.JobId == "" {
		writeError(w, http.StatusBadRequest, "invalid", "job reference is required")
		return
	}
	if job.Configuration == nil || job.Configuration.Load == nil {
		writeError(w, http.StatusBadRequest, "invalid", "only load jobs are supported")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if code := s.failStatus["job"]; code != 0 {
		writeError(w, code, "accessDenied", "job insert failed")
		return
	}

	jobID := job.JobReference.JobId
	if _, ok := s.jobs[jobID]; ok {
		writeError(w, http.StatusConflict, "duplicate", "Already Exists: Job "+project+":"+jobID)
		return
	}

	job.Id = project + ":" + jobID
	job.Status = &bq.JobStatus{State: "DONE"}

	if len(s.nextJobErrors) > 0 {
		job.Status.Errors = s.nextJobErrors
		job.Status.ErrorResult = s.nextJobErrors[0]
		s.nextJobErrors = nil
	} else if errProto := s.applyLoad(job.Configuration.Load, data); errProto != nil {
		job.Status.Errors = []*bq.ErrorProto{errProto}
		job.Status.ErrorResult = errProto
	} else {
		job.Statistics = &bq.JobStatistics{
			Load: &bq.JobStatistics3{OutputRows: int64(len(splitRows(data)))},
		}
	}

	if s.nextPolls > 0 {
		s.pending[jobID] = s.nextPolls
		s.nextPolls = 0
	}

	s.jobs[jobID] = job
	s.inserts["job"]++
	writeJSON(w, s.view(jobID))
}

func (s *Server) getJob(w http.ResponseWriter, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		writeError(w, http.StatusNotFound, "notFound", "Not found: Job "+jobID)
		return
	}
	if s.pending[jobID] > 0 {
		s.pending[jobID]--
	}
	writeJSON(w, s.view(jobID))
}

// view returns the job as a client would see it right now
func (s *Server) view(jobID string) *bq.Job {
	job := s.jobs[jobID]
	if s.pending[jobID] == 0 {
		return job
	}
	running := *job
	running.Status = &bq.JobStatus{State: "RUNNING"}
	running.Statistics = nil
	return &running
}

func (s *Server) applyLoad(load *bq.JobConfigurationLoad, data []byte) *bq.ErrorProto {
	dst := load.DestinationTable
	if dst == nil {
		return &bq.ErrorProto{Reason: "invalid", Message: "destination table is required"}
	}
	tbl, ok := s.tables[dst.DatasetId+"."+dst.TableId]
	if !ok {
		return &bq.ErrorProto{Reason: "notFound", Message: "Not found: Table " + dst.DatasetId + "." + dst.TableId}
	}
	if load.SourceFormat != "NEWLINE_DELIMITED_JSON" {
		return &bq.ErrorProto{Reason: "invalid", Message: "unsupported source format " + load.SourceFormat}
	}

	rows := splitRows(data)
	for i, row := range rows {
		if !json.Valid(row) {
			return &bq.ErrorProto{Reason: "invalid", Message: fmt.Sprintf("row %d is not valid JSON", i)}
		}
	}

	switch load.WriteDisposition {
	case "WRITE_TRUNCATE":
		tbl.Rows = rows
	case "WRITE_APPEND", "":
		tbl.Rows = append(tbl.Rows, rows...)
	case "WRITE_EMPTY":
		if len(tbl.Rows) > 0 {
			return &bq.ErrorProto{Reason: "duplicate", Message: "table is not empty"}
		}
		tbl.Rows = rows
	default:
		return &bq.ErrorProto{Reason: "invalid", Message: "unknown write disposition " + load.WriteDisposition}
	}
	return nil
}

func readUpload(r *http.Request) (*bq.Job, []byte, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse content type: %w", err)
	}

	var job bq.Job
	if !strings.HasPrefix(mediaType, "multipart/") {
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			return nil, nil, fmt.Errorf("decode job: %w", err)
		}
		return &job, nil, nil
	}

	mr := multipart.NewReader(r.Body, params["boundary"])

	meta, err := mr.NextPart()
	if err != nil {
		return nil, nil, fmt.Errorf("read metadata part: %w", err)
	}
	if err := json.NewDecoder(meta).Decode(&job); err != nil {
		return nil, nil, fmt.Errorf("decode job: %w", err)
	}

	media, err := mr.NextPart()
	if err != nil {
		return nil, nil, fmt.Errorf("read media part: %w", err)
	}
	data, err := io.ReadAll(media)
	if err != nil {
		return nil, nil, fmt.Errorf("read media: %w", err)
	}
	return &job, data, nil
}

func splitRows(data []byte) []json.RawMessage {
	var rows []json.RawMessage
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rows = append(rows, json.RawMessage(append([]byte(nil), line...)))
	}
	return rows
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, reason, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
			"errors": []map[string]string{
				{"reason": reason, "message": msg},
			},
		},
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
