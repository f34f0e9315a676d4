package localfs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/honeycarbs/remotejobs/internal/domain"
	jobdomain "github.com/honeycarbs/remotejobs/internal/domain/job"
)

var _ jobdomain.FileStore = Store{}

// Store implements job.FileStore on the local filesystem. Every write
// replaces the whole file.
type Store struct{}

// NewStore creates a Store
func NewStore() Store {
	return Store{}
}

// WriteJSON writes v as a two-space indented JSON document
func (Store) WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("localfs: encode %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

// WriteNDJSON writes one compact JSON document per row
func (Store) WriteNDJSON(path string, rows []domain.ProjectedRow) error {
	var buf bytes.Buffer
	if err := EncodeNDJSON(&buf, rows); err != nil {
		return fmt.Errorf("localfs: encode %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

// NDJSONPath derives the newline-delimited file name from a .json path
func (Store) NDJSONPath(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".ndjson"
	}
	return path + ".ndjson"
}

// Remove deletes the given files. Files that are already gone are ignored.
func (Store) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("localfs: remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// EncodeNDJSON writes rows separated by a single newline, without a trailing
// separator.
func EncodeNDJSON[T any](w io.Writer, rows []T) error {
	var line bytes.Buffer
	enc := json.NewEncoder(&line)
	enc.SetEscapeHTML(false)

	for i, row := range rows {
		line.Reset()
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		b := bytes.TrimSuffix(line.Bytes(), []byte("\n"))
		if i > 0 {
			if _, err := w.Write([]byte("\n")); err != nil {
				return err
			}
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("localfs: create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("localfs: write %s: %w", path, err)
	}
	return nil
}
