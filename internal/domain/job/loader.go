package job

import (
	"context"

	"github.com/honeycarbs/remotejobs/internal/domain"
)

// Loader is an optional final sink that receives the projected rows after the
// intermediate files have been written.
type Loader interface {
	Name() string
	Load(ctx context.Context, batch Batch) error
}

// FileStore writes and removes the intermediate artifacts of a run
type FileStore interface {
	WriteJSON(path string, v any) error
	WriteNDJSON(path string, rows []domain.ProjectedRow) error
	NDJSONPath(path string) string
	Remove(paths ...string) error
}

// Batch is what a Loader gets to work with. The files exist for the duration
// of the Load call only.
type Batch struct {
	Rows         []domain.ProjectedRow
	SnapshotPath string
	NDJSONPath   string

	enter func(domain.Stage)
}

// Enter reports that the loader moved to the given stage
func (b Batch) Enter(stage domain.Stage) {
	if b.enter != nil {
		b.enter(stage)
	}
}
