package domain

import "fmt"

// Stage is a step of the per-run state machine. Transitions only move forward.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageFetching       Stage = "fetching"
	StageProjecting     Stage = "projecting"
	StageWriting        Stage = "writing"
	StageLoadingDataset Stage = "loading_dataset"
	StageLoadingTable   Stage = "loading_table"
	StageLoadingData    Stage = "loading_data"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// StageError records which stage a run failed in
type StageError struct {
	Stage Stage
	// Sink names the loader that failed, empty outside the load stages
	Sink string
	Err  error
}

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	if e.Sink != "" {
		return fmt.Sprintf("%s (%s): %v", e.Stage, e.Sink, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
