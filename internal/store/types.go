package store

import "time"

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

type Run struct {
	ID           string     `json:"id"`
	ManifestPath string     `json:"manifest_path"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	FailureClass string     `json:"failure_class,omitempty"`
	FailedStep   string     `json:"failed_step,omitempty"`
	FailedIndex  *int       `json:"failed_index,omitempty"`
	ExitCode     *int       `json:"exit_code,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	StepCount    int        `json:"step_count"`
}

type StepRecord struct {
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Command    string    `json:"command"` // sanitized before it reaches the store
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Dir        string    `json:"dir,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// FinishInput closes out a run row.
type FinishInput struct {
	Status       string
	FailureClass string
	FailedStep   string
	FailedIndex  *int
	ExitCode     *int
	EndedAt      time.Time
}
