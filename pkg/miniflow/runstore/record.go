package runstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
)

// Version is the current record format version.
// Increment when making breaking changes to the stored layout.
const Version = 1

// Status is the lifecycle position of a run.
type Status string

const (
	// StatusPending means the run was accepted but no step has finished.
	StatusPending Status = "pending"
	// StatusRunning means at least one step has finished and the run continues.
	StatusRunning Status = "running"
	// StatusHalted means the run stopped normally.
	StatusHalted Status = "halted"
	// StatusFailed means a node error, panic, or cancellation aborted the run.
	StatusFailed Status = "failed"
)

// Finished reports whether the run has stopped.
func (s Status) Finished() bool {
	return s == StatusHalted || s == StatusFailed
}

// Record is the stored view of one run.
type Record struct {
	RunID     string         `json:"run_id"`
	GraphID   string         `json:"graph_id,omitempty"`
	Status    Status         `json:"status"`
	State     miniflow.State `json:"state"`
	Log       []string       `json:"log"`
	Halt      string         `json:"halt,omitempty"`
	Error     string         `json:"error,omitempty"`
	Step      int            `json:"step"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// envelope is the on-disk layout of a Record.
type envelope struct {
	Version int `json:"version"`
	Record
}

// Marshal serializes rec as versioned JSON.
func Marshal(rec Record) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: Version, Record: rec})
	if err != nil {
		return nil, fmt.Errorf("marshal run %s: %w", rec.RunID, err)
	}
	return data, nil
}

// Unmarshal deserializes a record written by Marshal.
func Unmarshal(data []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("unmarshal run: %w", err)
	}
	if env.Version > Version {
		return Record{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.State == nil {
		env.State = miniflow.State{}
	}
	return env.Record, nil
}

// stamp fills UpdatedAt and validates the run ID before a write.
func stamp(rec Record) (Record, error) {
	if rec.RunID == "" {
		return rec, ErrEmptyRunID
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return rec, nil
}
