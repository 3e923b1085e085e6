// Package artifact serializes filter run reports for inspection and replay.
//
// A report is a debugging artifact, not a contract other components parse
// back in: it snapshots the configuration, the counts, and the full kept
// and dropped lists of one filter run. Reports go through a named codec,
// optional frame compression, and a pluggable store (memory, local
// directory, S3, MinIO).
package artifact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbdebugger/graphsim"
)

// ErrNotFound is returned when an artifact does not exist in a store.
var ErrNotFound = errors.New("artifact not found")

// Store persists artifact bytes under string keys.
type Store interface {
	// Put writes data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the data under key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config is the configuration snapshot embedded in a report.
type Config struct {
	Model     string  `json:"model"`
	TopK      int     `json:"top_k"`
	Threshold float32 `json:"threshold"`
	Normalize bool    `json:"normalize"`
}

// Report is the payload of one filter run.
type Report struct {
	RunID             string                    `json:"run_id"`
	Config            Config                    `json:"config"`
	NumInputQualities int                       `json:"num_input_qualities"`
	NumKept           int                       `json:"num_kept"`
	NumDropped        int                       `json:"num_dropped"`
	KeptQualities     []graphsim.KeptQuality    `json:"kept_qualities"`
	DroppedQualities  []graphsim.DroppedQuality `json:"dropped_qualities"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// NewReport assembles a report from one filter run, assigning a fresh
// run ID and UTC timestamp.
func NewReport(cfg Config, kept []graphsim.KeptQuality, dropped []graphsim.DroppedQuality) Report {
	return Report{
		RunID:             uuid.NewString(),
		Config:            cfg,
		NumInputQualities: len(kept) + len(dropped),
		NumKept:           len(kept),
		NumDropped:        len(dropped),
		KeptQualities:     kept,
		DroppedQualities:  dropped,
		CreatedAt:         time.Now().UTC(),
	}
}
