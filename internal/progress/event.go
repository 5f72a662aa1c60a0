// Package progress defines the event stream emitted by a crawl run and the
// hub that fans it out to sinks without blocking the crawl loop.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind denotes the type of milestone represented by an Event.
type Kind string

// Supported progress event kinds.
const (
	KindRunStart     Kind = "RUN_START"
	KindStageChange  Kind = "STAGE_CHANGE"
	KindRecordDone   Kind = "RECORD_DONE"
	KindRecordFailed Kind = "RECORD_FAILED"
	KindRunDone      Kind = "RUN_DONE"
)

// Event captures a single milestone of a crawl run.
type Event struct {
	// RunID identifies the crawl run the event belongs to.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Kind denotes which milestone occurred.
	Kind Kind
	// Stage names the pipeline stage active when the event fired.
	Stage string
	// Source optionally scopes the event to a data source name.
	Source string
	// Title is the policy title for record-level events.
	Title string
	// Processed/Succeeded/Failed/Total mirror the run counters at emit time.
	Processed int
	Succeeded int
	Failed    int
	Total     int
	// Status carries the terminal run status for RUN_DONE events.
	Status string
	// Dur captures wall time for completed runs.
	Dur time.Duration
	// Message is the human-readable progress line shown to callback consumers.
	Message string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindRunStart, KindStageChange, KindRunDone:
	case KindRecordDone, KindRecordFailed:
		if e.Title == "" {
			return errors.New("record events require a title")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
