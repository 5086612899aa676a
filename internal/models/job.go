package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// JobParameters are fixed when a job starts and never change afterwards.
type JobParameters struct {
	ImagePath    string
	OutputFolder string
	// Diameter is the expected object size in pixels; 0 lets the model estimate it.
	Diameter float64
	// VariantName is the raw selector value; it is resolved with ParseVariant.
	VariantName string
	// PixelScale is the physical length of one pixel (µm); 0 means absent.
	PixelScale float64
	// MaskFormat is the file extension for saved masks and overlays, "png" or "tif".
	MaskFormat string
}

// JobResult is emitted exactly once per successful job.
type JobResult struct {
	JobID       string        `json:"job_id"`
	CellCount   int           `json:"cell_count"`
	MeanAreaPx  float64       `json:"mean_area_px"`
	MeanAreaUm2 *float64      `json:"mean_area_um2,omitempty"`
	MaskPath    string        `json:"mask_path"`
	OverlayPath string        `json:"overlay_path"`
	Note        string        `json:"note,omitempty"`
	Variant     Variant       `json:"variant"`
	Duration    time.Duration `json:"duration_ns"`
}

// JobState is the background job lifecycle.
type JobState int

const (
	JobIdle JobState = iota
	JobRunning
	JobCompleted
	JobFailed
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobRunning:
		return "running"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Checkpoint is a point in the job sequence where the cancellation token is observed.
type Checkpoint int

const (
	// CheckpointBeforeSegmentation runs after the image is read, before the model call.
	CheckpointBeforeSegmentation Checkpoint = iota + 1
	// CheckpointBeforePersistence runs after the model returns, before any file is written.
	CheckpointBeforePersistence
)

// Checkpoints is the complete, ordered list of cancellation checkpoints.
var Checkpoints = []Checkpoint{CheckpointBeforeSegmentation, CheckpointBeforePersistence}

func (c Checkpoint) String() string {
	switch c {
	case CheckpointBeforeSegmentation:
		return "before_segmentation"
	case CheckpointBeforePersistence:
		return "before_persistence"
	default:
		return "unknown"
	}
}

// ParseDiameter reads the optional diameter field. Empty, "auto" and 0 mean auto-estimate.
func ParseDiameter(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return 0, nil
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, NewValidationError("diameter", text, "must be a positive number or \"auto\"")
	}
	if value < 0 {
		return 0, NewValidationError("diameter", text, "must not be negative")
	}

	return value, nil
}
