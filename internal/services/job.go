package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cellcount/internal/analysis"
	"cellcount/internal/imageio"
	"cellcount/internal/logger"
	"cellcount/internal/models"
	"cellcount/internal/segmentation"
	"cellcount/internal/timing"
)

// Stage names recorded by the timing tracker.
const (
	StageRead    = "read"
	StageSegment = "segment"
	StageMetrics = "metrics"
	StageOverlay = "overlay"
	StageWrite   = "write"
)

// Job is one background analysis. Its parameters are fixed at start; the result or error is
// available once Done is closed.
type Job struct {
	id     string
	params models.JobParameters
	token  *models.CancellationToken

	mu     sync.RWMutex
	state  models.JobState
	result *models.JobResult
	err    error
	done   chan struct{}
}

func newJob(id string, params models.JobParameters, token *models.CancellationToken) *Job {
	return &Job{
		id:     id,
		params: params,
		token:  token,
		state:  models.JobRunning,
		done:   make(chan struct{}),
	}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) Parameters() models.JobParameters {
	return j.params
}

func (j *Job) State() models.JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Done is closed after the job's notification has been delivered.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result returns the completed result, or the failure. Both are nil while running and after
// a cancellation.
func (j *Job) Result() (*models.JobResult, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.err
}

// Cancel requests a stop at the next checkpoint.
func (j *Job) Cancel() {
	j.token.Cancel()
}

func (j *Job) finish(state models.JobState, result *models.JobResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
	j.result = result
	j.err = err
}

// jobEnv is what a job needs from its service.
type jobEnv struct {
	codec      imageio.Codec
	adapter    *segmentation.Adapter
	tracker    *timing.Tracker
	logger     logger.Logger
	progress   func(stage string, progress float64)
	checkpoint func(models.Checkpoint)
}

func (j *Job) checkpoint(env jobEnv, cp models.Checkpoint) error {
	if env.checkpoint != nil {
		env.checkpoint(cp)
	}
	if j.token.IsCancelled() {
		env.logger.Info("Job", "cancellation observed", map[string]interface{}{
			"job_id":     j.id,
			"checkpoint": cp.String(),
		})
		return models.ErrCancelled
	}
	return nil
}

// run executes the job sequence. It returns models.ErrCancelled when a checkpoint observes
// the token; files written before that point stay on disk.
func (j *Job) run(ctx context.Context, env jobEnv) (result *models.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := time.Now()
	p := j.params

	env.progress("Reading image", 0.05)
	span := env.tracker.Start(StageRead)
	src, err := env.codec.Read(p.ImagePath)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if err := j.checkpoint(env, models.CheckpointBeforeSegmentation); err != nil {
		return nil, err
	}

	env.progress("Segmenting", 0.1)
	span = env.tracker.Start(StageSegment)
	segmented, err := env.adapter.Segment(ctx, p.ImagePath, src, p.Diameter, p.VariantName)
	span.End()
	if err != nil {
		return nil, err
	}

	if err := j.checkpoint(env, models.CheckpointBeforePersistence); err != nil {
		return nil, err
	}

	env.progress("Measuring", 0.8)
	span = env.tracker.Start(StageMetrics)
	metrics := analysis.ExtractMetrics(segmented.Mask)
	span.End()

	env.progress("Rendering overlay", 0.85)
	span = env.tracker.Start(StageOverlay)
	outlines := analysis.Outlines(segmented.Mask)
	overlay, err := analysis.RenderOverlay(src, outlines)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("failed to render overlay: %w", err)
	}
	env.logger.Debug("Job", "overlay rendered", map[string]interface{}{
		"cells":          metrics.CellCount,
		"outline_pixels": outlines.Count(),
	})

	env.progress("Saving results", 0.9)
	span = env.tracker.Start(StageWrite)
	maskPath := imageio.MaskPath(p.OutputFolder, p.ImagePath, p.MaskFormat)
	if err := env.codec.WriteMask(maskPath, segmented.Mask); err != nil {
		span.End()
		return nil, &models.PersistenceError{Path: maskPath, Err: err}
	}
	overlayPath := imageio.OverlayPath(p.OutputFolder, p.ImagePath)
	if err := env.codec.WriteOverlay(overlayPath, overlay); err != nil {
		span.End()
		return nil, &models.PersistenceError{Path: overlayPath, Err: err}
	}
	span.End()

	result = &models.JobResult{
		JobID:       j.id,
		CellCount:   metrics.CellCount,
		MeanAreaPx:  metrics.MeanAreaPx,
		MaskPath:    maskPath,
		OverlayPath: overlayPath,
		Note:        segmented.Note,
		Variant:     segmented.Variant,
		Duration:    time.Since(start),
	}
	if area, ok := analysis.PhysicalArea(metrics.MeanAreaPx, p.PixelScale); ok {
		result.MeanAreaUm2 = &area
	}

	return result, nil
}
