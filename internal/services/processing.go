package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"cellcount/internal/analysis"
	"cellcount/internal/imageio"
	"cellcount/internal/logger"
	"cellcount/internal/models"
	"cellcount/internal/segmentation"
	"cellcount/internal/timing"
)

// Callbacks receive job notifications on the worker goroutine. Exactly one of them fires per
// job. Any of them may be nil.
type Callbacks struct {
	OnCompleted func(result models.JobResult)
	OnFailed    func(message string)
	OnCancelled func(jobID string)
}

// ProcessingService runs at most one analysis job at a time.
type ProcessingService struct {
	codec     imageio.Codec
	adapter   *segmentation.Adapter
	stateRepo *models.ProcessingStateRepository
	tracker   *timing.Tracker
	logger    logger.Logger

	mu        sync.RWMutex
	callbacks Callbacks
	current   *Job

	// ctx outlives individual jobs; cancelling it kills a running model process.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	nextID atomic.Uint64

	checkpointHook func(jobID string, cp models.Checkpoint)
}

func NewProcessingService(
	codec imageio.Codec,
	segmenter segmentation.Segmenter,
	stateRepo *models.ProcessingStateRepository,
	log logger.Logger,
) *ProcessingService {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if stateRepo == nil {
		stateRepo = models.NewProcessingStateRepository()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &ProcessingService{
		codec:     codec,
		adapter:   segmentation.NewAdapter(segmenter),
		stateRepo: stateRepo,
		tracker:   timing.NewTracker(),
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (ps *ProcessingService) SetCallbacks(callbacks Callbacks) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.callbacks = callbacks
}

// Start validates params and launches the job. It fails synchronously with
// models.ErrAlreadyRunning or a *models.ValidationError; in both cases no worker starts and
// an active job is left untouched.
func (ps *ProcessingService) Start(params models.JobParameters) (*Job, error) {
	if ps.stateRepo.IsProcessing() {
		return nil, models.ErrAlreadyRunning
	}

	if err := ps.ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing service is shut down: %w", err)
	}

	validated, err := ValidateParameters(params)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("job-%d", ps.nextID.Add(1))
	token, ok := ps.stateRepo.TryStart(id)
	if !ok {
		return nil, models.ErrAlreadyRunning
	}

	job := newJob(id, validated, token)

	ps.mu.Lock()
	ps.current = job
	ps.mu.Unlock()

	ps.logger.Info("ProcessingService", "job started", map[string]interface{}{
		"job_id":   id,
		"image":    validated.ImagePath,
		"output":   validated.OutputFolder,
		"variant":  validated.VariantName,
		"diameter": validated.Diameter,
	})

	ps.wg.Add(1)
	go ps.work(job)

	return job, nil
}

func (ps *ProcessingService) work(job *Job) {
	defer ps.wg.Done()
	defer close(job.done)

	env := jobEnv{
		codec:   ps.codec,
		adapter: ps.adapter,
		tracker: ps.tracker,
		logger:  ps.logger,
		progress: func(stage string, progress float64) {
			ps.stateRepo.UpdateProgress(job.id, stage, progress)
		},
	}
	if hook := ps.checkpointHook; hook != nil {
		env.checkpoint = func(cp models.Checkpoint) { hook(job.id, cp) }
	}

	result, err := job.run(ps.ctx, env)
	if err != nil && job.token.IsCancelled() && ps.ctx.Err() != nil {
		// The model process was killed by Shutdown.
		err = models.ErrCancelled
	}

	ps.mu.RLock()
	callbacks := ps.callbacks
	ps.mu.RUnlock()

	switch {
	case errors.Is(err, models.ErrCancelled):
		job.finish(models.JobCancelled, nil, nil)
		ps.stateRepo.Finish(job.id, models.JobCancelled)
		ps.logger.Info("ProcessingService", "job cancelled", map[string]interface{}{
			"job_id": job.id,
		})
		if callbacks.OnCancelled != nil {
			callbacks.OnCancelled(job.id)
		}

	case err != nil:
		job.finish(models.JobFailed, nil, err)
		ps.stateRepo.Finish(job.id, models.JobFailed)
		ps.logger.Error("ProcessingService", err, map[string]interface{}{
			"job_id": job.id,
		})
		if callbacks.OnFailed != nil {
			callbacks.OnFailed(err.Error())
		}

	default:
		job.finish(models.JobCompleted, result, nil)
		ps.stateRepo.Finish(job.id, models.JobCompleted)

		fields := ps.tracker.Fields()
		fields["job_id"] = job.id
		fields["cell_count"] = result.CellCount
		fields["mean_area_px"] = result.MeanAreaPx
		ps.logger.Info("ProcessingService", "job completed", fields)

		if callbacks.OnCompleted != nil {
			callbacks.OnCompleted(*result)
		}
	}
}

// ValidateParameters checks the start preconditions and normalizes params. The output
// folder is created when missing. An invalid pixel scale is dropped rather than rejected.
func ValidateParameters(params models.JobParameters) (models.JobParameters, error) {
	if strings.TrimSpace(params.ImagePath) == "" {
		return params, models.NewValidationError("image", params.ImagePath, "no image selected")
	}
	info, err := os.Stat(params.ImagePath)
	if err != nil {
		return params, models.NewValidationError("image", params.ImagePath, "file does not exist")
	}
	if info.IsDir() {
		return params, models.NewValidationError("image", params.ImagePath, "path is a directory")
	}

	if strings.TrimSpace(params.OutputFolder) == "" {
		return params, models.NewValidationError("output", params.OutputFolder, "no output folder selected")
	}
	info, err = os.Stat(params.OutputFolder)
	switch {
	case err == nil && !info.IsDir():
		return params, models.NewValidationError("output", params.OutputFolder, "path is not a directory")
	case err != nil:
		if mkErr := os.MkdirAll(params.OutputFolder, 0755); mkErr != nil {
			return params, models.NewValidationError("output", params.OutputFolder,
				fmt.Sprintf("folder cannot be created: %v", mkErr))
		}
	}

	if params.Diameter < 0 || math.IsNaN(params.Diameter) || math.IsInf(params.Diameter, 0) {
		return params, models.NewValidationError("diameter", params.Diameter, "must be a positive number or 0 for auto")
	}

	format, err := imageio.NormalizeFormat(params.MaskFormat)
	if err != nil {
		return params, models.NewValidationError("maskFormat", params.MaskFormat, err.Error())
	}
	params.MaskFormat = format

	if _, ok := analysis.PhysicalArea(0, params.PixelScale); !ok {
		params.PixelScale = 0
	}

	return params, nil
}

// Cancel asks the running job to stop at its next checkpoint. It reports false when no job
// is running.
func (ps *ProcessingService) Cancel() bool {
	cancelled := ps.stateRepo.Cancel()
	if cancelled {
		ps.logger.Info("ProcessingService", "cancellation requested", map[string]interface{}{
			"job_id": ps.stateRepo.GetState().JobID,
		})
	}
	return cancelled
}

// CurrentJob returns the most recently started job, or nil.
func (ps *ProcessingService) CurrentJob() *Job {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.current
}

func (ps *ProcessingService) GetProcessingState() models.ProcessingState {
	return ps.stateRepo.GetState()
}

func (ps *ProcessingService) IsProcessing() bool {
	return ps.stateRepo.IsProcessing()
}

// Timings exposes the stage timing tracker.
func (ps *ProcessingService) Timings() *timing.Tracker {
	return ps.tracker
}

// DiscardMask deletes a completed job's mask file and reports whether it is gone. Failures
// are logged only.
func (ps *ProcessingService) DiscardMask(result models.JobResult) bool {
	if result.MaskPath == "" {
		return false
	}
	if err := os.Remove(result.MaskPath); err != nil && !os.IsNotExist(err) {
		ps.logger.Warning("ProcessingService", "failed to delete mask file", map[string]interface{}{
			"path":  result.MaskPath,
			"error": err.Error(),
		})
		return false
	}
	ps.logger.Debug("ProcessingService", "mask file deleted", map[string]interface{}{
		"path": result.MaskPath,
	})
	return true
}

// Wait blocks until the worker of the current job has delivered its notification.
func (ps *ProcessingService) Wait() {
	ps.wg.Wait()
}

// Shutdown cancels the running job and terminates a model process still in flight. Later
// Start calls fail.
func (ps *ProcessingService) Shutdown() {
	ps.Cancel()
	ps.cancel()
	ps.wg.Wait()
	ps.logger.Info("ProcessingService", "shutdown complete", nil)
}
