package controllers

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cellcount/internal/analysis"
	"cellcount/internal/imageio"
	"cellcount/internal/logger"
	"cellcount/internal/models"
	"cellcount/internal/services"
)

const (
	EmptyMetricsText = "Cells: —    Mean area: —"

	progressInterval = 100 * time.Millisecond
)

// SupportedExtensions are offered by the open dialog and accepted from drag and drop.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp"}

// View is what the controller needs from the window. Implementations marshal every call onto
// the UI thread.
type View interface {
	SetSourceImage(img image.Image)
	SetResultImage(img image.Image)
	SetMetricsText(text string)
	SetOutputFolder(folder string)
	SetProcessingActive(active bool)
	UpdateStatus(status string)
	UpdateProgress(stage string, progress float64)
	ShowError(title string, err error)
	ShowWarning(title, message string)
	ShowImageOpenDialog(callback func(path string))
	ShowFolderDialog(callback func(path string))
}

// MainController turns view events into session updates and job requests, and job
// notifications into view updates.
type MainController struct {
	service  *services.ProcessingService
	session  *models.Session
	codec    imageio.Codec
	logger   logger.Logger
	keepMask bool

	mu           sync.RWMutex
	view         View
	stopProgress chan struct{}
}

func NewMainController(
	service *services.ProcessingService,
	session *models.Session,
	codec imageio.Codec,
	log logger.Logger,
	keepMask bool,
) *MainController {
	if log == nil {
		log = logger.NoOpLogger{}
	}

	mc := &MainController{
		service:  service,
		session:  session,
		codec:    codec,
		logger:   log,
		keepMask: keepMask,
	}

	service.SetCallbacks(services.Callbacks{
		OnCompleted: mc.onCompleted,
		OnFailed:    mc.onFailed,
		OnCancelled: mc.onCancelled,
	})

	return mc
}

// SetView associates the main view with this controller
func (mc *MainController) SetView(view View) {
	mc.mu.Lock()
	mc.view = view
	mc.mu.Unlock()

	view.SetMetricsText(EmptyMetricsText)
	if folder := mc.session.OutputFolder(); folder != "" {
		view.SetOutputFolder(folder)
	}
	view.UpdateStatus("Ready")
}

func (mc *MainController) getView() View {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.view
}

// LoadImage opens the image chooser.
func (mc *MainController) LoadImage() {
	view := mc.getView()
	if view == nil {
		return
	}
	view.ShowImageOpenDialog(func(path string) {
		if path != "" {
			mc.LoadImagePath(path)
		}
	})
}

// HandleDrop loads the first dropped file with a supported extension.
func (mc *MainController) HandleDrop(paths []string) {
	for _, path := range paths {
		if IsSupportedImage(path) {
			mc.LoadImagePath(path)
			return
		}
	}

	if view := mc.getView(); view != nil && len(paths) > 0 {
		view.ShowWarning("Warning", "Unsupported file type: "+filepath.Base(paths[0]))
	}
}

// IsSupportedImage reports whether path has one of SupportedExtensions.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// LoadImagePath selects path as the current image and shows its preview. A preview that
// cannot be decoded is not fatal: the model may still read the file.
func (mc *MainController) LoadImagePath(path string) {
	view := mc.getView()

	if mc.service.IsProcessing() {
		if view != nil {
			view.ShowWarning("Warning", "Processing already running!")
		}
		return
	}

	mc.session.SetImagePath(path)

	if view == nil {
		return
	}

	view.SetResultImage(nil)
	view.SetMetricsText(EmptyMetricsText)

	preview, err := mc.preview(path)
	if err != nil {
		mc.logger.Warning("MainController", "preview unavailable", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		view.SetSourceImage(nil)
		view.UpdateStatus(fmt.Sprintf("Loaded %s (no preview)", filepath.Base(path)))
		return
	}

	view.SetSourceImage(preview)
	view.UpdateStatus("Loaded " + filepath.Base(path))
}

func (mc *MainController) preview(path string) (image.Image, error) {
	src, err := mc.codec.Read(path)
	if err != nil {
		return nil, err
	}
	return analysis.ToRGB8(src)
}

// ChooseOutputFolder opens the folder chooser.
func (mc *MainController) ChooseOutputFolder() {
	view := mc.getView()
	if view == nil {
		return
	}
	view.ShowFolderDialog(func(path string) {
		if path != "" {
			mc.SetOutputFolder(path)
		}
	})
}

func (mc *MainController) SetOutputFolder(folder string) {
	mc.session.SetOutputFolder(folder)
	if view := mc.getView(); view != nil {
		view.SetOutputFolder(folder)
	}
}

func (mc *MainController) SetDiameterText(text string) {
	mc.session.SetDiameterText(text)
}

func (mc *MainController) SetVariantName(name string) {
	mc.session.SetVariantName(name)
}

func (mc *MainController) SetPixelScaleText(text string) {
	mc.session.SetPixelScaleText(text)
}

// BuildParameters turns the session's raw inputs into job parameters. Only the diameter can
// be rejected here; an unparseable pixel size is dropped.
func BuildParameters(session *models.Session) (models.JobParameters, error) {
	imagePath, outputFolder, diameterText, variantName, pixelScaleText, maskFormat := session.Snapshot()

	diameter, err := models.ParseDiameter(diameterText)
	if err != nil {
		return models.JobParameters{}, err
	}

	scale, _ := analysis.ParsePixelScale(pixelScaleText)

	return models.JobParameters{
		ImagePath:    imagePath,
		OutputFolder: outputFolder,
		Diameter:     diameter,
		VariantName:  variantName,
		PixelScale:   scale,
		MaskFormat:   maskFormat,
	}, nil
}

// StartProcessing validates the session and starts a job. Rejections are shown immediately.
func (mc *MainController) StartProcessing() {
	view := mc.getView()

	if mc.service.IsProcessing() {
		mc.reject(view, models.ErrAlreadyRunning)
		return
	}

	params, err := BuildParameters(mc.session)
	if err != nil {
		mc.reject(view, err)
		return
	}

	// The worker may report back before Start returns, so the view must be in its
	// running state first.
	if view != nil {
		view.SetResultImage(nil)
		view.SetMetricsText(EmptyMetricsText)
		view.SetProcessingActive(true)
		view.UpdateStatus("Processing...")
	}

	job, err := mc.service.Start(params)
	if err != nil {
		if view != nil {
			view.SetProcessingActive(false)
			view.UpdateStatus("Ready")
		}
		mc.reject(view, err)
		return
	}

	mc.logger.Info("MainController", "analysis started", map[string]interface{}{
		"job_id": job.ID(),
	})

	select {
	case <-job.Done():
	default:
		mc.startProgressMonitor(view)
	}
}

func (mc *MainController) reject(view View, err error) {
	mc.logger.Warning("MainController", "start rejected", map[string]interface{}{
		"error": err.Error(),
	})
	if view == nil {
		return
	}

	var ve *models.ValidationError
	switch {
	case errors.Is(err, models.ErrAlreadyRunning):
		view.ShowWarning("Warning", "Processing already running!")
	case errors.As(err, &ve):
		view.ShowError("Invalid input", errors.New(validationMessage(ve)))
	default:
		view.ShowError("Error", err)
	}
}

func validationMessage(ve *models.ValidationError) string {
	switch ve.Parameter {
	case "image":
		if ve.Value == "" {
			return "Please upload an image first!"
		}
		return fmt.Sprintf("File not found: %v", ve.Value)
	case "output":
		if ve.Value == "" {
			return "Please choose an output folder first!"
		}
		return fmt.Sprintf("Output folder %v: %s", ve.Value, ve.Message)
	case "diameter":
		return fmt.Sprintf("Diameter %q %s", fmt.Sprint(ve.Value), ve.Message)
	default:
		return ve.Error()
	}
}

// CancelProcessing asks the running job to stop at its next checkpoint.
func (mc *MainController) CancelProcessing() {
	if !mc.service.Cancel() {
		return
	}
	if view := mc.getView(); view != nil {
		view.UpdateStatus("Cancelling...")
	}
}

func (mc *MainController) startProgressMonitor(view View) {
	if view == nil {
		return
	}

	stop := make(chan struct{})
	mc.mu.Lock()
	mc.stopProgress = stop
	mc.mu.Unlock()

	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				state := mc.service.GetProcessingState()
				if !state.IsActive() {
					return
				}
				view.UpdateProgress(state.CurrentStage, state.Progress)
			}
		}
	}()
}

func (mc *MainController) stopProgressMonitor() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.stopProgress != nil {
		close(mc.stopProgress)
		mc.stopProgress = nil
	}
}

// FormatMetrics renders the result line shown under the previews.
func FormatMetrics(result models.JobResult) string {
	text := fmt.Sprintf("Cells: %d    Mean area: %.1f px^2", result.CellCount, result.MeanAreaPx)
	if result.MeanAreaUm2 != nil {
		text += fmt.Sprintf(" (%.2f µm^2)", *result.MeanAreaUm2)
	}
	return text
}

func (mc *MainController) onCompleted(result models.JobResult) {
	mc.stopProgressMonitor()
	mc.session.SetLastResult(&result)

	view := mc.getView()
	if view != nil {
		view.SetProcessingActive(false)
		view.SetMetricsText(FormatMetrics(result))

		overlay, err := imageio.DecodeFile(result.OverlayPath)
		if err != nil {
			mc.logger.Error("MainController", err, map[string]interface{}{
				"overlay": result.OverlayPath,
			})
			view.SetResultImage(nil)
			view.UpdateStatus("No result image found.")
		} else {
			view.SetResultImage(overlay)
			status := fmt.Sprintf("Done in %s", result.Duration.Round(time.Millisecond))
			if result.Note != "" {
				status += ": " + result.Note
			}
			view.UpdateStatus(status)
		}
	}

	if !mc.keepMask {
		mc.service.DiscardMask(result)
	}
}

func (mc *MainController) onFailed(message string) {
	mc.stopProgressMonitor()

	if view := mc.getView(); view != nil {
		view.SetProcessingActive(false)
		view.UpdateStatus("Processing failed")
		view.ShowError("Error", errors.New("Processing failed: "+message))
	}
}

func (mc *MainController) onCancelled(jobID string) {
	mc.stopProgressMonitor()

	if view := mc.getView(); view != nil {
		view.SetProcessingActive(false)
		view.SetResultImage(nil)
		view.SetMetricsText(EmptyMetricsText)
		view.UpdateStatus("Processing cancelled")
	}
}

// Shutdown performs cleanup when the application closes
func (mc *MainController) Shutdown() {
	mc.stopProgressMonitor()
	mc.service.Shutdown()
}
