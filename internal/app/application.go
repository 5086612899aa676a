// Package app assembles the processing stack shared by the desktop and headless binaries.
package app

import (
	"fmt"

	"cellcount/internal/config"
	"cellcount/internal/imageio"
	"cellcount/internal/logger"
	"cellcount/internal/models"
	"cellcount/internal/opencv"
	"cellcount/internal/segmentation"
	"cellcount/internal/services"
	"cellcount/internal/shutdown"
)

const (
	AppName    = "Cell Count"
	AppID      = "com.cellcount.desktop"
	AppVersion = "1.0.0"
)

// Components is the wired processing stack.
type Components struct {
	Config    *config.Config
	Logger    logger.Logger
	Codec     imageio.Codec
	Segmenter segmentation.Segmenter
	StateRepo *models.ProcessingStateRepository
	Service   *services.ProcessingService
	Lifecycle *Lifecycle
}

// Build wires the stack from cfg. A nil log gets one derived from cfg.
func Build(cfg *config.Config, log logger.Logger) (*Components, error) {
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}

	codec, err := NewCodec(cfg.Codec, log)
	if err != nil {
		return nil, err
	}

	segmenter := segmentation.NewCellposeCLI(cfg.Model.Python, codec,
		segmentation.WithGPU(cfg.Model.UseGPU),
		segmentation.WithLogger(log),
	)

	stateRepo := models.NewProcessingStateRepository()
	service := services.NewProcessingService(codec, segmenter, stateRepo, log)

	lifecycle := NewLifecycle(shutdown.NewManager(log), log)
	lifecycle.Register("processing service", service)

	log.Info("Application", "components initialized", map[string]interface{}{
		"version": AppVersion,
		"codec":   cfg.Codec,
		"python":  cfg.Model.Python,
		"gpu":     cfg.Model.UseGPU,
	})

	return &Components{
		Config:    cfg,
		Logger:    log,
		Codec:     codec,
		Segmenter: segmenter,
		StateRepo: stateRepo,
		Service:   service,
		Lifecycle: lifecycle,
	}, nil
}

// NewCodec returns the image backend named by the configuration.
func NewCodec(backend string, log logger.Logger) (imageio.Codec, error) {
	switch backend {
	case "", config.CodecStd:
		return imageio.NewStdCodec(), nil
	case config.CodecOpenCV:
		return opencv.NewCodec(log), nil
	default:
		return nil, fmt.Errorf("unknown codec backend %q", backend)
	}
}
