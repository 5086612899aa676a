// Package headless runs a single analysis job from command-line flags and reports the result
// as JSON.
package headless

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"cellcount/internal/analysis"
	"cellcount/internal/config"
	"cellcount/internal/models"
	"cellcount/internal/services"
)

const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
)

// Lifecycle is the part of the application lifecycle a run drives.
type Lifecycle interface {
	ListenForSignals(onSignal func())
	Shutdown()
}

// Stack is the wired processing stack for one run.
type Stack struct {
	Service   *services.ProcessingService
	Lifecycle Lifecycle
}

// Builder wires a Stack from the effective configuration.
type Builder func(cfg *config.Config) (*Stack, error)

type options struct {
	configPath string
	image      string
	output     string
	diameter   string
	model      string
	pixelSize  string
	format     string
	python     string
	codec      string
	gpu        bool
	discard    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("cellcount-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the YAML configuration file")
	fs.StringVar(&opts.image, "i", "", "path to the input image")
	fs.StringVar(&opts.output, "o", "", "output folder (default from config)")
	fs.StringVar(&opts.diameter, "diameter", "", "expected cell diameter in pixels; empty or 0 for auto")
	fs.StringVar(&opts.model, "model", "", "model variant: cyto, cyto2, cyto3 or nuclei")
	fs.StringVar(&opts.pixelSize, "pixel", "", "pixel size in µm/pixel for physical areas")
	fs.StringVar(&opts.format, "format", "", "mask file format: png or tif")
	fs.StringVar(&opts.python, "python", "", "python interpreter with cellpose installed")
	fs.StringVar(&opts.codec, "codec", "", "image backend: std or opencv")
	fs.BoolVar(&opts.gpu, "gpu", false, "run the model on the GPU")
	fs.BoolVar(&opts.discard, "discard-mask", false,
		"delete the mask file after writing the overlay; mask_path is then reported empty")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.image == "" {
		return opts, models.NewValidationError("image", "", "-i is required")
	}
	return opts, nil
}

// Run executes one job and returns the process exit code: ExitOK after printing the result,
// ExitValidation for bad input, ExitFailure when the job fails or is cancelled.
func Run(args []string, stdout, stderr io.Writer, build Builder) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintln(stderr, err)
		return ExitValidation
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return ExitValidation
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitValidation
	}

	diameter, err := models.ParseDiameter(opts.diameter)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitValidation
	}
	scale, _ := analysis.ParsePixelScale(opts.pixelSize)

	variant := cfg.Model.Variant
	if opts.model != "" {
		variant = opts.model
	}

	stack, err := build(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	defer stack.Lifecycle.Shutdown()
	stack.Lifecycle.ListenForSignals(nil)

	results := make(chan models.JobResult, 1)
	failures := make(chan string, 1)
	cancelled := make(chan string, 1)
	stack.Service.SetCallbacks(services.Callbacks{
		OnCompleted: func(result models.JobResult) { results <- result },
		OnFailed:    func(message string) { failures <- message },
		OnCancelled: func(jobID string) { cancelled <- jobID },
	})

	_, err = stack.Service.Start(models.JobParameters{
		ImagePath:    opts.image,
		OutputFolder: cfg.Output.Folder,
		Diameter:     diameter,
		VariantName:  variant,
		PixelScale:   scale,
		MaskFormat:   cfg.Output.MaskFormat,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		if models.IsValidation(err) {
			return ExitValidation
		}
		return ExitFailure
	}

	select {
	case result := <-results:
		if opts.discard && stack.Service.DiscardMask(result) {
			result.MaskPath = ""
		}
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitFailure
		}
		return ExitOK
	case message := <-failures:
		fmt.Fprintf(stderr, "Processing failed: %s\n", message)
		return ExitFailure
	case <-cancelled:
		fmt.Fprintln(stderr, "Processing cancelled")
		return ExitFailure
	}
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.output != "" {
		cfg.Output.Folder = opts.output
	}
	if opts.format != "" {
		cfg.Output.MaskFormat = opts.format
	}
	if opts.python != "" {
		cfg.Model.Python = opts.python
	}
	if opts.codec != "" {
		cfg.Codec = opts.codec
	}
	if opts.gpu {
		cfg.Model.UseGPU = true
	}
}
