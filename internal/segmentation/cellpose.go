package segmentation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"cellcount/internal/imageio"
	"cellcount/internal/logger"
	"cellcount/internal/models"
)

const (
	cellposeMaskSuffix = "_cp_masks.png"
	stderrTailLines    = 5
)

// Runner executes a command and returns its combined stderr. It exists so tests can stand
// in for the Python interpreter.
type Runner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// CellposeCLI runs the cellpose command line through a Python interpreter. The mask is
// written by cellpose into a private temporary directory and read back with the codec.
type CellposeCLI struct {
	python string
	useGPU bool
	codec  imageio.Codec
	run    Runner
	logger logger.Logger
}

type CellposeOption func(*CellposeCLI)

func WithGPU(enabled bool) CellposeOption {
	return func(c *CellposeCLI) { c.useGPU = enabled }
}

func WithRunner(run Runner) CellposeOption {
	return func(c *CellposeCLI) { c.run = run }
}

func WithLogger(log logger.Logger) CellposeOption {
	return func(c *CellposeCLI) { c.logger = log }
}

func NewCellposeCLI(python string, codec imageio.Codec, opts ...CellposeOption) *CellposeCLI {
	c := &CellposeCLI{
		python: python,
		codec:  codec,
		run:    execRunner,
		logger: logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Args builds the cellpose command line for one image written into saveDir.
func (c *CellposeCLI) Args(req Request, saveDir string) []string {
	args := []string{
		"-m", "cellpose",
		"--image_path", req.ImagePath,
		"--pretrained_model", req.Variant.String(),
		"--diameter", strconv.FormatFloat(req.Diameter, 'f', -1, 64),
		"--chan", "0",
		"--chan2", "0",
		"--save_png",
		"--no_npy",
		"--savedir", saveDir,
	}
	if c.useGPU {
		args = append(args, "--use_gpu")
	}
	return args
}

func (c *CellposeCLI) Segment(ctx context.Context, req Request) (*models.LabelMask, error) {
	mask, err := c.segment(ctx, req)
	if err != nil {
		return nil, &models.ModelInvocationError{Variant: req.Variant, Err: err}
	}
	return mask, nil
}

func (c *CellposeCLI) segment(ctx context.Context, req Request) (*models.LabelMask, error) {
	saveDir, err := os.MkdirTemp("", "cellcount-cellpose-")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(saveDir); err != nil {
			c.logger.Warning("CellposeCLI", "failed to remove working directory", map[string]interface{}{
				"dir":   saveDir,
				"error": err.Error(),
			})
		}
	}()

	args := c.Args(req, saveDir)
	c.logger.Debug("CellposeCLI", "invoking model", map[string]interface{}{
		"python":   c.python,
		"variant":  req.Variant.String(),
		"diameter": req.Diameter,
		"gpu":      c.useGPU,
	})

	stderr, err := c.run(ctx, c.python, args...)
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("python interpreter %q not available: %w", c.python, err)
		}
		if tail := stderrTail(stderr); tail != "" {
			return nil, fmt.Errorf("%w: %s", err, tail)
		}
		return nil, err
	}

	maskPath, err := findMask(saveDir, req.ImagePath)
	if err != nil {
		return nil, err
	}

	mask, err := c.codec.ReadMask(maskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model output: %w", err)
	}

	if req.Image != nil && !mask.SameExtent(req.Image.Width, req.Image.Height) {
		return nil, fmt.Errorf("model returned a %dx%d mask for a %dx%d image",
			mask.Width, mask.Height, req.Image.Width, req.Image.Height)
	}
	return mask, nil
}

// findMask locates the mask cellpose wrote for imagePath, accepting any single
// *_cp_masks.png when the expected name is absent.
func findMask(saveDir, imagePath string) (string, error) {
	expected := filepath.Join(saveDir, imageio.BaseName(imagePath)+cellposeMaskSuffix)
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(saveDir, "*"+cellposeMaskSuffix))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("model produced no mask for %s", filepath.Base(imagePath))
	}
	return matches[0], nil
}

func stderrTail(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
