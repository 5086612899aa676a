package segmentation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cellcount/internal/imageio"
	"cellcount/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMask(t *testing.T) *models.LabelMask {
	t.Helper()
	mask, err := models.LabelMaskFromRows([][]uint32{
		{0, 1, 1},
		{0, 2, 2},
	})
	require.NoError(t, err)
	return mask
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeCellpose writes mask where cellpose would, named after the input image.
func fakeCellpose(t *testing.T, mask *models.LabelMask, seen *[]string) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*seen = append([]string{name}, args...)
		saveDir := argValue(args, "--savedir")
		base := imageio.BaseName(argValue(args, "--image_path"))
		return nil, imageio.NewStdCodec().WriteMask(filepath.Join(saveDir, base+cellposeMaskSuffix), mask)
	}
}

func TestCellposeArgs(t *testing.T) {
	cli := NewCellposeCLI("python3", imageio.NewStdCodec(), WithGPU(true))
	args := cli.Args(Request{ImagePath: "/in/cells.tif", Diameter: 17.5, Variant: models.VariantNuclei}, "/tmp/x")

	assert.Equal(t, []string{
		"-m", "cellpose",
		"--image_path", "/in/cells.tif",
		"--pretrained_model", "nuclei",
		"--diameter", "17.5",
		"--chan", "0",
		"--chan2", "0",
		"--save_png",
		"--no_npy",
		"--savedir", "/tmp/x",
		"--use_gpu",
	}, args)
}

func TestCellposeAutoDiameter(t *testing.T) {
	cli := NewCellposeCLI("python3", imageio.NewStdCodec())
	args := cli.Args(Request{ImagePath: "a.png", Variant: models.VariantCyto}, "/tmp/x")

	assert.Equal(t, "0", argValue(args, "--diameter"))
	assert.NotContains(t, args, "--use_gpu")
}

func TestCellposeSegmentReadsMask(t *testing.T) {
	want := testMask(t)
	var seen []string
	cli := NewCellposeCLI("python3", imageio.NewStdCodec(), WithRunner(fakeCellpose(t, want, &seen)))

	img, err := models.NewSourceImage(3, 2, 1)
	require.NoError(t, err)

	mask, err := cli.Segment(context.Background(), Request{ImagePath: "/data/cells.png", Image: img, Variant: models.VariantCyto})
	require.NoError(t, err)
	assert.Equal(t, want.Labels, mask.Labels)
	assert.Equal(t, "python3", seen[0])

	// The working directory is removed afterwards.
	assert.NoDirExists(t, argValue(seen, "--savedir"))
}

func TestCellposeSizeMismatch(t *testing.T) {
	var seen []string
	cli := NewCellposeCLI("python3", imageio.NewStdCodec(), WithRunner(fakeCellpose(t, testMask(t), &seen)))

	img, err := models.NewSourceImage(4, 4, 1)
	require.NoError(t, err)

	_, err = cli.Segment(context.Background(), Request{ImagePath: "cells.png", Image: img, Variant: models.VariantCyto})
	var invocationErr *models.ModelInvocationError
	require.ErrorAs(t, err, &invocationErr)
	assert.Contains(t, err.Error(), "3x2 mask for a 4x4 image")
}

func TestCellposeFailureIncludesStderrTail(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Traceback\n  line\nRuntimeError: CUDA out of memory\n"), errors.New("exit status 1")
	}
	cli := NewCellposeCLI("python3", imageio.NewStdCodec(), WithRunner(run))

	_, err := cli.Segment(context.Background(), Request{ImagePath: "cells.png", Variant: models.VariantCyto2})

	var invocationErr *models.ModelInvocationError
	require.ErrorAs(t, err, &invocationErr)
	assert.Equal(t, models.VariantCyto2, invocationErr.Variant)
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestCellposeMissingOutput(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	}
	cli := NewCellposeCLI("python3", imageio.NewStdCodec(), WithRunner(run))

	_, err := cli.Segment(context.Background(), Request{ImagePath: "cells.png", Variant: models.VariantCyto})
	assert.ErrorContains(t, err, "model produced no mask")
}

func TestCellposeMissingInterpreter(t *testing.T) {
	cli := NewCellposeCLI("cellcount-no-such-python", imageio.NewStdCodec())

	_, err := cli.Segment(context.Background(), Request{ImagePath: "cells.png", Variant: models.VariantCyto})

	var invocationErr *models.ModelInvocationError
	require.ErrorAs(t, err, &invocationErr)
	assert.Contains(t, err.Error(), "not available")
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "", stderrTail(nil))
	assert.Equal(t, "c\nd\ne\nf\ng", stderrTail([]byte("a\nb\nc\nd\ne\nf\ng\n")))
}

func TestAdapterVariantFallback(t *testing.T) {
	var got models.Variant
	adapter := NewAdapter(SegmenterFunc(func(ctx context.Context, req Request) (*models.LabelMask, error) {
		got = req.Variant
		return testMask(t), nil
	}))

	result, err := adapter.Segment(context.Background(), "cells.png", nil, 0, "bacteria")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultVariant, got)
	assert.Equal(t, models.DefaultVariant, result.Variant)
	assert.Contains(t, result.Note, "bacteria")

	result, err = adapter.Segment(context.Background(), "cells.png", nil, 0, "nuclei")
	require.NoError(t, err)
	assert.Equal(t, models.VariantNuclei, got)
	assert.Empty(t, result.Note)
}

func TestAdapterWrapsFailures(t *testing.T) {
	adapter := NewAdapter(SegmenterFunc(func(ctx context.Context, req Request) (*models.LabelMask, error) {
		return nil, errors.New("missing weights")
	}))

	_, err := adapter.Segment(context.Background(), "cells.png", nil, 0, "cyto3")

	var invocationErr *models.ModelInvocationError
	require.ErrorAs(t, err, &invocationErr)
	assert.Equal(t, models.VariantCyto3, invocationErr.Variant)
	assert.Contains(t, err.Error(), "missing weights")
}

func TestAdapterRejectsMismatchedMask(t *testing.T) {
	adapter := NewAdapter(SegmenterFunc(func(ctx context.Context, req Request) (*models.LabelMask, error) {
		return testMask(t), nil
	}))
	img, err := models.NewSourceImage(2, 2, 3)
	require.NoError(t, err)

	_, err = adapter.Segment(context.Background(), "cells.png", img, 0, "")
	var invocationErr *models.ModelInvocationError
	assert.ErrorAs(t, err, &invocationErr)
}
