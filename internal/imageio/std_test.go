package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cellcount/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "cells_masks.png"), MaskPath("out", "/data/cells.tif", FormatPNG))
	assert.Equal(t, filepath.Join("out", "cells_masks.tif"), MaskPath("out", "cells.tif", FormatTIFF))
	assert.Equal(t, filepath.Join("out", "cells.v2_overlay.png"), OverlayPath("out", "/data/cells.v2.jpg"))
	assert.Equal(t, "plate", BaseName("/a/b/plate"))
}

func TestNormalizeFormat(t *testing.T) {
	for in, want := range map[string]string{"": "png", "PNG": "png", ".tif": "tif", "tiff": "tif"} {
		got, err := NormalizeFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeFormat("jpg")
	assert.Error(t, err)
}

func sparseMask(t *testing.T) *models.LabelMask {
	t.Helper()
	mask, err := models.LabelMaskFromRows([][]uint32{
		{0, 1, 1, 0},
		{0, 300, 300, 65535},
	})
	require.NoError(t, err)
	return mask
}

func TestMaskKeepsRawLabelsInSixteenBits(t *testing.T) {
	codec := NewStdCodec()
	dir := t.TempDir()

	for _, ext := range []string{FormatPNG, FormatTIFF} {
		path := MaskPath(dir, "sample.png", ext)
		mask := sparseMask(t)
		require.NoError(t, codec.WriteMask(path, mask), ext)

		back, err := codec.ReadMask(path)
		require.NoError(t, err, ext)
		assert.Equal(t, mask.Labels, back.Labels, ext)
	}
}

func TestMaskPNGIsGray16(t *testing.T) {
	codec := NewStdCodec()
	path := filepath.Join(t.TempDir(), "m_masks.png")
	require.NoError(t, codec.WriteMask(path, sparseMask(t)))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	_, ok := img.(*image.Gray16)
	assert.True(t, ok, "got %T", img)
}

func TestWriteMaskRejectsLabelsBeyondSixteenBits(t *testing.T) {
	mask, err := models.LabelMaskFromRows([][]uint32{{0, 70000}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "x_masks.png")
	err = NewStdCodec().WriteMask(path, mask)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "label 70000")
	assert.NoFileExists(t, path)
}

func TestReadKeepsBitDepthAndChannels(t *testing.T) {
	dir := t.TempDir()

	gray := image.NewGray16(image.Rect(0, 0, 2, 1))
	gray.SetGray16(0, 0, color.Gray16{Y: 4000})
	gray.SetGray16(1, 0, color.Gray16{Y: 60000})
	grayPath := filepath.Join(dir, "gray.png")
	require.NoError(t, writeFile(grayPath, gray))

	src, err := NewStdCodec().Read(grayPath)
	require.NoError(t, err)
	assert.Equal(t, 1, src.Channels)
	assert.Equal(t, []float64{4000, 60000}, src.Pix)
	assert.Equal(t, "png", src.Format)

	rgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	rgba.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	rgbaPath := filepath.Join(dir, "rgba.png")
	require.NoError(t, writeFile(rgbaPath, rgba))

	src, err = NewStdCodec().Read(rgbaPath)
	require.NoError(t, err)
	assert.Equal(t, 4, src.Channels)
	assert.Equal(t, []float64{10, 20, 30, 128}, src.Pix)

	opaque := image.NewRGBA(image.Rect(0, 0, 1, 1))
	opaque.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	tiffPath := filepath.Join(dir, "rgb.tif")
	require.NoError(t, writeFile(tiffPath, opaque))

	src, err = NewStdCodec().Read(tiffPath)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Channels)
	assert.Equal(t, []float64{1, 2, 3}, src.Pix)
}

func TestReadMissingAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStdCodec().Read(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = NewStdCodec().Read(junk)
	assert.Error(t, err)
}

func TestWriteOverlayIsOpaqueRGB(t *testing.T) {
	overlay := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(overlay.Pix); i += 4 {
		overlay.Pix[i] = 255
	}
	overlay.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})
	path := OverlayPath(t.TempDir(), "a.tif")

	require.NoError(t, NewStdCodec().WriteOverlay(path, overlay))

	src, err := NewStdCodec().Read(path)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Channels)
	assert.Equal(t, 255.0, src.At(1, 1, 0))
	assert.Equal(t, 0.0, src.At(1, 1, 1))
}
