// Package imageio reads source images and writes masks and overlays.
package imageio

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"cellcount/internal/models"
)

// Codec is the image I/O boundary used by the job and the segmentation adapter.
type Codec interface {
	Read(path string) (*models.SourceImage, error)
	ReadMask(path string) (*models.LabelMask, error)
	WriteMask(path string, mask *models.LabelMask) error
	WriteOverlay(path string, img *image.RGBA) error
}

const (
	FormatPNG  = "png"
	FormatTIFF = "tif"

	maskSuffix    = "_masks"
	overlaySuffix = "_overlay"
)

// NormalizeFormat maps a configured output format onto a file extension.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")) {
	case "", "png":
		return FormatPNG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// BaseName is the source file name without directory and extension.
func BaseName(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MaskPath is <folder>/<base>_masks.<ext>.
func MaskPath(folder, imagePath, ext string) string {
	return filepath.Join(folder, BaseName(imagePath)+maskSuffix+"."+ext)
}

// OverlayPath is <folder>/<base>_overlay.png. Overlays are always 8-bit RGB PNG.
func OverlayPath(folder, imagePath string) string {
	return filepath.Join(folder, BaseName(imagePath)+overlaySuffix+"."+FormatPNG)
}

func isTIFF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return true
	default:
		return false
	}
}
