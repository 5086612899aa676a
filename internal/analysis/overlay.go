package analysis

import (
	"fmt"
	"image"
	"image/color"

	"cellcount/internal/models"

	"gonum.org/v1/gonum/floats"
)

// HighlightColor is painted over every outline pixel.
var HighlightColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// RenderOverlay normalises src to 8-bit RGB and paints the boundary pixels in
// HighlightColor. src is not modified.
func RenderOverlay(src *models.SourceImage, boundary *models.BoundaryMap) (*image.RGBA, error) {
	if src == nil || boundary == nil {
		return nil, fmt.Errorf("overlay requires an image and a boundary map")
	}
	if src.Width != boundary.Width || src.Height != boundary.Height {
		return nil, fmt.Errorf("boundary map %dx%d does not match image %dx%d",
			boundary.Width, boundary.Height, src.Width, src.Height)
	}

	rgb, err := ToRGB8(src)
	if err != nil {
		return nil, err
	}

	for y := 0; y < boundary.Height; y++ {
		for x := 0; x < boundary.Width; x++ {
			if boundary.At(x, y) {
				rgb.SetRGBA(x, y, HighlightColor)
			}
		}
	}

	return rgb, nil
}

// ToRGB8 maps src onto an opaque 8-bit RGB image. Grayscale is replicated across the three
// channels and a fourth (alpha) channel is dropped before the observed [min, max] range is
// stretched linearly onto [0, 255]. A flat image yields black.
func ToRGB8(src *models.SourceImage) (*image.RGBA, error) {
	var colourChannels int
	switch src.Channels {
	case 1:
		colourChannels = 1
	case 3, 4:
		colourChannels = 3
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels)
	}

	samples := make([]float64, 0, src.Width*src.Height*colourChannels)
	for i := 0; i < src.Width*src.Height; i++ {
		base := i * src.Channels
		samples = append(samples, src.Pix[base:base+colourChannels]...)
	}

	lo, hi := floats.Min(samples), floats.Max(samples)
	span := hi - lo

	out := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for i := 0; i < src.Width*src.Height; i++ {
		var rgb [3]uint8
		for c := 0; c < 3; c++ {
			if span <= 0 {
				continue
			}
			sample := samples[i*colourChannels+c%colourChannels]
			rgb[c] = toUint8((sample - lo) / span * 255.0)
		}
		o := i * 4
		out.Pix[o] = rgb[0]
		out.Pix[o+1] = rgb[1]
		out.Pix[o+2] = rgb[2]
		out.Pix[o+3] = 255
	}

	return out, nil
}

// toUint8 clamps and truncates.
func toUint8(v float64) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
