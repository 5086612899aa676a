package models

import "fmt"

// SourceImage is a decoded input image. Samples are stored interleaved, row-major, in
// whatever numeric range the file carried (8-bit, 16-bit, float).
type SourceImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []float64
	Format   string
}

// NewSourceImage allocates a zeroed image. Channels must be 1, 3 or 4.
func NewSourceImage(width, height, channels int) (*SourceImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", width, height)
	}
	switch channels {
	case 1, 3, 4:
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	return &SourceImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float64, width*height*channels),
	}, nil
}

func (s *SourceImage) offset(x, y int) int {
	return (y*s.Width + x) * s.Channels
}

func (s *SourceImage) At(x, y, c int) float64 {
	return s.Pix[s.offset(x, y)+c]
}

func (s *SourceImage) Set(x, y, c int, v float64) {
	s.Pix[s.offset(x, y)+c] = v
}

// IsGrayscale reports whether the image has a single channel.
func (s *SourceImage) IsGrayscale() bool {
	return s.Channels == 1
}
