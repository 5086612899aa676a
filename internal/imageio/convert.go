package imageio

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"cellcount/internal/models"
)

type opaquer interface {
	Opaque() bool
}

// ToSourceImage converts a decoded image without losing bit depth. Grayscale images keep a
// single channel; colour images get three channels, or four when they carry transparency.
func ToSourceImage(img image.Image, format string) (*models.SourceImage, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch typed := img.(type) {
	case *image.Gray:
		src, err := models.NewSourceImage(width, height, 1)
		if err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				src.Set(x, y, 0, float64(typed.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		src.Format = format
		return src, nil
	case *image.Gray16:
		src, err := models.NewSourceImage(width, height, 1)
		if err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				src.Set(x, y, 0, float64(typed.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		src.Format = format
		return src, nil
	}

	channels := 4
	if o, ok := img.(opaquer); ok && o.Opaque() {
		channels = 3
	}

	src, err := models.NewSourceImage(width, height, channels)
	if err != nil {
		return nil, err
	}
	src.Format = format

	deep := is16Bit(img)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sample [4]float64
			if deep {
				c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
				sample = [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
			} else {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				sample = [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
			}
			for c := 0; c < channels; c++ {
				src.Set(x, y, c, sample[c])
			}
		}
	}

	return src, nil
}

func is16Bit(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64:
		return true
	default:
		return false
	}
}

// MaskToGray16 encodes labels as 16-bit gray. Labels above 65535 cannot be represented.
func MaskToGray16(mask *models.LabelMask) (*image.Gray16, error) {
	if top := mask.MaxLabel(); top > math.MaxUint16 {
		return nil, fmt.Errorf("label %d exceeds the 16-bit mask range", top)
	}

	out := image.NewGray16(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			out.SetGray16(x, y, color.Gray16{Y: uint16(mask.At(x, y))})
		}
	}
	return out, nil
}

// ImageToMask reads raw label values back from a gray image.
func ImageToMask(img image.Image) (*models.LabelMask, error) {
	var at func(x, y int) uint32
	switch typed := img.(type) {
	case *image.Gray16:
		at = func(x, y int) uint32 { return uint32(typed.Gray16At(x, y).Y) }
	case *image.Gray:
		at = func(x, y int) uint32 { return uint32(typed.GrayAt(x, y).Y) }
	default:
		return nil, fmt.Errorf("mask image must be grayscale, got %T", img)
	}

	bounds := img.Bounds()
	mask, err := models.NewLabelMask(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			mask.Set(x, y, at(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	return mask, nil
}
