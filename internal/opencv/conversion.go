package opencv

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"cellcount/internal/models"

	"gocv.io/x/gocv"
)

// MatToSourceImage copies a decoded Mat into a SourceImage, reordering BGR(A) to RGB(A).
// Two-channel gray+alpha images keep only the gray channel.
func MatToSourceImage(mat gocv.Mat) (*models.SourceImage, error) {
	if err := validateMatForOperation(mat, "Mat to source image"); err != nil {
		return nil, err
	}

	samples, err := matSamples(mat)
	if err != nil {
		return nil, err
	}

	rows, cols, inChannels := mat.Rows(), mat.Cols(), mat.Channels()
	outChannels := inChannels
	if inChannels == 2 {
		outChannels = 1
	}

	src, err := models.NewSourceImage(cols, rows, outChannels)
	if err != nil {
		return nil, err
	}

	for i := 0; i < rows*cols; i++ {
		in := samples[i*inChannels : (i+1)*inChannels]
		out := src.Pix[i*outChannels : (i+1)*outChannels]
		switch inChannels {
		case 1, 2:
			out[0] = in[0]
		case 3:
			out[0], out[1], out[2] = in[2], in[1], in[0]
		case 4:
			out[0], out[1], out[2], out[3] = in[2], in[1], in[0], in[3]
		}
	}

	return src, nil
}

func matSamples(mat gocv.Mat) ([]float64, error) {
	switch depth(mat.Type()) {
	case gocv.MatTypeCV8U:
		data, err := mat.DataPtrUint8()
		if err != nil {
			return nil, err
		}
		return widen(data), nil
	case gocv.MatTypeCV16U:
		data, err := mat.DataPtrUint16()
		if err != nil {
			return nil, err
		}
		return widen(data), nil
	case gocv.MatTypeCV16S:
		data, err := mat.DataPtrInt16()
		if err != nil {
			return nil, err
		}
		return widen(data), nil
	case gocv.MatTypeCV32F:
		data, err := mat.DataPtrFloat32()
		if err != nil {
			return nil, err
		}
		return widen(data), nil
	case gocv.MatTypeCV64F:
		data, err := mat.DataPtrFloat64()
		if err != nil {
			return nil, err
		}
		return widen(data), nil
	default:
		return nil, fmt.Errorf("unsupported Mat depth: %d", depth(mat.Type()))
	}
}

func widen[T uint8 | uint16 | int16 | float32 | float64](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// MatToMask reads raw labels from a single-channel 8 or 16-bit Mat.
func MatToMask(mat gocv.Mat) (*models.LabelMask, error) {
	if err := validateMatForOperation(mat, "Mat to label mask"); err != nil {
		return nil, err
	}
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("mask must have 1 channel, got %d", mat.Channels())
	}

	mask, err := models.NewLabelMask(mat.Cols(), mat.Rows())
	if err != nil {
		return nil, err
	}

	switch depth(mat.Type()) {
	case gocv.MatTypeCV16U:
		data, err := mat.DataPtrUint16()
		if err != nil {
			return nil, err
		}
		for i, v := range data {
			mask.Labels[i] = uint32(v)
		}
	case gocv.MatTypeCV8U:
		data, err := mat.DataPtrUint8()
		if err != nil {
			return nil, err
		}
		for i, v := range data {
			mask.Labels[i] = uint32(v)
		}
	default:
		return nil, fmt.Errorf("unsupported mask depth: %d", depth(mat.Type()))
	}

	return mask, nil
}

// MaskToMat builds a CV_16UC1 Mat holding the raw labels. The caller closes it.
func MaskToMat(mask *models.LabelMask) (gocv.Mat, error) {
	if top := mask.MaxLabel(); top > math.MaxUint16 {
		return gocv.NewMat(), fmt.Errorf("label %d exceeds the 16-bit mask range", top)
	}

	data := make([]byte, len(mask.Labels)*2)
	for i, label := range mask.Labels {
		binary.NativeEndian.PutUint16(data[i*2:], uint16(label))
	}
	return gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV16UC1, data)
}

// RGBAToBGRMat drops alpha and reorders to OpenCV's BGR layout. The caller closes it.
func RGBAToBGRMat(img *image.RGBA) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]byte, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			o := (y*width + x) * 3
			data[o], data[o+1], data[o+2] = c.B, c.G, c.R
		}
	}

	return gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
}
