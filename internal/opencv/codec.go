// Package opencv implements the image codec on top of OpenCV, which reads scientific TIFF
// variants (16-bit, float, multi-sample) that the pure Go decoders reject.
package opencv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"cellcount/internal/logger"
	"cellcount/internal/models"

	"gocv.io/x/gocv"
)

type Codec struct {
	logger logger.Logger
}

func NewCodec(log logger.Logger) *Codec {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Codec{logger: log}
}

func (c *Codec) read(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to decode %s with OpenCV", path)
	}

	c.logger.Debug("OpenCVCodec", "image decoded", map[string]interface{}{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
		"type":     int(mat.Type()),
	})

	return mat, nil
}

func (c *Codec) Read(path string) (*models.SourceImage, error) {
	mat, err := c.read(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	src, err := MatToSourceImage(mat)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	src.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return src, nil
}

func (c *Codec) ReadMask(path string) (*models.LabelMask, error) {
	mat, err := c.read(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return MatToMask(mat)
}

func (c *Codec) WriteMask(path string, mask *models.LabelMask) error {
	mat, err := MaskToMat(mask)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("OpenCV could not write %s", path)
	}
	return nil
}

func (c *Codec) WriteOverlay(path string, img *image.RGBA) error {
	mat, err := RGBAToBGRMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("OpenCV could not write %s", path)
	}
	return nil
}
