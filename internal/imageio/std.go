package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"cellcount/internal/models"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// StdCodec decodes PNG, JPEG, GIF, BMP, WebP and TIFF without cgo and writes PNG or TIFF
// depending on the target extension.
type StdCodec struct{}

func NewStdCodec() *StdCodec {
	return &StdCodec{}
}

func (c *StdCodec) decode(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, format, nil
}

func (c *StdCodec) Read(path string) (*models.SourceImage, error) {
	img, format, err := c.decode(path)
	if err != nil {
		return nil, err
	}
	return ToSourceImage(img, format)
}

func (c *StdCodec) ReadMask(path string) (*models.LabelMask, error) {
	img, _, err := c.decode(path)
	if err != nil {
		return nil, err
	}
	return ImageToMask(img)
}

func (c *StdCodec) WriteMask(path string, mask *models.LabelMask) error {
	gray, err := MaskToGray16(mask)
	if err != nil {
		return err
	}
	return writeFile(path, gray)
}

func (c *StdCodec) WriteOverlay(path string, img *image.RGBA) error {
	return writeFile(path, img)
}

func writeFile(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := encode(file, path, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func encode(w io.Writer, path string, img image.Image) error {
	if isTIFF(path) {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(w, img)
}

// DecodeFile decodes an image for display without converting it.
func DecodeFile(path string) (image.Image, error) {
	img, _, err := (&StdCodec{}).decode(path)
	return img, err
}
