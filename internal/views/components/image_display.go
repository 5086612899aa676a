package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 480
	ImageAreaHeight = 320
)

// ImageDisplay shows the input image and the segmentation overlay side by side, with the
// metrics line underneath.
type ImageDisplay struct {
	container    *fyne.Container
	inputImage   *canvas.Image
	resultImage  *canvas.Image
	inputHint    *widget.Label
	resultHint   *widget.Label
	metricsLabel *widget.Label

	placeholder image.Image
	hasInput    bool
	hasResult   bool
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func (id *ImageDisplay) createComponents() {
	id.placeholder = createPlaceholderImage()

	id.inputImage = newPreviewCanvas(id.placeholder)
	id.resultImage = newPreviewCanvas(id.placeholder)

	id.inputHint = widget.NewLabelWithStyle("Drag & Drop or Load an Image",
		fyne.TextAlignCenter, fyne.TextStyle{})
	id.resultHint = widget.NewLabelWithStyle("Segmentation Result will appear here",
		fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	id.metricsLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	id.metricsLabel.SizeName = theme.SizeNameHeadingText
}

func newPreviewCanvas(img image.Image) *canvas.Image {
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	c.ScaleMode = canvas.ImageScaleSmooth
	c.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return c
}

// createPlaceholderImage draws a light panel with a dashed border.
func createPlaceholderImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, ImageAreaWidth, ImageAreaHeight))

	background := color.RGBA{R: 246, G: 246, B: 246, A: 255}
	for y := 0; y < ImageAreaHeight; y++ {
		for x := 0; x < ImageAreaWidth; x++ {
			img.Set(x, y, background)
		}
	}

	border := color.RGBA{R: 160, G: 160, B: 160, A: 255}
	for x := 0; x < ImageAreaWidth; x++ {
		if (x/6)%2 == 0 {
			img.Set(x, 0, border)
			img.Set(x, ImageAreaHeight-1, border)
		}
	}
	for y := 0; y < ImageAreaHeight; y++ {
		if (y/6)%2 == 0 {
			img.Set(0, y, border)
			img.Set(ImageAreaWidth-1, y, border)
		}
	}

	return img
}

func (id *ImageDisplay) setupLayout() {
	inputPane := container.NewStack(id.inputImage, container.NewCenter(id.inputHint))
	resultPane := container.NewStack(id.resultImage, container.NewCenter(id.resultHint))

	id.container = container.NewBorder(
		nil,
		id.metricsLabel,
		nil, nil,
		container.NewGridWithColumns(2, inputPane, resultPane),
	)
}

// SetInputImage shows img in the left pane; nil restores the placeholder.
func (id *ImageDisplay) SetInputImage(img image.Image) {
	fyne.Do(func() {
		id.hasInput = img != nil
		if img == nil {
			id.inputImage.Image = id.placeholder
			id.inputHint.Show()
		} else {
			id.inputImage.Image = img
			id.inputHint.Hide()
		}
		id.inputImage.Refresh()
	})
}

// SetResultImage shows img in the right pane; nil restores the placeholder.
func (id *ImageDisplay) SetResultImage(img image.Image) {
	fyne.Do(func() {
		id.hasResult = img != nil
		if img == nil {
			id.resultImage.Image = id.placeholder
			id.resultHint.Show()
		} else {
			id.resultImage.Image = img
			id.resultHint.Hide()
		}
		id.resultImage.Refresh()
	})
}

func (id *ImageDisplay) SetResultHint(text string) {
	fyne.Do(func() {
		id.resultHint.SetText(text)
	})
}

func (id *ImageDisplay) SetMetricsText(text string) {
	fyne.Do(func() {
		id.metricsLabel.SetText(text)
	})
}

func (id *ImageDisplay) HasInputImage() bool {
	return id.hasInput
}

func (id *ImageDisplay) HasResultImage() bool {
	return id.hasResult
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}
