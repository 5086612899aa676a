package views

import (
	"errors"
	"image"

	"cellcount/internal/controllers"
	"cellcount/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// Handlers connect view events to the controller.
type Handlers struct {
	LoadImage         func()
	DropFiles         func(paths []string)
	ChooseFolder      func()
	Start             func()
	Cancel            func()
	DiameterChanged   func(string)
	VariantChanged    func(string)
	PixelScaleChanged func(string)
}

var _ controllers.View = (*MainView)(nil)

// MainView is the single application window.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	imageDisplay  *components.ImageDisplay
	controls      *components.ControlPanel
	statusBar     *components.StatusBar
	progressBar   *components.ProgressBar

	extensions []string
}

// NewMainView builds the window content. extensions filters the open dialog.
func NewMainView(window fyne.Window, variants []string, selectedVariant string, extensions []string) *MainView {
	view := &MainView{
		window:     window,
		extensions: extensions,
	}

	view.imageDisplay = components.NewImageDisplay()
	view.controls = components.NewControlPanel(variants, selectedVariant)
	view.statusBar = components.NewStatusBar()
	view.progressBar = components.NewProgressBar()
	view.buildLayout()

	return view
}

func (mv *MainView) buildLayout() {
	bottom := container.NewVBox(
		mv.controls.GetContainer(),
		mv.progressBar.GetContainer(),
		mv.statusBar.GetContainer(),
	)

	mv.mainContainer = container.NewBorder(nil, bottom, nil, nil, mv.imageDisplay.GetContainer())
	mv.window.SetContent(mv.mainContainer)
}

// SetHandlers wires the widgets and the window drop target. Handlers that may block on file
// I/O run off the UI thread.
func (mv *MainView) SetHandlers(h Handlers) {
	mv.controls.SetHandlers(components.ControlHandlers{
		Load:              h.LoadImage,
		ChooseFolder:      h.ChooseFolder,
		Start:             h.Start,
		Cancel:            h.Cancel,
		DiameterChanged:   h.DiameterChanged,
		VariantChanged:    h.VariantChanged,
		PixelScaleChanged: h.PixelScaleChanged,
	})

	if h.DropFiles == nil {
		return
	}
	mv.window.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		paths := make([]string, 0, len(uris))
		for _, uri := range uris {
			if uri.Scheme() == "file" {
				paths = append(paths, uri.Path())
			}
		}
		if len(paths) > 0 {
			go h.DropFiles(paths)
		}
	})
}

func (mv *MainView) SetSourceImage(img image.Image) {
	mv.imageDisplay.SetInputImage(img)
}

func (mv *MainView) SetResultImage(img image.Image) {
	mv.imageDisplay.SetResultImage(img)
}

func (mv *MainView) SetMetricsText(text string) {
	mv.imageDisplay.SetMetricsText(text)
}

func (mv *MainView) SetOutputFolder(folder string) {
	mv.controls.SetOutputFolder(folder)
}

func (mv *MainView) SetProcessingActive(active bool) {
	mv.controls.SetProcessingActive(active)
	mv.progressBar.SetVisible(active)
	if active {
		mv.statusBar.MarkStarted()
		mv.imageDisplay.SetResultHint("Processing...")
	} else {
		mv.statusBar.MarkStopped()
		mv.imageDisplay.SetResultHint("Segmentation Result will appear here")
	}
}

func (mv *MainView) UpdateStatus(status string) {
	mv.statusBar.SetStatus(status)
}

func (mv *MainView) UpdateProgress(stage string, progress float64) {
	mv.progressBar.SetProgress(stage, progress)
	mv.statusBar.Tick()
}

func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

func (mv *MainView) ShowWarning(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// ShowImageOpenDialog reports the chosen local path, or "" when the dialog is dismissed.
func (mv *MainView) ShowImageOpenDialog(callback func(path string)) {
	fyne.Do(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, mv.window)
				return
			}
			if reader == nil {
				callback("")
				return
			}
			path := reader.URI().Path()
			reader.Close()

			if reader.URI().Scheme() != "file" {
				dialog.ShowError(errors.New("only local files can be analysed"), mv.window)
				return
			}
			go callback(path)
		}, mv.window)

		if len(mv.extensions) > 0 {
			fd.SetFilter(storage.NewExtensionFileFilter(mv.extensions))
		}
		fd.Show()
	})
}

func (mv *MainView) ShowFolderDialog(callback func(path string)) {
	fyne.Do(func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, mv.window)
				return
			}
			if uri == nil {
				callback("")
				return
			}
			callback(uri.Path())
		}, mv.window)
	})
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

func (mv *MainView) Close() {
	fyne.Do(func() {
		mv.window.Close()
	})
}
