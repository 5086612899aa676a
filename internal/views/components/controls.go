package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ControlPanel holds the analysis inputs and the Start/Cancel buttons.
type ControlPanel struct {
	container     *fyne.Container
	loadButton    *widget.Button
	diameterEntry *widget.Entry
	variantSelect *widget.Select
	pixelEntry    *widget.Entry
	outputButton  *widget.Button
	outputLabel   *widget.Label
	startButton   *widget.Button
	cancelButton  *widget.Button

	processingActive bool
}

// ControlHandlers are invoked from the UI thread. Nil handlers are ignored.
type ControlHandlers struct {
	Load              func()
	ChooseFolder      func()
	Start             func()
	Cancel            func()
	DiameterChanged   func(string)
	VariantChanged    func(string)
	PixelScaleChanged func(string)
}

// NewControlPanel builds the panel with variants as the selectable model names.
func NewControlPanel(variants []string, selected string) *ControlPanel {
	cp := &ControlPanel{}
	cp.createComponents(variants, selected)
	cp.buildLayout()
	return cp
}

func (cp *ControlPanel) createComponents(variants []string, selected string) {
	cp.loadButton = widget.NewButton("Load Image", nil)
	cp.loadButton.Importance = widget.HighImportance

	cp.diameterEntry = widget.NewEntry()
	cp.diameterEntry.SetPlaceHolder("auto")

	cp.variantSelect = widget.NewSelect(variants, nil)
	if selected != "" {
		cp.variantSelect.SetSelected(selected)
	}

	cp.pixelEntry = widget.NewEntry()
	cp.pixelEntry.SetPlaceHolder("optional")

	cp.outputButton = widget.NewButton("Choose Folder", nil)
	cp.outputLabel = widget.NewLabelWithStyle("Not selected", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	cp.outputLabel.Wrapping = fyne.TextWrapBreak

	cp.startButton = widget.NewButton("Start Analysis", nil)
	cp.startButton.Importance = widget.HighImportance

	cp.cancelButton = widget.NewButton("Cancel", nil)
	cp.cancelButton.Importance = widget.MediumImportance
	cp.cancelButton.Disable()
}

func (cp *ControlPanel) buildLayout() {
	form := widget.NewForm(
		widget.NewFormItem("Diameter (px)", cp.diameterEntry),
		widget.NewFormItem("Model", cp.variantSelect),
		widget.NewFormItem("Pixel size (µm/pixel)", cp.pixelEntry),
		widget.NewFormItem("Output Folder", container.NewBorder(nil, nil, cp.outputButton, nil, cp.outputLabel)),
	)

	cp.container = container.NewVBox(
		form,
		container.NewGridWithColumns(3, cp.loadButton, cp.startButton, cp.cancelButton),
	)
}

func (cp *ControlPanel) SetHandlers(h ControlHandlers) {
	cp.loadButton.OnTapped = h.Load
	cp.outputButton.OnTapped = h.ChooseFolder
	cp.startButton.OnTapped = h.Start
	cp.cancelButton.OnTapped = h.Cancel
	cp.diameterEntry.OnChanged = h.DiameterChanged
	cp.variantSelect.OnChanged = h.VariantChanged
	cp.pixelEntry.OnChanged = h.PixelScaleChanged
}

func (cp *ControlPanel) SetOutputFolder(folder string) {
	fyne.Do(func() {
		if folder == "" {
			cp.outputLabel.SetText("Not selected")
			return
		}
		cp.outputLabel.SetText(folder)
	})
}

// SetProcessingActive swaps which of Start and Cancel is enabled and locks the inputs.
func (cp *ControlPanel) SetProcessingActive(active bool) {
	fyne.Do(func() {
		cp.processingActive = active

		inputs := []fyne.Disableable{cp.loadButton, cp.diameterEntry, cp.variantSelect,
			cp.pixelEntry, cp.outputButton, cp.startButton}
		for _, input := range inputs {
			if active {
				input.Disable()
			} else {
				input.Enable()
			}
		}

		if active {
			cp.cancelButton.Enable()
		} else {
			cp.cancelButton.Disable()
		}
	})
}

func (cp *ControlPanel) IsProcessingActive() bool {
	return cp.processingActive
}

func (cp *ControlPanel) GetContainer() *fyne.Container {
	return cp.container
}
