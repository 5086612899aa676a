package components

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar shows the last status message and, while a job runs, the elapsed time.
type StatusBar struct {
	container    *fyne.Container
	statusLabel  *widget.Label
	elapsedLabel *widget.Label
	started      time.Time
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.statusLabel = widget.NewLabel("Ready")
	sb.statusLabel.Truncation = fyne.TextTruncateEllipsis
	sb.elapsedLabel = widget.NewLabel("")
	sb.container = container.NewBorder(nil, nil, nil, sb.elapsedLabel, sb.statusLabel)
	return sb
}

func (sb *StatusBar) SetStatus(status string) {
	fyne.Do(func() {
		sb.statusLabel.SetText(status)
	})
}

// MarkStarted resets the elapsed clock.
func (sb *StatusBar) MarkStarted() {
	fyne.Do(func() {
		sb.started = time.Now()
		sb.elapsedLabel.SetText("0s")
	})
}

// Tick refreshes the elapsed label. It is a no-op before MarkStarted.
func (sb *StatusBar) Tick() {
	fyne.Do(func() {
		if sb.started.IsZero() {
			return
		}
		sb.elapsedLabel.SetText(fmt.Sprintf("%ds", int(time.Since(sb.started).Seconds())))
	})
}

// MarkStopped freezes the elapsed label at its last value.
func (sb *StatusBar) MarkStopped() {
	fyne.Do(func() {
		sb.started = time.Time{}
	})
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

var stageLabels = map[string]string{
	"read":    "Reading image",
	"segment": "Running model",
	"metrics": "Counting cells",
	"overlay": "Drawing outlines",
	"write":   "Writing files",
}

// ProgressBar follows the job stages. The model stage reports no progress of its own, so it
// is shown as an infinite bar.
type ProgressBar struct {
	container  *fyne.Container
	determined *widget.ProgressBar
	infinite   *widget.ProgressBarInfinite
	stageLabel *widget.Label
}

func NewProgressBar() *ProgressBar {
	pb := &ProgressBar{}
	pb.determined = widget.NewProgressBar()
	pb.infinite = widget.NewProgressBarInfinite()
	pb.infinite.Stop()
	pb.infinite.Hide()
	pb.stageLabel = widget.NewLabel("")
	pb.container = container.NewBorder(nil, nil, pb.stageLabel, nil,
		container.NewStack(pb.determined, pb.infinite))
	pb.container.Hide()
	return pb
}

// SetProgress shows stage with progress clamped to [0, 1].
func (pb *ProgressBar) SetProgress(stage string, progress float64) {
	fyne.Do(func() {
		label, ok := stageLabels[stage]
		if !ok {
			label = stage
		}
		pb.stageLabel.SetText(label)

		if stage == "segment" {
			pb.determined.Hide()
			pb.infinite.Show()
			pb.infinite.Start()
			return
		}

		pb.infinite.Stop()
		pb.infinite.Hide()
		pb.determined.Show()
		pb.determined.SetValue(min(max(progress, 0), 1))
	})
}

func (pb *ProgressBar) SetVisible(visible bool) {
	fyne.Do(func() {
		if !visible {
			pb.infinite.Stop()
			pb.container.Hide()
			return
		}
		pb.determined.SetValue(0)
		pb.stageLabel.SetText("Starting")
		pb.container.Show()
	})
}

func (pb *ProgressBar) GetContainer() *fyne.Container {
	return pb.container
}
