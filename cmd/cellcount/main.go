package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"cellcount/internal/app"
	"cellcount/internal/config"
	"cellcount/internal/controllers"
	"cellcount/internal/logger"
	"cellcount/internal/models"
	"cellcount/internal/views"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

// Application is the desktop shell around the processing stack.
type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	components *app.Components
	controller *controllers.MainController
	view       *views.MainView
	logger     logger.Logger
}

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(2)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Application initialization failed: %v\n", err)
		os.Exit(1)
	}

	application.Run()
}

// NewApplication creates and wires the window, controller and processing stack.
func NewApplication(cfg *config.Config) (*Application, error) {
	components, err := app.Build(cfg, nil)
	if err != nil {
		return nil, err
	}
	log := components.Logger

	fyneapp.SetMetadata(fyne.AppMetadata{
		ID:      app.AppID,
		Name:    app.AppName,
		Version: app.AppVersion,
	})
	fyneApp := fyneapp.NewWithID(app.AppID)

	window := fyneApp.NewWindow(app.AppName)
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()
	window.SetMaster()

	variant, _ := models.ParseVariant(cfg.Model.Variant)
	session := models.NewSession(cfg.Output.Folder, variant, cfg.Output.MaskFormat)

	controller := controllers.NewMainController(
		components.Service, session, components.Codec, log, cfg.Output.KeepMask,
	)

	variantNames := make([]string, len(models.Variants))
	for i, v := range models.Variants {
		variantNames[i] = v.String()
	}
	view := views.NewMainView(window, variantNames, variant.String(), controllers.SupportedExtensions)
	view.SetHandlers(views.Handlers{
		LoadImage:         controller.LoadImage,
		DropFiles:         controller.HandleDrop,
		ChooseFolder:      controller.ChooseOutputFolder,
		Start:             controller.StartProcessing,
		Cancel:            controller.CancelProcessing,
		DiameterChanged:   controller.SetDiameterText,
		VariantChanged:    controller.SetVariantName,
		PixelScaleChanged: controller.SetPixelScaleText,
	})
	controller.SetView(view)
	components.Lifecycle.Register("controller", controller)

	log.Info("Application", "application initialized", map[string]interface{}{
		"go_version":   runtime.Version(),
		"fyne_version": "v2.6.1",
		"variant":      variant.String(),
	})

	return &Application{
		fyneApp:    fyneApp,
		window:     window,
		components: components,
		controller: controller,
		view:       view,
		logger:     log,
	}, nil
}

// Run shows the window and blocks until the application quits.
func (a *Application) Run() {
	a.window.SetCloseIntercept(func() {
		if !a.components.Service.IsProcessing() {
			a.quit()
			return
		}
		a.view.ShowConfirm("Exit", "An analysis is running. Quit anyway?", func(confirmed bool) {
			if confirmed {
				a.quit()
			}
		})
	})

	a.components.Lifecycle.ListenForSignals(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	a.window.Show()
	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	a.components.Lifecycle.Shutdown()
	a.logger.Info("Application", "application terminated", nil)
}

func (a *Application) quit() {
	a.logger.Info("Application", "shutdown requested", nil)
	go func() {
		a.components.Lifecycle.Shutdown()
		fyne.Do(a.window.Close)
	}()
}
