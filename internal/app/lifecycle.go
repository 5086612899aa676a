package app

import (
	"cellcount/internal/logger"
	"cellcount/internal/shutdown"
)

// Lifecycle stops registered components once, in reverse registration order, on window
// close or on an interrupt signal.
type Lifecycle struct {
	manager *shutdown.Manager
	logger  logger.Logger
}

func NewLifecycle(manager *shutdown.Manager, log logger.Logger) *Lifecycle {
	return &Lifecycle{manager: manager, logger: log}
}

func (l *Lifecycle) Register(name string, component shutdown.Shutdownable) {
	l.manager.Register(shutdown.Func(func() {
		component.Shutdown()
		l.logger.Debug("Lifecycle", "component stopped", map[string]interface{}{
			"component": name,
		})
	}))
}

// ListenForSignals shuts down on SIGINT/SIGTERM and then calls onSignal, if set.
func (l *Lifecycle) ListenForSignals(onSignal func()) {
	l.manager.Listen()
	if onSignal == nil {
		return
	}
	go func() {
		<-l.manager.Done()
		onSignal()
	}()
}

func (l *Lifecycle) Shutdown() {
	l.manager.Shutdown()
}

func (l *Lifecycle) Done() <-chan struct{} {
	return l.manager.Done()
}
