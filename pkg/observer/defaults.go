package observer

import (
	"context"
	"fmt"
	"log"
	"os"
)

// ============================================================================
// Default Observer Implementations
// ============================================================================

// NoOpObserver ignores all events. Useful as a default when no observer is
// configured.
type NoOpObserver struct{}

func (o *NoOpObserver) OnEvent(ctx context.Context, event Event) {
	// No operation
}

// ConsoleObserver prints events to stdout/stderr via a Logger. Useful for
// development and debugging.
type ConsoleObserver struct {
	logger Logger
}

func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{logger: NewDefaultLogger()}
}

func NewConsoleObserverWithLogger(logger Logger) *ConsoleObserver {
	return &ConsoleObserver{logger: logger}
}

func (o *ConsoleObserver) OnEvent(ctx context.Context, event Event) {
	fields := map[string]interface{}{
		"type":        event.Type,
		"status":      event.Status,
		"instance_id": event.InstanceID,
	}

	if event.DefinitionID != "" {
		fields["definition_id"] = event.DefinitionID
	}

	if event.TaskID != 0 {
		fields["task_id"] = event.TaskID
		fields["task_name"] = event.TaskName
		fields["task_type"] = event.TaskType
	}

	if event.ElapsedTime > 0 {
		fields["elapsed_time"] = event.ElapsedTime.String()
	}

	msg := fmt.Sprintf("[%s] %s", event.Type, event.Status)

	switch event.Type {
	case EventInstanceStart:
		o.logger.Info(msg, fields)
	case EventInstanceEnd:
		if event.Error != nil {
			fields["error"] = event.Error.Error()
			o.logger.Error(msg, fields)
		} else {
			o.logger.Info(msg, fields)
		}
	case EventTaskStart, EventTaskSuccess, EventTaskEnd:
		o.logger.Debug(msg, fields)
	case EventTaskFailure:
		if event.Error != nil {
			fields["error"] = event.Error.Error()
		}
		o.logger.Warn(msg, fields)
	default:
		o.logger.Info(msg, fields)
	}
}

// ============================================================================
// Default Logger Implementations
// ============================================================================

// NoOpLogger ignores all log messages.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Error(msg string, fields map[string]interface{}) {}

// DefaultLogger writes to stdout/stderr using the standard library's log
// package. Library consumers normally supply pkg/logging's slog-backed
// Logger instead; this exists purely as a dependency-free fallback.
type DefaultLogger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		infoLogger:  log.New(os.Stdout, "[INFO] ", log.LstdFlags),
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
}

func (l *DefaultLogger) Debug(msg string, fields map[string]interface{}) {
	l.infoLogger.Printf("[DEBUG] %s %v", msg, fields)
}

func (l *DefaultLogger) Info(msg string, fields map[string]interface{}) {
	l.infoLogger.Printf("%s %v", msg, fields)
}

func (l *DefaultLogger) Warn(msg string, fields map[string]interface{}) {
	l.infoLogger.Printf("[WARN] %s %v", msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields map[string]interface{}) {
	l.errorLogger.Printf("%s %v", msg, fields)
}

// ============================================================================
// Observer Manager
// ============================================================================

// Manager manages multiple observers and notifies them all of events
// asynchronously. Observers run in separate goroutines so a slow or
// misbehaving observer never blocks instance execution.
type Manager struct {
	observers []Observer
}

func NewManager() *Manager {
	return &Manager{observers: []Observer{}}
}

func NewManagerWithObservers(observers ...Observer) *Manager {
	return &Manager{observers: observers}
}

// Register adds an observer to the manager.
func (m *Manager) Register(observer Observer) {
	if observer != nil {
		m.observers = append(m.observers, observer)
	}
}

// Notify sends an event to all registered observers asynchronously. Each
// observer is called in its own goroutine, and a panic in one is recovered
// so it cannot affect other observers or the instance's execution.
func (m *Manager) Notify(ctx context.Context, event Event) {
	for _, o := range m.observers {
		obs := o
		go func() {
			defer func() {
				recover()
			}()
			obs.OnEvent(ctx, event)
		}()
	}
}

// HasObservers reports whether any observers are registered.
func (m *Manager) HasObservers() bool {
	return len(m.observers) > 0
}

// Count returns the number of registered observers.
func (m *Manager) Count() int {
	return len(m.observers)
}
