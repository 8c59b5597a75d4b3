// Observer pattern interfaces for shell event delivery. Events use the
// CloudEvents specification for standardized format and interoperability
// with external systems.
package appshell

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is the interface for components that want shell event
// notifications. Observers register with the shell and receive every event
// matching their type filter, including lifecycle transitions,
// reconciliation pass boundaries and activation faults.
type Observer interface {
	// OnEvent is called for each matching event. Observers should return
	// quickly; slow handlers delay nothing but their own goroutine, yet
	// they do hold references to the event payload.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// Subject is the interface the shell implements as an event emitter.
type Subject interface {
	// RegisterObserver adds an observer. When eventTypes is non-empty the
	// observer only receives events of those types.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent; unknown
	// observers are not an error.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers an event to all matching observers.
	// Delivery is asynchronous unless the context carries the
	// synchronous-notification hint.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers reports the currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo describes one registered observer, for debugging and
// administrative surfaces.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes are the event types this observer is subscribed to.
	// Empty slice means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// FunctionalObserver adapts a plain function into an Observer. Useful for
// quick observer creation without defining a struct.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that delegates to handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// LoggingObserver writes every received event to a Logger. Failures log at
// error level, everything else at info. It is the default error sink for
// hosts that wire nothing else.
type LoggingObserver struct {
	id     string
	logger Logger
}

// NewLoggingObserver creates a LoggingObserver with the given id.
func NewLoggingObserver(id string, logger Logger) *LoggingObserver {
	return &LoggingObserver{id: id, logger: logger}
}

// OnEvent implements Observer.
func (o *LoggingObserver) OnEvent(_ context.Context, event cloudevents.Event) error {
	args := []any{"type", event.Type(), "source", event.Source(), "id", event.ID()}
	if isFailureEventType(event.Type()) {
		o.logger.Error("Shell event", args...)
		return nil
	}
	o.logger.Info("Shell event", args...)
	return nil
}

// ObserverID implements Observer.
func (o *LoggingObserver) ObserverID() string {
	return o.id
}

// isFailureEventType reports whether an event type represents a failure.
func isFailureEventType(eventType string) bool {
	switch eventType {
	case EventTypeAppLoadFailed, EventTypeAppBootstrapFailed,
		EventTypeAppMountFailed, EventTypeAppUnmountFailed,
		EventTypeAppUpdateFailed, EventTypeActivationError:
		return true
	}
	return false
}
