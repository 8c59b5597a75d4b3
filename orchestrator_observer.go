package appshell

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

// RegisterObserver adds an observer to receive shell notifications.
// Observers can optionally filter events by type using the eventTypes
// parameter; an empty filter receives everything.
func (s *Shell) RegisterObserver(observer Observer, eventTypes ...string) error {
	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool)
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	s.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	s.logger.Info("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
// This method is idempotent and won't error if the observer wasn't registered.
func (s *Shell) UnregisterObserver(observer Observer) error {
	s.observerMutex.Lock()
	defer s.observerMutex.Unlock()

	if _, exists := s.observers[observer.ObserverID()]; exists {
		delete(s.observers, observer.ObserverID())
		s.logger.Info("Observer unregistered", "observerID", observer.ObserverID())
	}

	return nil
}

// NotifyObservers delivers a CloudEvent to every matching observer.
// Delivery is per-observer asynchronous unless the context carries the
// synchronous-notification hint; either way observer errors and panics
// are contained and logged, never propagated.
func (s *Shell) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	s.observerMutex.RLock()
	registrations := make([]*observerRegistration, 0, len(s.observers))
	for _, registration := range s.observers {
		registrations = append(registrations, registration)
	}
	s.observerMutex.RUnlock()

	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}

	if err := ValidateCloudEvent(event); err != nil {
		s.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	synchronous := IsSynchronousNotification(ctx)
	for _, registration := range registrations {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue // observer not interested in this event type
		}

		deliver := func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Observer panicked",
						"observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()

			if err := registration.observer.OnEvent(ctx, event); err != nil {
				s.logger.Error("Observer error",
					"observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}

		if synchronous {
			deliver()
		} else {
			go deliver()
		}
	}

	return nil
}

// GetObservers returns information about currently registered observers.
// This is useful for debugging and monitoring.
func (s *Shell) GetObservers() []ObserverInfo {
	s.observerMutex.RLock()
	defer s.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(s.observers))
	for _, registration := range s.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}

		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}

	return info
}

// emitEvent builds and publishes one shell CloudEvent. Emission never
// blocks shell operations: with the synchronous hint delivery happens
// inline, otherwise it is handed to the notification goroutines.
func (s *Shell) emitEvent(ctx context.Context, eventType string, data interface{}, metadata map[string]interface{}) {
	event := NewCloudEvent(eventType, EventSource, data, metadata)

	if IsSynchronousNotification(ctx) {
		if err := s.NotifyObservers(ctx, event); err != nil {
			s.logger.Error("Failed to notify observers", "event", eventType, "error", err)
		}
		return
	}

	go func() {
		if err := s.NotifyObservers(ctx, event); err != nil {
			s.logger.Error("Failed to notify observers", "event", eventType, "error", err)
		}
	}()
}
