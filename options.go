package appshell

import (
	"fmt"
	"time"
)

// ShellOption represents a configuration option for the shell.
type ShellOption func(*Shell) error

// WithLogger sets the shell's logger. Required; NewShell fails with
// ErrLoggerNotSet when absent.
func WithLogger(logger Logger) ShellOption {
	return func(s *Shell) error {
		if logger == nil {
			return ErrLoggerNotSet
		}
		s.logger = logger
		return nil
	}
}

// WithNavigator sets the navigation source the shell subscribes to at
// Start. Without one, Start fails with ErrNavigatorNotSet.
func WithNavigator(nav Navigator) ShellOption {
	return func(s *Shell) error {
		if nav == nil {
			return ErrNavigatorNotSet
		}
		s.navigator = nav
		return nil
	}
}

// WithLoaderResolver installs a resolver for descriptors registered
// without an inline loader. A LoaderRegistry is the standard choice.
func WithLoaderResolver(resolver LoaderResolver) ShellOption {
	return func(s *Shell) error {
		s.loaderResolver = resolver
		return nil
	}
}

// WithOperationTimeout bounds every lifecycle step with
// context.WithTimeout. Zero means no bound; a hanging module then hangs
// its own application only, never the shell.
func WithOperationTimeout(d time.Duration) ShellOption {
	return func(s *Shell) error {
		if d < 0 {
			return fmt.Errorf("%w: operation timeout cannot be negative", ErrConfigValidationFailed)
		}
		s.opTimeout = d
		return nil
	}
}

// WithTransitionHook registers a function called synchronously on every
// status transition, before the corresponding event is emitted. Hook
// panics are contained and logged.
func WithTransitionHook(hook func(TransitionEvent)) ShellOption {
	return func(s *Shell) error {
		s.transitionHook = hook
		return nil
	}
}

// WithObserver registers an observer at construction time, with an
// optional event type filter.
func WithObserver(observer Observer, eventTypes ...string) ShellOption {
	return func(s *Shell) error {
		eventTypeMap := make(map[string]bool)
		for _, eventType := range eventTypes {
			eventTypeMap[eventType] = true
		}
		s.observers[observer.ObserverID()] = &observerRegistration{
			observer:     observer,
			eventTypes:   eventTypeMap,
			registeredAt: time.Now(),
		}
		return nil
	}
}

// WithHistoryCapacity sets how many transition events the shell retains
// for History queries. Zero or negative selects the default.
func WithHistoryCapacity(capacity int) ShellOption {
	return func(s *Shell) error {
		s.historyCap = capacity
		return nil
	}
}

// WithShellConfig applies a validated ShellConfig to the shell. It maps
// the declarative settings onto their corresponding options, so hosts can
// drive the shell entirely from fed configuration.
func WithShellConfig(cfg *ShellConfig) ShellOption {
	return func(s *Shell) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if err := ValidateConfig(cfg); err != nil {
			return err
		}
		s.opTimeout = cfg.OperationTimeout
		s.historyCap = cfg.HistoryCapacity
		return nil
	}
}
