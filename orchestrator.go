package appshell

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Shell coordinates the full lifecycle of registered applications. It
// evaluates activation rules against the current navigation location and
// reconciles the mounted set to match, one serialized pass at a time.
//
// All exported methods are safe for concurrent use. Registry operations
// are synchronous and return caller errors; lifecycle failures never
// surface from reconciliation, they are contained per application and
// reported through the observability sink.
type Shell struct {
	mu       sync.RWMutex
	registry *appRegistry
	started  bool

	// unsubscribe detaches the navigator subscription while started.
	unsubscribe func()

	logger         Logger
	navigator      Navigator
	loaderResolver LoaderResolver
	opTimeout      time.Duration
	transitionHook func(TransitionEvent)
	history        *transitionHistory
	historyCap     int

	// Coalescing state, independent of mu. The two locks are never held
	// together.
	reconcileMu sync.Mutex
	reconciling bool
	pending     *Location
	waiters     []chan struct{}

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex
}

// NewShell creates a Shell from the given options. A logger is required;
// everything else has a usable default. The returned shell is idle until
// Start is called, but registration is allowed immediately.
func NewShell(opts ...ShellOption) (*Shell, error) {
	s := &Shell{
		registry:  newAppRegistry(),
		observers: make(map[string]*observerRegistration),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.logger == nil {
		return nil, ErrLoggerNotSet
	}
	s.history = newTransitionHistory(s.historyCap)
	return s, nil
}

// Register adds an application to the shell. Descriptors are validated
// and copied; registration order is preserved and drives every ordered
// listing the shell produces. Registering while started requests a
// reconciliation pass so the new application can mount immediately if its
// rule matches.
func (s *Shell) Register(d AppDescriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.registry.get(d.Name) != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateAppName, d.Name)
	}
	rt := newAppRuntime(d.clone())
	s.registry.add(rt)
	started := s.started
	s.mu.Unlock()

	s.logger.Info("Application registered", "app", d.Name, "mountPoint", d.MountPoint)
	s.emitEvent(context.Background(), EventTypeAppRegistered, TransitionEvent{
		App: d.Name, From: StatusNotLoaded, To: StatusNotLoaded, At: time.Now(),
	}, nil)

	if started {
		s.requestReconcile(s.navigator.Current())
	}
	return nil
}

// Unregister removes an application. Only applications that are fully
// inactive can be removed: not_mounted, not_loaded, load_error,
// bootstrap_error or skipped. Anything mounted or mid-step returns
// ErrInvalidAppState.
func (s *Shell) Unregister(name string) error {
	s.mu.Lock()
	rt := s.registry.get(name)
	if rt == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	if !rt.status.unregisterable() {
		status := rt.status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot unregister %q while %s", ErrInvalidAppState, name, status)
	}
	s.registry.remove(name)
	s.mu.Unlock()

	s.logger.Info("Application unregistered", "app", name)
	s.emitEvent(context.Background(), EventTypeAppUnregistered, TransitionEvent{
		App: name, At: time.Now(),
	}, nil)
	return nil
}

// GetStatus returns the application's current lifecycle status.
func (s *Shell) GetStatus(name string) (AppStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt := s.registry.get(name)
	if rt == nil {
		return "", fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	return rt.status, nil
}

// AppInfo is a point-in-time snapshot of one application's state.
type AppInfo struct {
	Name       string    `json:"name"`
	Status     AppStatus `json:"status"`
	MountPoint string    `json:"mountPoint,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
}

// Info returns a snapshot of the named application, including its most
// recent lifecycle error.
func (s *Shell) Info(name string) (AppInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt := s.registry.get(name)
	if rt == nil {
		return AppInfo{}, fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	return appInfoLocked(rt), nil
}

// ListApplications returns a snapshot of every registered application in
// registration order.
func (s *Shell) ListApplications() []AppInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AppInfo, 0, s.registry.len())
	for _, rt := range s.registry.ordered() {
		out = append(out, appInfoLocked(rt))
	}
	return out
}

// ListMounted returns the names of the currently mounted applications in
// registration order.
func (s *Shell) ListMounted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, rt := range s.registry.ordered() {
		if rt.status == StatusMounted {
			out = append(out, rt.descriptor.Name)
		}
	}
	return out
}

// History returns the retained transition events, oldest first.
func (s *Shell) History() []TransitionEvent {
	return s.history.snapshot()
}

// Start subscribes to the navigator and runs the initial reconciliation
// pass against the current location. It blocks until the shell is
// quiescent or ctx is done, so a nil return means the initial mounts have
// settled. Individual application failures never fail Start.
func (s *Shell) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrShellStarted
	}
	if s.navigator == nil {
		s.mu.Unlock()
		return ErrNavigatorNotSet
	}
	s.started = true
	s.unsubscribe = s.navigator.Subscribe(func(loc Location) {
		s.requestReconcile(loc)
	})
	s.mu.Unlock()

	s.logger.Info("Shell started", "location", s.navigator.Current().String())
	s.emitEvent(ctx, EventTypeShellStarted, nil, nil)

	s.requestReconcile(s.navigator.Current())
	return s.awaitQuiescence(ctx)
}

// Stop detaches the navigator subscription and waits for in-flight
// reconciliation to drain. Nothing is unmounted: mounted applications stay
// mounted and the registry is untouched, so the shell can be started
// again.
func (s *Shell) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrShellNotStarted
	}
	s.started = false
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	err := s.awaitQuiescence(ctx)

	s.logger.Info("Shell stopped")
	s.emitEvent(ctx, EventTypeShellStopped, nil, nil)
	return err
}

// TriggerReconciliation requests a pass and blocks until the shell is
// quiescent or ctx is done. With a non-nil override the pass targets that
// location instead of the navigator's current one; later navigation still
// wins, an override is coalesced like any other trigger.
func (s *Shell) TriggerReconciliation(ctx context.Context, override *Location) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrShellNotStarted
	}

	var loc Location
	if override != nil {
		loc = *override
	} else {
		loc = s.navigator.Current()
	}
	s.requestReconcile(loc)
	return s.awaitQuiescence(ctx)
}

// ResetApplication returns an application to not_loaded, clearing its
// memoized module and bootstrap result so the next activation starts from
// a fresh load. Failed and skipped applications are the usual targets;
// idle ones may be reset too to pick up new module code. Mounted or
// mid-step applications cannot be reset. When the shell is started, a
// pass is requested so a still-targeted application remounts promptly.
func (s *Shell) ResetApplication(name string) error {
	s.mu.Lock()
	rt := s.registry.get(name)
	if rt == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	if !rt.status.resettable() {
		status := rt.status
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot reset %q while %s", ErrInvalidAppState, name, status)
	}
	rt.module = nil
	rt.bootstrapped = false
	rt.lastErr = nil
	started := s.started
	s.mu.Unlock()

	s.transition(context.Background(), rt, StatusNotLoaded, nil, "")
	s.logger.Info("Application reset", "app", name)

	if started {
		s.requestReconcile(s.navigator.Current())
	}
	return nil
}

// SkipApplication administratively parks an application in skipped, the
// same absorbing state a nil loader result produces. The application is
// never activated again until reset. Mounted or mid-step applications
// cannot be skipped.
func (s *Shell) SkipApplication(name string) error {
	s.mu.Lock()
	rt := s.registry.get(name)
	if rt == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAppNotFound, name)
	}
	status := rt.status
	if status == StatusSkipped {
		s.mu.Unlock()
		return nil
	}
	if status.Active() || status.transient() {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot skip %q while %s", ErrInvalidAppState, name, status)
	}
	s.mu.Unlock()

	s.transition(context.Background(), rt, StatusSkipped, nil, "")
	s.logger.Info("Application skipped", "app", name)
	return nil
}

func appInfoLocked(rt *appRuntime) AppInfo {
	info := AppInfo{
		Name:       rt.descriptor.Name,
		Status:     rt.status,
		MountPoint: rt.descriptor.MountPoint,
	}
	if rt.lastErr != nil {
		info.LastError = rt.lastErr.Error()
	}
	return info
}
