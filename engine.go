package appshell

import (
	"context"
	"fmt"
	"time"
)

// appRuntime is the engine-owned state of one registered application. The
// shell's mutex guards every field; lifecycle steps run outside the lock
// and report their outcome back through transition.
type appRuntime struct {
	descriptor AppDescriptor

	status       AppStatus
	module       LifecycleModule
	bootstrapped bool
	lastErr      error
}

func newAppRuntime(d AppDescriptor) *appRuntime {
	return &appRuntime{descriptor: d, status: StatusNotLoaded}
}

// transition is the single gate every status change passes through. It
// records the new status and cause under the shell lock, then appends
// history, invokes the transition hook and emits the matching CloudEvent.
func (s *Shell) transition(ctx context.Context, rt *appRuntime, to AppStatus, cause error, pass string) {
	s.mu.Lock()
	from := rt.status
	rt.status = to
	if cause != nil {
		rt.lastErr = cause
	}
	name := rt.descriptor.Name
	s.mu.Unlock()

	ev := TransitionEvent{App: name, From: from, To: to, Pass: pass, At: time.Now()}
	if cause != nil {
		ev.Error = cause.Error()
	}
	s.history.append(ev)
	s.invokeTransitionHook(ev)

	if cause != nil {
		s.logger.Error("Application step failed", "app", name, "from", from, "to", to, "error", cause)
	} else {
		s.logger.Debug("Application transition", "app", name, "from", from, "to", to, "pass", pass)
	}

	if eventType := transitionEventType(from, to); eventType != "" {
		s.emitEvent(ctx, eventType, ev, nil)
	}
}

// invokeTransitionHook calls the configured hook with panic isolation, so
// a faulty hook cannot take down a reconciliation pass.
func (s *Shell) invokeTransitionHook(ev TransitionEvent) {
	hook := s.transitionHook
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Transition hook panicked", "app", ev.App, "to", ev.To, "panic", r)
		}
	}()
	hook(ev)
}

// runStep executes one lifecycle step with the configured operation
// timeout and panic isolation. A panic inside the module becomes that
// step's error; the shell never crashes on behalf of an application.
func (s *Shell) runStep(ctx context.Context, fn func(context.Context) error) (err error) {
	stepCtx := ctx
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrModulePanic, r)
		}
	}()
	return fn(stepCtx)
}

// resolveLoader returns the loader for rt, consulting the shell's
// LoaderResolver when the descriptor carries none.
func (s *Shell) resolveLoader(rt *appRuntime) (ModuleLoader, error) {
	if rt.descriptor.Loader != nil {
		return rt.descriptor.Loader, nil
	}
	if s.loaderResolver == nil {
		return nil, fmt.Errorf("%w: %q has no inline loader and no resolver is configured",
			ErrLoaderUnresolved, rt.descriptor.Name)
	}
	return s.loaderResolver.ResolveLoader(rt.descriptor.loaderKey())
}

// ensureLoaded drives rt from not_loaded to not_bootstrapped. The loader
// runs at most once per generation; its memoized module survives until an
// explicit reset. A (nil, nil) loader result parks the application in
// skipped.
func (s *Shell) ensureLoaded(ctx context.Context, rt *appRuntime, pass string) error {
	s.transition(ctx, rt, StatusLoading, nil, pass)

	loader, err := s.resolveLoader(rt)
	if err != nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationLoad, err)
		s.transition(ctx, rt, StatusLoadError, lerr, pass)
		return lerr
	}

	var module LifecycleModule
	err = s.runStep(ctx, func(stepCtx context.Context) error {
		var loadErr error
		module, loadErr = loader(stepCtx)
		return loadErr
	})
	if err != nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationLoad, err)
		s.transition(ctx, rt, StatusLoadError, lerr, pass)
		return lerr
	}
	if module == nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationLoad, ErrInvalidModule)
		s.transition(ctx, rt, StatusSkipped, lerr, pass)
		return lerr
	}

	s.mu.Lock()
	rt.module = module
	s.mu.Unlock()
	s.transition(ctx, rt, StatusNotBootstrapped, nil, pass)
	return nil
}

// ensureBootstrapped drives rt from not_bootstrapped to not_mounted.
// Bootstrap runs exactly once per loaded module; success is memoized for
// the life of the generation.
func (s *Shell) ensureBootstrapped(ctx context.Context, rt *appRuntime, pass string) error {
	s.mu.RLock()
	module := rt.module
	s.mu.RUnlock()
	s.transition(ctx, rt, StatusBootstrapping, nil, pass)

	err := s.runStep(ctx, module.Bootstrap)
	if err != nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationBootstrap, err)
		s.transition(ctx, rt, StatusBootstrapError, lerr, pass)
		return lerr
	}

	s.mu.Lock()
	rt.bootstrapped = true
	s.mu.Unlock()
	s.transition(ctx, rt, StatusNotMounted, nil, pass)
	return nil
}

// mount drives rt from not_mounted (or a retryable mount_error) to
// mounted.
func (s *Shell) mount(ctx context.Context, rt *appRuntime, props MountProps, pass string) error {
	s.mu.RLock()
	module := rt.module
	s.mu.RUnlock()
	s.transition(ctx, rt, StatusMounting, nil, pass)

	err := s.runStep(ctx, func(stepCtx context.Context) error {
		return module.Mount(stepCtx, props)
	})
	if err != nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationMount, err)
		s.transition(ctx, rt, StatusMountError, lerr, pass)
		return lerr
	}

	s.transition(ctx, rt, StatusMounted, nil, pass)
	return nil
}

// unmount drives rt from mounted to not_mounted. On failure the
// application lands in unmount_error and is excluded from activation; its
// mount point counts as still occupied until the application is reset.
func (s *Shell) unmount(ctx context.Context, rt *appRuntime, pass string) error {
	s.mu.RLock()
	module := rt.module
	s.mu.RUnlock()
	s.transition(ctx, rt, StatusUnmounting, nil, pass)

	err := s.runStep(ctx, module.Unmount)
	if err != nil {
		lerr := newLifecycleError(rt.descriptor.Name, OperationUnmount, err)
		s.transition(ctx, rt, StatusUnmountError, lerr, pass)
		return lerr
	}

	s.transition(ctx, rt, StatusNotMounted, nil, pass)
	return nil
}

// update delivers refreshed props to a mounted application whose module
// implements UpdatableModule. Update is not a status transition: failure
// is recorded and reported but the application stays mounted.
func (s *Shell) update(ctx context.Context, rt *appRuntime, props MountProps, pass string) error {
	s.mu.RLock()
	module := rt.module
	s.mu.RUnlock()
	updatable, ok := module.(UpdatableModule)
	if !ok {
		return nil
	}

	err := s.runStep(ctx, func(stepCtx context.Context) error {
		return updatable.Update(stepCtx, props)
	})
	name := rt.descriptor.Name
	if err != nil {
		lerr := newLifecycleError(name, OperationUpdate, err)
		s.mu.Lock()
		rt.lastErr = lerr
		s.mu.Unlock()
		s.logger.Error("Application update failed", "app", name, "pass", pass, "error", err)
		s.emitEvent(ctx, EventTypeAppUpdateFailed, TransitionEvent{
			App: name, From: StatusMounted, To: StatusMounted,
			Error: lerr.Error(), Pass: pass, At: time.Now(),
		}, nil)
		return lerr
	}

	s.logger.Debug("Application updated", "app", name, "pass", pass)
	s.emitEvent(ctx, EventTypeAppUpdated, TransitionEvent{
		App: name, From: StatusMounted, To: StatusMounted, Pass: pass, At: time.Now(),
	}, nil)
	return nil
}

// activate walks rt through whatever steps its current status still
// requires: load, bootstrap, then mount. It is called once per pass per
// application, from that application's own goroutine; statuses that
// cannot progress return immediately.
func (s *Shell) activate(ctx context.Context, rt *appRuntime, props MountProps, pass string) error {
	s.mu.RLock()
	status := rt.status
	s.mu.RUnlock()

	if status == StatusNotLoaded {
		if err := s.ensureLoaded(ctx, rt, pass); err != nil {
			return err
		}
		s.mu.RLock()
		status = rt.status
		s.mu.RUnlock()
	}

	if status == StatusNotBootstrapped {
		if err := s.ensureBootstrapped(ctx, rt, pass); err != nil {
			return err
		}
		s.mu.RLock()
		status = rt.status
		s.mu.RUnlock()
	}

	if status == StatusNotMounted || status == StatusMountError {
		return s.mount(ctx, rt, props, pass)
	}
	return nil
}
