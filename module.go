// Package appshell orchestrates the lifecycle of independently delivered
// application modules inside a single host process. It keeps a registry of
// application descriptors, decides which applications should be active for
// the current navigation location, and drives each application through its
// load, bootstrap, mount and unmount steps so that the mounted set always
// converges on the active set.
//
// The shell owns sequencing and policy only. Applications own their
// behavior: each one supplies a loader that produces a LifecycleModule,
// and the shell calls the module's steps at the right times, never
// reordering or interleaving steps for a single application.
//
// Basic usage:
//
//	shell, err := appshell.NewShell(
//		appshell.WithLogger(logger),
//		appshell.WithNavigator(nav),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = shell.Register(appshell.AppDescriptor{
//		Name:       "inbox",
//		Loader:     loadInbox,
//		Activation: appshell.Path("/inbox"),
//	})
//	if err := shell.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package appshell

import "context"

// LifecycleModule is the contract every application module fulfills. The
// shell obtains an instance from the application's loader and then calls
// these steps in order; a module never sees Mount before Bootstrap has
// returned nil, and never sees two steps running concurrently.
//
// Each step receives a context carrying the shell's operation deadline.
// Steps should honor cancellation, but the shell never abandons a step
// midway; a timeout surfaces as a step error after the call returns.
type LifecycleModule interface {
	// Bootstrap performs the module's one-time initialization. It is
	// called at most once per loaded instance; a nil return is memoized
	// and the step is never repeated, while an error leaves the
	// application in a bootstrap failure state.
	Bootstrap(ctx context.Context) error

	// Mount makes the module live. The shell calls it each time the
	// application becomes active, passing the mount props assembled from
	// the descriptor and the current location. Mount and Unmount may be
	// called many times over the life of a loaded instance.
	Mount(ctx context.Context, props MountProps) error

	// Unmount tears down whatever Mount set up. After a nil return the
	// module must be re-mountable; bootstrap state is retained.
	Unmount(ctx context.Context) error
}

// UpdatableModule is an optional interface for modules that can absorb a
// location change without a remount. When an active application stays
// active across a navigation and its module implements UpdatableModule,
// the shell calls Update with refreshed props instead of cycling
// Unmount/Mount. Modules that do not implement it are simply left mounted.
type UpdatableModule interface {
	LifecycleModule

	// Update delivers refreshed mount props to an already mounted module.
	// An error is reported through the shell's error sink but does not
	// change the application's mounted state.
	Update(ctx context.Context, props MountProps) error
}

// ModuleLoader produces the module instance for an application. The shell
// invokes it at most once per loaded generation, memoizes the result, and
// shares a single in-flight call among concurrent passes that need the
// same application.
//
// Returning (nil, nil) marks the application permanently skipped: the
// shell records it as intentionally absent and never activates it again
// until it is reset.
type ModuleLoader func(ctx context.Context) (LifecycleModule, error)

// ModuleFuncs adapts three plain functions into a LifecycleModule. Nil
// fields are treated as immediate success, which keeps test and glue
// modules terse.
type ModuleFuncs struct {
	BootstrapFunc func(ctx context.Context) error
	MountFunc     func(ctx context.Context, props MountProps) error
	UnmountFunc   func(ctx context.Context) error
}

// Bootstrap implements LifecycleModule.
func (m ModuleFuncs) Bootstrap(ctx context.Context) error {
	if m.BootstrapFunc == nil {
		return nil
	}
	return m.BootstrapFunc(ctx)
}

// Mount implements LifecycleModule.
func (m ModuleFuncs) Mount(ctx context.Context, props MountProps) error {
	if m.MountFunc == nil {
		return nil
	}
	return m.MountFunc(ctx, props)
}

// Unmount implements LifecycleModule.
func (m ModuleFuncs) Unmount(ctx context.Context) error {
	if m.UnmountFunc == nil {
		return nil
	}
	return m.UnmountFunc(ctx)
}
