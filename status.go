package appshell

// AppStatus is the single source of truth for where an application sits in
// its lifecycle. Transitions are driven exclusively by the lifecycle engine:
//
//	not_loaded → loading → {load_error | not_bootstrapped}
//	not_bootstrapped → bootstrapping → {bootstrap_error | not_mounted}
//	not_mounted → mounting → {mount_error | mounted}
//	mounted → unmounting → {unmount_error | not_mounted}
//
// skipped is an absorbing state for applications marked permanently broken;
// they are excluded from every reconciliation until explicitly reset.
type AppStatus string

const (
	// StatusNotLoaded indicates the application's loader has not run yet.
	StatusNotLoaded AppStatus = "not_loaded"
	// StatusLoading indicates the loader is currently running.
	StatusLoading AppStatus = "loading"
	// StatusLoadError indicates the loader failed. The application is
	// excluded from activation until reset.
	StatusLoadError AppStatus = "load_error"
	// StatusNotBootstrapped indicates a successful load awaiting bootstrap.
	StatusNotBootstrapped AppStatus = "not_bootstrapped"
	// StatusBootstrapping indicates the one-time bootstrap is running.
	StatusBootstrapping AppStatus = "bootstrapping"
	// StatusBootstrapError indicates bootstrap failed. Terminal until reset.
	StatusBootstrapError AppStatus = "bootstrap_error"
	// StatusNotMounted indicates a bootstrapped application that is not
	// currently occupying its mount point.
	StatusNotMounted AppStatus = "not_mounted"
	// StatusMounting indicates a mount operation is running.
	StatusMounting AppStatus = "mounting"
	// StatusMountError indicates the last mount failed. The application is
	// treated as inactive; a later pass that still targets it retries.
	StatusMountError AppStatus = "mount_error"
	// StatusMounted indicates the application is active in its mount point.
	StatusMounted AppStatus = "mounted"
	// StatusUnmounting indicates an unmount operation is running.
	StatusUnmounting AppStatus = "unmounting"
	// StatusUnmountError indicates unmount failed. The application is
	// considered to still occupy its mount point and is excluded from
	// future mounts until reset.
	StatusUnmountError AppStatus = "unmount_error"
	// StatusSkipped marks a permanently broken application, excluded from
	// all reconciliation until reset.
	StatusSkipped AppStatus = "skipped"
)

// String returns the status string.
func (s AppStatus) String() string {
	return string(s)
}

// Active reports whether the status counts toward the currently-active set
// used by reconciliation diffs.
func (s AppStatus) Active() bool {
	return s == StatusMounted || s == StatusMounting
}

// Failed reports whether the status records a lifecycle failure.
func (s AppStatus) Failed() bool {
	switch s {
	case StatusLoadError, StatusBootstrapError, StatusMountError, StatusUnmountError:
		return true
	default:
		return false
	}
}

// transient reports whether a lifecycle step is currently running. An
// application never rests in a transient status between passes.
func (s AppStatus) transient() bool {
	switch s {
	case StatusLoading, StatusBootstrapping, StatusMounting, StatusUnmounting:
		return true
	default:
		return false
	}
}

// Activatable reports whether a reconciliation pass may start an activation
// sequence from this status. Load and bootstrap failures, unmount failures
// (the mount point was never cleared) and skipped applications are excluded.
func (s AppStatus) Activatable() bool {
	switch s {
	case StatusNotLoaded, StatusNotBootstrapped, StatusNotMounted, StatusMountError:
		return true
	default:
		return false
	}
}

// unregisterable reports whether the registry may remove an application in
// this status without orphaning an in-flight operation or an occupied
// mount point.
func (s AppStatus) unregisterable() bool {
	switch s {
	case StatusNotMounted, StatusNotLoaded, StatusLoadError, StatusBootstrapError, StatusSkipped:
		return true
	default:
		return false
	}
}

// resettable reports whether ResetApplication may clear this status back to
// not_loaded. Reset is meant for recovering failed or skipped applications,
// plus idle ones that should reload fresh source on next activation.
func (s AppStatus) resettable() bool {
	return s.Failed() || s == StatusSkipped || s == StatusNotLoaded ||
		s == StatusNotBootstrapped || s == StatusNotMounted
}
