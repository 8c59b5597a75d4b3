package appshell

import "time"

// Event type constants for shell lifecycle events.
// Following CloudEvents specification reverse domain notation.
const (
	// Registry events
	EventTypeAppRegistered   = "com.appshell.application.registered"
	EventTypeAppUnregistered = "com.appshell.application.unregistered"

	// Load step events
	EventTypeAppLoading    = "com.appshell.application.loading"
	EventTypeAppLoaded     = "com.appshell.application.loaded"
	EventTypeAppLoadFailed = "com.appshell.application.load.failed"

	// Bootstrap step events
	EventTypeAppBootstrapping   = "com.appshell.application.bootstrapping"
	EventTypeAppBootstrapped    = "com.appshell.application.bootstrapped"
	EventTypeAppBootstrapFailed = "com.appshell.application.bootstrap.failed"

	// Mount step events
	EventTypeAppMounting    = "com.appshell.application.mounting"
	EventTypeAppMounted     = "com.appshell.application.mounted"
	EventTypeAppMountFailed = "com.appshell.application.mount.failed"

	// Unmount step events
	EventTypeAppUnmounting    = "com.appshell.application.unmounting"
	EventTypeAppUnmounted     = "com.appshell.application.unmounted"
	EventTypeAppUnmountFailed = "com.appshell.application.unmount.failed"

	// Update step events
	EventTypeAppUpdated      = "com.appshell.application.updated"
	EventTypeAppUpdateFailed = "com.appshell.application.update.failed"

	// Administrative events
	EventTypeAppSkipped = "com.appshell.application.skipped"
	EventTypeAppReset   = "com.appshell.application.reset"

	// Activation events
	EventTypeActivationError = "com.appshell.activation.error"

	// Reconciliation events
	EventTypeReconcileStarted   = "com.appshell.reconciliation.started"
	EventTypeReconcileCompleted = "com.appshell.reconciliation.completed"
	EventTypeReconcileCoalesced = "com.appshell.reconciliation.coalesced"

	// Shell lifecycle events
	EventTypeShellStarted = "com.appshell.shell.started"
	EventTypeShellStopped = "com.appshell.shell.stopped"
)

// TransitionEvent is the payload of every application status change event.
type TransitionEvent struct {
	// App is the application name.
	App string `json:"app"`

	// From and To are the statuses on either side of the transition.
	From AppStatus `json:"from"`
	To   AppStatus `json:"to"`

	// Error carries the failure message for *_error transitions.
	Error string `json:"error,omitempty"`

	// Pass identifies the reconciliation pass that drove the transition,
	// empty for administrative transitions (reset, skip).
	Pass string `json:"pass,omitempty"`

	// At is the transition time.
	At time.Time `json:"at"`
}

// ReconcileEvent is the payload of reconciliation start and completion
// events.
type ReconcileEvent struct {
	// Pass is the unique id of this reconciliation pass.
	Pass string `json:"pass"`

	// Location is the navigation location the pass targeted.
	Location string `json:"location"`

	// Activated, Deactivated and Updated list the applications the pass
	// acted on, in registration order. Only set on completion.
	Activated   []string `json:"activated,omitempty"`
	Deactivated []string `json:"deactivated,omitempty"`
	Updated     []string `json:"updated,omitempty"`

	// Failures counts applications whose step failed during the pass.
	Failures int `json:"failures,omitempty"`

	// Duration is the wall time of the pass. Only set on completion.
	Duration time.Duration `json:"duration,omitempty"`
}

// CoalesceEvent is the payload emitted when a queued location is superseded
// by a newer one before any pass ran for it.
type CoalesceEvent struct {
	// Dropped is the location that will never be reconciled.
	Dropped string `json:"dropped"`

	// ReplacedBy is the location that superseded it.
	ReplacedBy string `json:"replacedBy"`
}

// ActivationFaultEvent is the payload of activation rule fault events. A
// fault never changes the application's status; it only costs the match.
type ActivationFaultEvent struct {
	App   string `json:"app"`
	Error string `json:"error"`
	Pass  string `json:"pass"`
}

// transitionEventType maps a status transition to the event type emitted
// for it. not_mounted is reached from both bootstrapping and unmounting,
// so the source decides between loaded-side and unmounted-side events.
// Transitions without a dedicated event return the empty string.
func transitionEventType(from, to AppStatus) string {
	switch to {
	case StatusLoading:
		return EventTypeAppLoading
	case StatusNotBootstrapped:
		return EventTypeAppLoaded
	case StatusLoadError:
		return EventTypeAppLoadFailed
	case StatusBootstrapping:
		return EventTypeAppBootstrapping
	case StatusNotMounted:
		switch from {
		case StatusBootstrapping:
			return EventTypeAppBootstrapped
		case StatusUnmounting:
			return EventTypeAppUnmounted
		default:
			return ""
		}
	case StatusBootstrapError:
		return EventTypeAppBootstrapFailed
	case StatusMounting:
		return EventTypeAppMounting
	case StatusMounted:
		return EventTypeAppMounted
	case StatusMountError:
		return EventTypeAppMountFailed
	case StatusUnmounting:
		return EventTypeAppUnmounting
	case StatusUnmountError:
		return EventTypeAppUnmountFailed
	case StatusSkipped:
		return EventTypeAppSkipped
	case StatusNotLoaded:
		return EventTypeAppReset
	default:
		return ""
	}
}
