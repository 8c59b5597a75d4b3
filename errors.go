package appshell

import (
	"errors"
	"fmt"
)

// Orchestrator errors
var (
	// Registration errors, surfaced synchronously to the caller
	ErrDuplicateAppName  = errors.New("application name already registered")
	ErrInvalidDescriptor = errors.New("invalid application descriptor")
	ErrInvalidAppState   = errors.New("operation not permitted in current application state")
	ErrAppNotFound       = errors.New("application not found")

	// Orchestrator lifecycle errors
	ErrShellStarted    = errors.New("orchestrator already started")
	ErrShellNotStarted = errors.New("orchestrator not started")
	ErrLoggerNotSet    = errors.New("logger not set")
	ErrNavigatorNotSet = errors.New("navigator not set")

	// Loader capability errors
	ErrLoaderUnresolved = errors.New("no loader available for application")
	ErrLoaderNil        = errors.New("loader cannot be nil")

	// Lifecycle failure classes. These never escape a reconciliation pass;
	// they are recorded on the application's runtime state and reported
	// through the observability sink.
	ErrLoadFailed      = errors.New("application load failed")
	ErrBootstrapFailed = errors.New("application bootstrap failed")
	ErrMountFailed     = errors.New("application mount failed")
	ErrUnmountFailed   = errors.New("application unmount failed")
	ErrUpdateFailed    = errors.New("application update failed")
	ErrActivationRule  = errors.New("activation rule failed")
	ErrInvalidModule   = errors.New("loader returned an invalid module")
	ErrModulePanic     = errors.New("module step panicked")

	// Config validation errors
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrUnsupportedFormatType      = errors.New("unsupported format type")
	ErrDefaultValueParseError     = errors.New("failed to parse default value")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported field type for default value")
)

// LifecycleOperation identifies which lifecycle step an error belongs to.
type LifecycleOperation string

const (
	OperationLoad       LifecycleOperation = "load"
	OperationBootstrap  LifecycleOperation = "bootstrap"
	OperationMount      LifecycleOperation = "mount"
	OperationUnmount    LifecycleOperation = "unmount"
	OperationUpdate     LifecycleOperation = "update"
	OperationActivation LifecycleOperation = "activation"
)

// classErr returns the failure-class sentinel for an operation.
func (op LifecycleOperation) classErr() error {
	switch op {
	case OperationLoad:
		return ErrLoadFailed
	case OperationBootstrap:
		return ErrBootstrapFailed
	case OperationMount:
		return ErrMountFailed
	case OperationUnmount:
		return ErrUnmountFailed
	case OperationUpdate:
		return ErrUpdateFailed
	case OperationActivation:
		return ErrActivationRule
	default:
		return nil
	}
}

// LifecycleError records the failure of a single lifecycle operation for a
// single application. It wraps the underlying cause and matches the
// operation's failure-class sentinel via errors.Is:
//
//	if errors.Is(err, appshell.ErrMountFailed) { ... }
//
// Lifecycle errors are contained: they are reported through the sink and
// recorded on the application's runtime state, never returned from a
// reconciliation pass.
type LifecycleError struct {
	// App is the name of the application whose operation failed.
	App string

	// Op is the lifecycle operation that failed.
	Op LifecycleOperation

	// Err is the underlying cause returned by the module (or recovered
	// from an activation rule panic).
	Err error
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("application %q: %s failed: %v", e.App, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// Is matches the failure-class sentinel for the error's operation, so
// errors.Is(err, ErrMountFailed) holds for any mount LifecycleError.
func (e *LifecycleError) Is(target error) bool {
	return target == e.Op.classErr()
}

// newLifecycleError wraps cause as a LifecycleError for app and op.
func newLifecycleError(app string, op LifecycleOperation, cause error) *LifecycleError {
	return &LifecycleError{App: app, Op: op, Err: cause}
}
