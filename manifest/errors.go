package manifest

import "errors"

// Static error definitions for the manifest package.
var (
	// ErrManifestNil is returned when a nil manifest is applied.
	ErrManifestNil = errors.New("manifest cannot be nil")

	// ErrEntryNameEmpty is returned when a manifest entry has no name.
	ErrEntryNameEmpty = errors.New("manifest entry name cannot be empty")

	// ErrEntryDuplicated is returned when two entries share a name.
	ErrEntryDuplicated = errors.New("manifest entry name duplicated")

	// ErrEntryNoPaths is returned when an entry declares no activation
	// paths. Always-on applications declare "/".
	ErrEntryNoPaths = errors.New("manifest entry declares no activation paths")

	// ErrUnsupportedFormat is returned when a manifest file extension or
	// format name is not yaml, toml or json.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrShellNil is returned when an applier is created without a shell.
	ErrShellNil = errors.New("shell cannot be nil")

	// ErrApplierNil is returned when a watcher is created without an applier.
	ErrApplierNil = errors.New("applier cannot be nil")

	// ErrWatcherStarted is returned when starting an already-started watcher.
	ErrWatcherStarted = errors.New("manifest watcher already started")

	// ErrWatcherNotStarted is returned when stopping a watcher that is not
	// running.
	ErrWatcherNotStarted = errors.New("manifest watcher not started")
)
