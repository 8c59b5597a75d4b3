package manifest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GoCodeAlone/appshell"
)

// Applier pushes manifests onto a Shell. It remembers the last applied
// manifest so repeated Apply calls only touch entries that changed,
// making it safe to drive from a file watcher.
//
// Applier is safe for concurrent use; applies are serialized.
type Applier struct {
	shell  *appshell.Shell
	logger appshell.Logger

	mu      sync.Mutex
	current *Manifest
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithLogger sets the logger used for apply reporting.
func WithLogger(logger appshell.Logger) ApplierOption {
	return func(a *Applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewApplier creates an applier bound to the given shell.
func NewApplier(shell *appshell.Shell, opts ...ApplierOption) (*Applier, error) {
	if shell == nil {
		return nil, ErrShellNil
	}
	a := &Applier{shell: shell}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Result reports what one Apply call did, entry by entry.
type Result struct {
	// Registered lists entries registered for the first time.
	Registered []string

	// Unregistered lists entries removed from the shell.
	Unregistered []string

	// Replaced lists entries unregistered and re-registered because
	// their declaration changed.
	Replaced []string

	// Deferred lists entries whose removal or replacement was postponed
	// because the application is currently active. They are retried on
	// the next Apply.
	Deferred []string

	// Errors collects per-entry failures. Entries that failed are not
	// considered applied and are retried on the next Apply.
	Errors []error
}

// Err returns the per-entry failures joined into one error, or nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}

// Current returns a copy of the last applied manifest, or nil before the
// first Apply.
func (a *Applier) Current() *Manifest {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	snapshot := &Manifest{Apps: make([]AppEntry, len(a.current.Apps))}
	copy(snapshot.Apps, a.current.Apps)
	return snapshot
}

// Apply reconciles the shell's registrations with the manifest. New
// entries are registered, vanished entries unregistered, and changed
// entries replaced. Entries that cannot be removed because the
// application is active are deferred rather than failed; everything else
// proceeds independently, so one bad entry does not block the rest.
func (a *Applier) Apply(m *Manifest) (Result, error) {
	if m == nil {
		return Result{}, ErrManifestNil
	}
	if err := m.Validate(); err != nil {
		return Result{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	diff := Compare(a.current, m)
	changed := make(map[string]bool, len(diff.Changed))
	for _, name := range diff.Changed {
		changed[name] = true
	}
	added := make(map[string]bool, len(diff.Added))
	for _, name := range diff.Added {
		added[name] = true
	}

	var result Result
	applied := make([]AppEntry, 0, len(m.Apps))

	for _, entry := range m.Apps {
		switch {
		case added[entry.Name]:
			if err := a.shell.Register(entry.Descriptor()); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("register %s: %w", entry.Name, err))
				continue
			}
			result.Registered = append(result.Registered, entry.Name)
			applied = append(applied, entry)

		case changed[entry.Name]:
			prev, _ := a.current.entry(entry.Name)
			switch err := a.shell.Unregister(entry.Name); {
			case err == nil:
				if err := a.shell.Register(entry.Descriptor()); err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("replace %s: %w", entry.Name, err))
					continue
				}
				result.Replaced = append(result.Replaced, entry.Name)
				applied = append(applied, entry)
			case errors.Is(err, appshell.ErrInvalidAppState):
				// Active right now; keep the old declaration and retry
				// once the application has been deactivated.
				result.Deferred = append(result.Deferred, entry.Name)
				applied = append(applied, prev)
			case errors.Is(err, appshell.ErrAppNotFound):
				if err := a.shell.Register(entry.Descriptor()); err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("replace %s: %w", entry.Name, err))
					continue
				}
				result.Registered = append(result.Registered, entry.Name)
				applied = append(applied, entry)
			default:
				result.Errors = append(result.Errors, fmt.Errorf("replace %s: %w", entry.Name, err))
			}

		default:
			applied = append(applied, entry)
		}
	}

	for _, name := range diff.Removed {
		prev, _ := a.current.entry(name)
		switch err := a.shell.Unregister(name); {
		case err == nil:
			result.Unregistered = append(result.Unregistered, name)
		case errors.Is(err, appshell.ErrInvalidAppState):
			result.Deferred = append(result.Deferred, name)
			applied = append(applied, prev)
		case errors.Is(err, appshell.ErrAppNotFound):
			// Already gone, nothing to do.
		default:
			result.Errors = append(result.Errors, fmt.Errorf("unregister %s: %w", name, err))
			applied = append(applied, prev)
		}
	}

	a.current = &Manifest{Apps: applied}
	a.logResult(result)
	return result, nil
}

func (a *Applier) logResult(result Result) {
	if a.logger == nil {
		return
	}
	a.logger.Info("Manifest applied",
		"registered", len(result.Registered),
		"unregistered", len(result.Unregistered),
		"replaced", len(result.Replaced),
		"deferred", len(result.Deferred),
		"errors", len(result.Errors))
	if len(result.Deferred) > 0 {
		a.logger.Warn("Manifest entries deferred while applications are active", "apps", result.Deferred)
	}
	for _, err := range result.Errors {
		a.logger.Error("Manifest entry failed", "error", err)
	}
}
