package appshell

import (
	"fmt"
	"strings"
)

// AppDescriptor declares an application to the shell. Registration copies
// the descriptor; later mutation by the caller has no effect on shell
// behavior.
type AppDescriptor struct {
	// Name uniquely identifies the application within the shell. It is
	// required, compared case-sensitively, and may not contain spaces.
	Name string `json:"name"`

	// Loader produces the application's module on first activation. When
	// nil the shell resolves a loader by name through its LoaderResolver
	// at load time; an application that resolves nothing lands in
	// load_error when first activated.
	Loader ModuleLoader `json:"-"`

	// LoaderRef overrides the name used for loader resolution, for
	// descriptors that arrive from configuration rather than code. It is
	// mutually exclusive with Loader; empty means resolve by Name.
	LoaderRef string `json:"loaderRef,omitempty"`

	// Activation decides whether the application is active for a given
	// location. Required.
	Activation ActivationRule `json:"-"`

	// Props are baseline values handed to the module on every mount.
	// Location-derived values override them key by key.
	Props map[string]any `json:"props,omitempty"`

	// MountPoint names the host slot the application renders into.
	// Applications sharing a mount point are handed off strictly: the
	// incumbent unmounts before the successor mounts. Empty means the
	// application does not contend for a slot.
	MountPoint string `json:"mountPoint,omitempty"`
}

// Validate reports the first static problem with the descriptor, wrapped
// in ErrInvalidDescriptor. A descriptor without a loader is legal here:
// resolution is deferred to the first load, so loaders may be registered
// with the shell's LoaderResolver after the descriptor that names them.
func (d AppDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if strings.ContainsAny(d.Name, " \t\n") {
		return fmt.Errorf("%w: name %q contains whitespace", ErrInvalidDescriptor, d.Name)
	}
	if d.Loader != nil && d.LoaderRef != "" {
		return fmt.Errorf("%w: application %q sets both Loader and LoaderRef", ErrInvalidDescriptor, d.Name)
	}
	if d.Activation == nil {
		return fmt.Errorf("%w: application %q has no activation rule", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// loaderKey is the name the shell resolves when the descriptor has no
// inline loader. LoaderRef wins; the application name is the fallback.
func (d AppDescriptor) loaderKey() string {
	if d.LoaderRef != "" {
		return d.LoaderRef
	}
	return d.Name
}

// clone returns a copy whose Props map is independent of the original.
func (d AppDescriptor) clone() AppDescriptor {
	out := d
	if d.Props != nil {
		out.Props = make(map[string]any, len(d.Props))
		for k, v := range d.Props {
			out.Props[k] = v
		}
	}
	return out
}
