// Package manifest provides declarative application manifests for the
// appshell orchestrator.
//
// A manifest lists applications with their activation paths, loader
// references, mount points and mount-time props in YAML, TOML or JSON.
// Manifests are loaded with Load or Parse, compared with Compare, and
// pushed onto a running Shell with an Applier. A Watcher can observe the
// manifest file and re-apply it whenever it changes, turning a config file
// edit into registrations, removals and a reconciliation pass.
//
// Example manifest (YAML):
//
//	apps:
//	  - name: navbar
//	    paths: ["/"]
//	    mountPoint: header
//	  - name: settings
//	    loader: settings-v2
//	    paths: ["/settings", "/admin/settings"]
//	    props:
//	      theme: dark
//
// Loaders are referenced by name only; binding names to ModuleLoader
// functions is the job of an appshell.LoaderRegistry configured on the
// Shell.
package manifest

import (
	"fmt"
	"strings"

	"github.com/GoCodeAlone/appshell"
)

// AppEntry is one application declaration in a manifest.
type AppEntry struct {
	// Name is the unique application name.
	Name string `yaml:"name" json:"name" toml:"name"`

	// Loader names the loader to resolve through the shell's
	// LoaderResolver. When empty the application name is used.
	Loader string `yaml:"loader,omitempty" json:"loader,omitempty" toml:"loader,omitempty"`

	// Paths lists the activation path patterns. A pattern matches its
	// literal path and any descendant path segment; "/" matches every
	// location. At least one pattern is required.
	Paths []string `yaml:"paths" json:"paths" toml:"paths"`

	// MountPoint optionally names the slot the application occupies.
	// Applications sharing a mount point hand it over in unmount-first
	// order during reconciliation.
	MountPoint string `yaml:"mountPoint,omitempty" json:"mountPoint,omitempty" toml:"mountPoint,omitempty"`

	// Props holds static mount-time values passed to the application.
	Props map[string]any `yaml:"props,omitempty" json:"props,omitempty" toml:"props,omitempty"`
}

// Manifest is a declarative set of application entries. The zero value is
// a valid, empty manifest.
type Manifest struct {
	// Apps lists the declared applications in priority order.
	Apps []AppEntry `yaml:"apps" json:"apps" toml:"apps"`
}

// Validate checks the manifest for structural problems: blank or
// duplicated names and entries without activation paths.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Apps))
	for i, entry := range m.Apps {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("%w: entry %d", ErrEntryNameEmpty, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrEntryDuplicated, name)
		}
		seen[name] = true
		if len(entry.Paths) == 0 {
			return fmt.Errorf("%w: %q", ErrEntryNoPaths, name)
		}
	}
	return nil
}

// Names returns the entry names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Apps))
	for _, entry := range m.Apps {
		names = append(names, entry.Name)
	}
	return names
}

// entry returns the named entry and whether it exists.
func (m *Manifest) entry(name string) (AppEntry, bool) {
	for _, e := range m.Apps {
		if e.Name == name {
			return e, true
		}
	}
	return AppEntry{}, false
}

// Descriptor converts the entry into a registrable application
// descriptor. The loader is left to the shell's LoaderResolver.
func (e AppEntry) Descriptor() appshell.AppDescriptor {
	return appshell.AppDescriptor{
		Name:       e.Name,
		LoaderRef:  e.Loader,
		Activation: appshell.Paths(e.Paths...),
		MountPoint: e.MountPoint,
		Props:      e.Props,
	}
}
