package appshell

import (
	"fmt"
	"sync"
)

// LoaderResolver supplies module loaders for applications registered
// without an inline Loader. The shell consults it lazily, at first load,
// so loaders may be registered after descriptors that reference them.
type LoaderResolver interface {
	// ResolveLoader returns the loader registered under name, or an error
	// wrapping ErrLoaderUnresolved when none exists.
	ResolveLoader(name string) (ModuleLoader, error)
}

// LoaderRegistry is a named collection of module loaders and the standard
// LoaderResolver implementation. It lets configuration-driven descriptors
// reference loaders by name instead of carrying function values.
type LoaderRegistry struct {
	mu      sync.RWMutex
	loaders map[string]ModuleLoader
}

// NewLoaderRegistry creates an empty LoaderRegistry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{loaders: make(map[string]ModuleLoader)}
}

// RegisterLoader stores loader under name, replacing any previous
// registration. A nil loader is rejected.
func (r *LoaderRegistry) RegisterLoader(name string, loader ModuleLoader) error {
	if name == "" {
		return fmt.Errorf("%w: loader name is required", ErrLoaderNil)
	}
	if loader == nil {
		return fmt.Errorf("%w: loader %q is nil", ErrLoaderNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = loader
	return nil
}

// ResolveLoader implements LoaderResolver.
func (r *LoaderRegistry) ResolveLoader(name string) (ModuleLoader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loader, exists := r.loaders[name]
	if !exists {
		return nil, fmt.Errorf("%w: no loader registered for %q", ErrLoaderUnresolved, name)
	}
	return loader, nil
}

// Names returns the registered loader names, unordered.
func (r *LoaderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	return names
}
