package appshell

// appRegistry holds the registered applications in registration order. It
// is a plain data structure; the shell's mutex guards all access.
type appRegistry struct {
	order   []string
	entries map[string]*appRuntime
}

func newAppRegistry() *appRegistry {
	return &appRegistry{entries: make(map[string]*appRuntime)}
}

// add inserts a runtime entry at the end of the registration order. The
// caller has already checked for duplicates.
func (r *appRegistry) add(rt *appRuntime) {
	r.order = append(r.order, rt.descriptor.Name)
	r.entries[rt.descriptor.Name] = rt
}

// remove deletes the named entry, preserving the order of the rest.
func (r *appRegistry) remove(name string) {
	if _, exists := r.entries[name]; !exists {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// get returns the named entry, or nil when unknown.
func (r *appRegistry) get(name string) *appRuntime {
	return r.entries[name]
}

// ordered returns the runtime entries in registration order. The slice is
// fresh; the pointed-to entries are shared.
func (r *appRegistry) ordered() []*appRuntime {
	out := make([]*appRuntime, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// descriptors returns the registered descriptors in registration order,
// for the activation resolver.
func (r *appRegistry) descriptors() []AppDescriptor {
	out := make([]AppDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

func (r *appRegistry) len() int {
	return len(r.order)
}
