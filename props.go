package appshell

// MountProps is the data a module receives on Mount and Update. The shell
// assembles it fresh for every call, so modules may retain it without
// aliasing shell state.
type MountProps struct {
	// Name is the application's registered name.
	Name string `json:"name"`

	// Location is the navigation location that triggered the mount or
	// update.
	Location Location `json:"location"`

	// MountPoint is the descriptor's mount point, empty when the
	// application does not contend for a slot.
	MountPoint string `json:"mountPoint,omitempty"`

	// Values merges the descriptor's baseline props with any values the
	// matching activation rule contributed. Rule values win key by key.
	Values map[string]any `json:"values,omitempty"`
}

// buildMountProps assembles the props for one mount or update. Descriptor
// props form the base; ruleValues from the activation match override them.
func buildMountProps(d AppDescriptor, loc Location, ruleValues map[string]any) MountProps {
	values := make(map[string]any, len(d.Props)+len(ruleValues))
	for k, v := range d.Props {
		values[k] = v
	}
	for k, v := range ruleValues {
		values[k] = v
	}
	return MountProps{
		Name:       d.Name,
		Location:   loc,
		MountPoint: d.MountPoint,
		Values:     values,
	}
}
