package manifest

import "reflect"

// Diff describes how one manifest differs from another, by entry name.
type Diff struct {
	// Added lists entries present only in the new manifest, in manifest
	// order.
	Added []string

	// Removed lists entries present only in the old manifest, in old
	// manifest order.
	Removed []string

	// Changed lists entries present in both whose declaration differs,
	// in new manifest order.
	Changed []string
}

// HasChanges reports whether the diff contains any changes.
func (d Diff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// IsEmpty reports whether the diff contains no changes.
func (d Diff) IsEmpty() bool {
	return !d.HasChanges()
}

// Compare computes the entry-level diff between two manifests. A nil
// manifest is treated as empty, so Compare(nil, m) marks every entry of m
// as added.
func Compare(oldM, newM *Manifest) Diff {
	if oldM == nil {
		oldM = &Manifest{}
	}
	if newM == nil {
		newM = &Manifest{}
	}

	var diff Diff
	for _, entry := range newM.Apps {
		prev, ok := oldM.entry(entry.Name)
		switch {
		case !ok:
			diff.Added = append(diff.Added, entry.Name)
		case !reflect.DeepEqual(prev, entry):
			diff.Changed = append(diff.Changed, entry.Name)
		}
	}
	for _, entry := range oldM.Apps {
		if _, ok := newM.entry(entry.Name); !ok {
			diff.Removed = append(diff.Removed, entry.Name)
		}
	}
	return diff
}
