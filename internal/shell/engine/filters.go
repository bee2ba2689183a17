package engine

import "strings"

// =============================================================================
// Record Filters
// =============================================================================
//
// Pure filters over an already-listed snapshot. None of these touch the
// socket; callers list once and narrow the result.

// FilterByLabel returns the records whose label map contains key=value.
// Records without labels never match.
func FilterByLabel(records []ContainerRecord, key, value string) []ContainerRecord {
	var out []ContainerRecord
	for _, r := range records {
		if r.Labels == nil {
			continue
		}
		if v, ok := r.Labels[key]; ok && v == value {
			out = append(out, r)
		}
	}
	return out
}

// FilterByStateAndImage returns the records in the given state whose image
// reference contains substr.
func FilterByStateAndImage(records []ContainerRecord, state ContainerState, substr string) []ContainerRecord {
	var out []ContainerRecord
	for _, r := range records {
		if r.State == state && strings.Contains(r.Image, substr) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByStateAndName returns the records in the given state with any name
// containing substr.
func FilterByStateAndName(records []ContainerRecord, state ContainerState, substr string) []ContainerRecord {
	var out []ContainerRecord
	for _, r := range records {
		if r.State != state {
			continue
		}
		for _, name := range r.Names {
			if strings.Contains(name, substr) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
