package domain

// ActiveDiff represents the membership change between two active-state snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type ActiveDiff struct {
	Entered []string `json:"entered,omitempty"`
	Exited  []string `json:"exited,omitempty"`
}

// IsEmpty checks if the diff contains any membership change.
func (d ActiveDiff) IsEmpty() bool {
	return len(d.Entered) == 0 && len(d.Exited) == 0
}

// Diff calculates the ids that entered and exited between two snapshots.
// Entered keeps the order of after, Exited keeps the order of before.
func Diff(before, after []string) ActiveDiff {
	old := make(map[string]bool, len(before))
	for _, id := range before {
		old[id] = true
	}
	cur := make(map[string]bool, len(after))
	for _, id := range after {
		cur[id] = true
	}

	var diff ActiveDiff
	for _, id := range after {
		if !old[id] {
			diff.Entered = append(diff.Entered, id)
		}
	}
	for _, id := range before {
		if !cur[id] {
			diff.Exited = append(diff.Exited, id)
		}
	}
	return diff
}

// IDs returns the ids of the given active states, preserving order.
func IDs(states []ActiveState) []string {
	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.ID
	}
	return ids
}
