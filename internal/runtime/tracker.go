package runtime

import "github.com/aretw0/wizvis/pkg/domain"

// ActiveStateTracker turns an engine configuration into ordered view records.
type ActiveStateTracker struct {
	index *StateIndex
}

// NewActiveStateTracker creates a tracker that resolves ids through index.
func NewActiveStateTracker(index *StateIndex) *ActiveStateTracker {
	return &ActiveStateTracker{index: index}
}

// Recompute builds the active states for config.
//
// Unknown ids and final states are dropped and duplicates collapse to their first
// occurrence. The result lists every ancestor before its descendants; unrelated
// states keep the order the engine reported them in.
func (t *ActiveStateTracker) Recompute(config []string) []domain.ActiveState {
	seen := make(map[string]bool, len(config))
	pending := make([]*domain.State, 0, len(config))
	for _, id := range config {
		if seen[id] {
			continue
		}
		seen[id] = true
		st, ok := t.index.Get(id)
		if !ok || !st.Transitional() {
			continue
		}
		pending = append(pending, st)
	}

	out := make([]domain.ActiveState, 0, len(pending))
	for len(pending) > 0 {
		next := t.firstRoot(pending)
		st := pending[next]
		pending = append(pending[:next], pending[next+1:]...)
		out = append(out, domain.ActiveState{
			ID:          st.ID,
			Transitions: append([]domain.Transition(nil), st.Transitions...),
		})
	}
	return out
}

// firstRoot returns the earliest pending state with no pending ancestor.
func (t *ActiveStateTracker) firstRoot(pending []*domain.State) int {
	for i, cand := range pending {
		root := true
		for j, other := range pending {
			if i != j && t.index.IsAncestor(other.ID, cand.ID) {
				root = false
				break
			}
		}
		if root {
			return i
		}
	}
	return 0
}
