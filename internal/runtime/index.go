package runtime

import (
	"sort"

	"github.com/aretw0/wizvis/pkg/domain"
)

// StateIndex exclusively owns the indexed states of one loaded definition.
// The first occurrence of an id (breadth-first, document order within a level) wins;
// a later duplicate and its whole subtree are ignored.
type StateIndex struct {
	states map[string]*domain.State
	tree   []domain.TreeNode
}

type indexItem struct {
	node     *domain.StateNode
	parentID string
}

// BuildIndex flattens the top-level states into an id index and a display tree.
func BuildIndex(roots []*domain.StateNode) (*StateIndex, error) {
	idx := &StateIndex{states: make(map[string]*domain.State)}

	// owner records which declared element each id resolved to, so the
	// recursive tree walk agrees with the breadth-first index.
	owner := make(map[string]*domain.StateNode)

	queue := make([]indexItem, 0, len(roots))
	for _, n := range roots {
		if n != nil {
			queue = append(queue, indexItem{node: n})
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		n := item.node
		if n.ID == "" {
			return nil, &domain.DefinitionError{StateID: item.parentID, Reason: "state without id"}
		}
		if _, seen := owner[n.ID]; seen {
			continue
		}
		owner[n.ID] = n

		kind := n.Kind
		if kind == "" {
			kind = domain.KindState
		}
		idx.states[n.ID] = &domain.State{
			ID:          n.ID,
			ParentID:    item.parentID,
			Kind:        kind,
			Transitions: append([]domain.Transition(nil), n.Transitions...),
		}

		if n.Composite() {
			for _, c := range n.Children {
				if c != nil {
					queue = append(queue, indexItem{node: c, parentID: n.ID})
				}
			}
		}
	}

	// Children lists only the elements that own their id.
	for id, n := range owner {
		st := idx.states[id]
		for _, c := range n.Children {
			if c != nil && owner[c.ID] == c {
				st.Children = append(st.Children, c.ID)
			}
		}
	}

	idx.tree = buildTree(roots, owner)
	return idx, nil
}

func buildTree(nodes []*domain.StateNode, owner map[string]*domain.StateNode) []domain.TreeNode {
	out := make([]domain.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || owner[n.ID] != n {
			continue
		}
		out = append(out, domain.TreeNode{
			ID:       n.ID,
			Children: buildTree(n.Children, owner),
		})
	}
	return out
}

// Get returns the indexed state for id.
func (x *StateIndex) Get(id string) (*domain.State, bool) {
	s, ok := x.states[id]
	return s, ok
}

// Len returns the number of indexed states.
func (x *StateIndex) Len() int {
	return len(x.states)
}

// IDs returns every indexed id, sorted.
func (x *StateIndex) IDs() []string {
	ids := make([]string, 0, len(x.states))
	for id := range x.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tree returns the display tree in declaration order.
func (x *StateIndex) Tree() []domain.TreeNode {
	return x.tree
}

// IsAncestor reports whether ancestor is a proper ancestor of id.
func (x *StateIndex) IsAncestor(ancestor, id string) bool {
	s, ok := x.states[id]
	// The walk is bounded by the number of states; parents are assigned once.
	for steps := 0; ok && s.ParentID != "" && steps < len(x.states); steps++ {
		if s.ParentID == ancestor {
			return true
		}
		s, ok = x.states[s.ParentID]
	}
	return false
}

// Ancestors returns the proper ancestors of id, nearest first.
func (x *StateIndex) Ancestors(id string) []string {
	var out []string
	s, ok := x.states[id]
	for steps := 0; ok && s.ParentID != "" && steps < len(x.states); steps++ {
		out = append(out, s.ParentID)
		s, ok = x.states[s.ParentID]
	}
	return out
}
