package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasIssue(r *Report, sev Severity, stateID, fragment string) bool {
	for _, i := range r.Issues {
		if i.Severity == sev && i.StateID == stateID && strings.Contains(i.Message, fragment) {
			return true
		}
	}
	return false
}

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "door.json")
	require.NoError(t, os.WriteFile(data, []byte("{}"), 0644))

	r := Validate(&domain.Definition{
		Data: []domain.DataDecl{{ID: "dm", Src: data}},
		States: []*domain.StateNode{
			{ID: "closed", Transitions: []domain.Transition{{Event: "open", Target: "opened"}}},
			{ID: "opened", Initial: "ajar", Children: []*domain.StateNode{{ID: "wide"}, {ID: "ajar"}}},
		},
	})
	assert.NoError(t, r.Err())
	assert.True(t, hasIssue(r, SeverityWarning, "wide", "unreachable"))
	assert.Len(t, r.Issues, 1)
}

func TestValidate_Errors(t *testing.T) {
	r := Validate(&domain.Definition{
		Initial:   "ghost",
		Datamodel: "xpath",
		Data:      []domain.DataDecl{{ID: "dm", Src: filepath.Join(t.TempDir(), "missing.json")}, {}},
		States: []*domain.StateNode{
			{ID: "a", Transitions: []domain.Transition{{Event: "go", Target: "nowhere"}}},
			{ID: "b", Initial: "a", Children: []*domain.StateNode{{ID: "b1"}, {}}},
		},
	})

	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found")

	assert.True(t, hasIssue(r, SeverityError, "ghost", "initial state does not exist"))
	assert.True(t, hasIssue(r, SeverityError, "a", "unknown state 'nowhere'"))
	assert.True(t, hasIssue(r, SeverityError, "b", "not one of its descendants"))
	assert.True(t, hasIssue(r, SeverityError, "b", "child state without id"))
	assert.True(t, hasIssue(r, SeverityError, "", "unsupported datamodel"))
	assert.True(t, hasIssue(r, SeverityError, "dm", "does not exist"))
	assert.True(t, hasIssue(r, SeverityError, "", "data element 2 has no id"))
	assert.Empty(t, r.Warnings(), "reachability is skipped when errors exist")
}

func TestValidate_Warnings(t *testing.T) {
	r := Validate(&domain.Definition{
		Data: []domain.DataDecl{{ID: "dm", Expr: "{}"}, {ID: "extra"}},
		States: []*domain.StateNode{
			{ID: "a", Children: []*domain.StateNode{{ID: "a1"}}, Transitions: []domain.Transition{{Target: "a"}}},
			{ID: "b", Children: []*domain.StateNode{{ID: "a1"}}},
			{ID: "p", Kind: domain.KindParallel},
			{ID: "f", Kind: domain.KindFinal, Transitions: []domain.Transition{{Event: "x", Target: "a"}}},
		},
	})

	assert.NoError(t, r.Err())
	assert.True(t, hasIssue(r, SeverityWarning, "a1", "duplicate id"))
	assert.True(t, hasIssue(r, SeverityWarning, "a", "never settles"))
	assert.True(t, hasIssue(r, SeverityWarning, "p", "no regions"))
	assert.True(t, hasIssue(r, SeverityWarning, "f", "final state declares transitions"))
	assert.True(t, hasIssue(r, SeverityWarning, "extra", "only the first data element"))
	assert.True(t, hasIssue(r, SeverityWarning, "b", "unreachable"))
}

func TestValidate_Empty(t *testing.T) {
	assert.Error(t, Validate(&domain.Definition{}).Err())
	assert.Error(t, Validate(nil).Err())
}
