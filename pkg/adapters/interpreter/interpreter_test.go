package interpreter

import (
	"errors"
	"testing"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func st(id string, children ...*domain.StateNode) *domain.StateNode {
	return &domain.StateNode{ID: id, Kind: domain.KindState, Children: children}
}

func par(id string, children ...*domain.StateNode) *domain.StateNode {
	return &domain.StateNode{ID: id, Kind: domain.KindParallel, Children: children}
}

func fin(id string) *domain.StateNode {
	return &domain.StateNode{ID: id, Kind: domain.KindFinal}
}

func on(n *domain.StateNode, event, target string) *domain.StateNode {
	n.Transitions = append(n.Transitions, domain.Transition{Event: event, Target: target})
	return n
}

func guarded(n *domain.StateNode, event, cond, target string) *domain.StateNode {
	n.Transitions = append(n.Transitions, domain.Transition{Event: event, Condition: cond, Target: target})
	return n
}

// conds evaluates guards from a fixed table; unknown expressions fail.
func conds(table map[string]bool) func(string) (bool, error) {
	return func(expr string) (bool, error) {
		v, ok := table[expr]
		if !ok {
			return false, errors.New("unknown expression")
		}
		return v, nil
	}
}

func start(t *testing.T, cond func(string) (bool, error), states ...*domain.StateNode) *Interpreter {
	t.Helper()
	i := New(cond)
	require.NoError(t, i.Start(&domain.Definition{States: states}))
	return i
}

func TestInterpreter_SimpleTransition(t *testing.T) {
	i := start(t, nil,
		on(st("idle"), "go", "running"),
		st("running"),
	)
	assert.Equal(t, "idle", i.InitialStateID())
	assert.Equal(t, []string{"idle"}, i.ActiveConfiguration())

	require.NoError(t, i.Dispatch("go"))
	assert.Equal(t, []string{"running"}, i.ActiveConfiguration())

	err := i.Dispatch("go")
	assert.ErrorIs(t, err, domain.ErrNoTransition)
	assert.Equal(t, []string{"running"}, i.ActiveConfiguration())
}

func TestInterpreter_CompoundDefaults(t *testing.T) {
	outer := st("outer", st("first"), on(st("second"), "back", "first"))
	outer.Initial = "second"

	i := start(t, nil, outer)
	assert.Equal(t, []string{"outer", "second"}, i.ActiveConfiguration())

	require.NoError(t, i.Dispatch("back"))
	assert.Equal(t, []string{"outer", "first"}, i.ActiveConfiguration())
}

func TestInterpreter_ParallelRegions(t *testing.T) {
	i := start(t, nil,
		par("p",
			st("r1", on(st("r1a"), "next", "r1b"), st("r1b")),
			st("r2", st("r2a")),
		),
	)
	assert.Equal(t, []string{"p", "r1", "r1a", "r2", "r2a"}, i.ActiveConfiguration())

	require.NoError(t, i.Dispatch("next"))
	assert.Equal(t, []string{"p", "r1", "r1b", "r2", "r2a"}, i.ActiveConfiguration())
}

func TestInterpreter_TransitionFromAncestor(t *testing.T) {
	i := start(t, nil,
		on(st("a", st("a1"), st("a2")), "reset", "b"),
		st("b"),
	)
	require.NoError(t, i.Dispatch("reset"))
	assert.Equal(t, []string{"b"}, i.ActiveConfiguration())
}

func TestInterpreter_Guards(t *testing.T) {
	idle := st("idle")
	guarded(idle, "go", "blocked", "never")
	guarded(idle, "go", "broken", "never")
	guarded(idle, "go", "allowed", "running")

	i := start(t, conds(map[string]bool{"blocked": false, "allowed": true}),
		idle, st("never"), st("running"))

	require.NoError(t, i.Dispatch("go"))
	assert.Equal(t, []string{"running"}, i.ActiveConfiguration())
}

func TestInterpreter_EventlessAndDone(t *testing.T) {
	work := st("work", on(st("step"), "finish", "complete"), fin("complete"))
	on(work, "done.state.work", "after")

	i := start(t, conds(map[string]bool{"ready": true}),
		guarded(st("boot"), "", "ready", "work"),
		work,
		st("after"),
	)
	assert.Equal(t, []string{"work", "step"}, i.ActiveConfiguration())

	require.NoError(t, i.Dispatch("finish"))
	assert.Equal(t, []string{"after"}, i.ActiveConfiguration())
}

func TestInterpreter_TopLevelFinal(t *testing.T) {
	i := start(t, nil, on(st("a"), "end", "z"), fin("z"))
	require.NoError(t, i.Dispatch("end"))
	assert.True(t, i.Done())
	assert.ErrorIs(t, i.Dispatch("end"), ErrTerminated)
}

func TestInterpreter_StartRejections(t *testing.T) {
	tests := []struct {
		name string
		def  *domain.Definition
		err  error
	}{
		{"no states", &domain.Definition{}, nil},
		{"unknown initial", &domain.Definition{Initial: "ghost", States: []*domain.StateNode{st("a")}}, nil},
		{"unknown target", &domain.Definition{States: []*domain.StateNode{on(st("a"), "go", "ghost")}}, nil},
		{"initial outside compound", &domain.Definition{States: []*domain.StateNode{
			{ID: "c", Initial: "b", Children: []*domain.StateNode{st("c1")}},
			st("b"),
		}}, nil},
		{"eventless loop", &domain.Definition{States: []*domain.StateNode{
			on(st("a"), "", "b"),
			on(st("b"), "", "a"),
		}}, ErrMicrostepLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(nil).Start(tt.def)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestInterpreter_DispatchBeforeStart(t *testing.T) {
	assert.ErrorIs(t, New(nil).Dispatch("go"), ErrNotStarted)
}

func TestInterpreter_FailedDispatchRestores(t *testing.T) {
	i := New(nil, WithMaxMicrosteps(5))
	require.NoError(t, i.Start(&domain.Definition{States: []*domain.StateNode{
		on(st("a"), "loop", "b"),
		on(st("b"), "", "c"),
		on(st("c"), "", "b"),
	}}))

	err := i.Dispatch("loop")
	assert.ErrorIs(t, err, ErrMicrostepLimit)
	assert.Equal(t, []string{"a"}, i.ActiveConfiguration())
}

func TestMatchesEvent(t *testing.T) {
	tests := []struct {
		descriptors string
		event       string
		want        bool
	}{
		{"go", "go", true},
		{"go", "gone", false},
		{"error", "error.execution", true},
		{"error.*", "error.execution", true},
		{"error.", "error.execution", true},
		{"*", "anything", true},
		{"a b", "b", true},
		{"", "", true},
		{"", "go", false},
		{"go", "", false},
	}
	for _, tt := range tests {
		if got := matchesEvent(tt.descriptors, tt.event); got != tt.want {
			t.Errorf("matchesEvent(%q, %q) = %v, want %v", tt.descriptors, tt.event, got, tt.want)
		}
	}
}
