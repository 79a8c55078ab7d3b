package ports

import "github.com/aretw0/wizvis/pkg/domain"

// ExecutionEngine defines the state-chart semantics consumed by the runtime.
// The runtime treats it as a black box and only reads the resulting configuration.
type ExecutionEngine interface {
	// Start enters the initial configuration of the definition.
	// An error means the engine rejects the definition as inconsistent.
	Start(def *domain.Definition) error

	// Dispatch processes one external event to completion.
	// An error means the event could not be processed; the configuration is unchanged.
	Dispatch(event string) error

	// ActiveConfiguration returns the ids of all entered states.
	// The order is engine specific but stable for a given call.
	ActiveConfiguration() []string

	// InitialStateID returns the id of the state entered at start.
	InitialStateID() string
}

// ConditionFunc evaluates a guard expression for an engine.
// Engines must treat an error as a disabled transition.
type ConditionFunc func(expr string) (bool, error)

// EngineFactory builds a fresh engine whose guards run through cond.
type EngineFactory func(cond ConditionFunc) ExecutionEngine
