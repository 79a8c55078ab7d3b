package ports

// ScriptContext is a sandboxed expression evaluator bound to named variables.
// Implementations are not safe for concurrent use.
type ScriptContext interface {
	// Bind exposes a JSON-typed value under name.
	Bind(name string, value any) error

	// Evaluate runs an expression and returns its JSON-typed result.
	// Undefined and null results are returned as nil.
	Evaluate(expr string) (any, error)

	// Execute runs program text for its side effects (e.g. an assignment).
	Execute(program string) error

	// Export returns the current JSON-typed value bound under name, or nil.
	Export(name string) (any, error)
}

// ScriptFactory builds a fresh scripting context for a datamodel name.
type ScriptFactory func(datamodel string) (ScriptContext, error)
