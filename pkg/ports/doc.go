/*
Package ports defines the driven ports (interfaces) of the wizvis runtime.

These interfaces decouple the synchronization runtime from the collaborators it
drives, allowing the core to work with any execution engine, scripting context,
definition source or persistence backend.

# Key Interfaces

  - ExecutionEngine: consumes a definition and events, reports the active configuration.
  - ScriptContext: a sandboxed expression evaluator bound to named variables.
  - DefinitionLoader: reads a state-chart document (SCXML, YAML or in-memory).
  - RecentStore: persists the most-recently-used definition list.
*/
package ports
