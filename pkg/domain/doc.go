/*
Package domain contains the core types shared by the wizvis runtime and its adapters.

It describes a loaded state-chart definition, the indexed view of its states, the
ephemeral active-state records published after every event, and the error taxonomy
of the runtime. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Definition: a parsed state-chart document (states, transitions, data model).
  - StateNode: a state element as declared in the document.
  - State: an indexed state with a parent back-reference, owned by the state index.
  - Transition: an event/condition/target triple declared on a state.
  - ActiveState: a view record of a currently active state and its transitions.
  - TreeNode: a read-only {id, children} projection used for display.
*/
package domain
