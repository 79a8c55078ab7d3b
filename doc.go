/*
Package wizvis is a live inspector for hierarchical state machines.

It loads a state-chart definition (SCXML or YAML) together with its JSON data
model, drives an execution engine through events, and exposes the resulting
configuration to a view layer: every state, the display tree, the ordered
active states with their transitions, and the data-model values that guards
are evaluated against.

# Concept

The Inspector composes three collaborators behind a small synchronous API:

  - an Execution Engine that owns the chart semantics (the bundled
    interpreter by default),
  - a Scripting Context that holds the data model and evaluates guards
    (ECMAScript by default, Lua when the definition declares datamodel="lua"),
  - a recent-files store that remembers which definitions were opened.

Every change is published as a domain.Notification so views can refresh.

# Usage

	insp := wizvis.New()
	if err := insp.Open(ctx, "door.scxml"); err != nil {
		log.Fatal(err)
	}

	for _, st := range insp.View(ctx) {
		for _, t := range st.Transitions {
			fmt.Printf("%s --%s--> %s enabled=%v\n", st.ID, t.Event, t.Target, t.Enabled)
		}
	}

	if err := insp.AssignDataValue(ctx, "unlocked", "true"); err != nil {
		log.Fatal(err)
	}
	if err := insp.FireEvent(ctx, "open"); err != nil {
		log.Printf("event rejected: %v", err)
	}
*/
package wizvis
