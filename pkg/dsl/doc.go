/*
Package dsl provides a fluent Go builder for WizVis state charts.

It is an alternative to SCXML or YAML documents when a chart is generated
in code or assembled in tests.

Example usage:

	b := dsl.New("door").Data("dm", `{"unlocked": false}`)

	b.State("closed").
		OnIf("open", "dm.unlocked", "opened").
		On("lock", "locked")

	b.State("locked").On("unlock", "closed")
	b.State("opened").On("close", "closed")

	def, err := b.Build()
	// ... pass def to Inspector.Load
*/
package dsl
