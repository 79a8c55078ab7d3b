// Package script provides the scripting contexts that hold a definition's data model
// and evaluate its guard expressions.
package script

import (
	"fmt"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// New returns a fresh scripting context for datamodel.
// An empty name selects ECMAScript.
func New(datamodel string) (ports.ScriptContext, error) {
	switch strings.ToLower(strings.TrimSpace(datamodel)) {
	case "", domain.DatamodelECMAScript, "javascript", "js":
		return NewECMAScript(), nil
	case domain.DatamodelLua:
		return NewLua(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDatamodel, datamodel)
	}
}

var _ ports.ScriptFactory = New
