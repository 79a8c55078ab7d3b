package runtime

import (
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// GuardEvaluator evaluates guard expressions in the data model's scripting context.
type GuardEvaluator struct {
	script ports.ScriptContext
}

// NewGuardEvaluator creates an evaluator sharing script with the data model.
func NewGuardEvaluator(script ports.ScriptContext) *GuardEvaluator {
	return &GuardEvaluator{script: script}
}

// Evaluate reports whether expr evaluates to the boolean true.
// Non-boolean results are false; evaluation failures are returned as *domain.EvalError.
func (g *GuardEvaluator) Evaluate(expr string) (bool, error) {
	if strings.TrimSpace(expr) == "" || g.script == nil {
		return false, nil
	}
	v, err := g.script.Evaluate(strings.ReplaceAll(expr, `\`, `\\`))
	if err != nil {
		return false, &domain.EvalError{Expr: expr, Err: err}
	}
	b, ok := v.(bool)
	return ok && b, nil
}

// IsTrue is Evaluate with failures read as false.
func (g *GuardEvaluator) IsTrue(expr string) bool {
	ok, err := g.Evaluate(expr)
	return err == nil && ok
}
