package runtime

import (
	"testing"

	"github.com/aretw0/wizvis/pkg/adapters/script"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardEvaluator(t *testing.T) {
	sc := script.NewECMAScript()
	require.NoError(t, sc.Bind("dm", map[string]any{"count": 3, "path": `C:\dir`}))
	g := NewGuardEvaluator(sc)

	tests := []struct {
		expr string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"1==1", true},
		{"1==2", false},
		{"dm.count > 2", true},
		{`"yes"`, false},
		{"1", false},
		{"undefinedVar.x", false},
		{`dm.path == "C:\dir"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsTrue(tt.expr))
		})
	}

	_, err := g.Evaluate("undefinedVar.x")
	var evalErr *domain.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "undefinedVar.x", evalErr.Expr)
}
