package script

import (
	"testing"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseline() map[string]any {
	return map[string]any{
		"count": float64(2),
		"name":  "wiz",
		"user":  map[string]any{"admin": false},
		"tags":  []any{"a", "b"},
	}
}

func contexts(t *testing.T) map[string]ports.ScriptContext {
	t.Helper()
	lua := NewLua()
	t.Cleanup(func() { _ = lua.Close() })
	return map[string]ports.ScriptContext{
		"ecmascript": NewECMAScript(),
		"lua":        lua,
	}
}

func TestScriptContexts(t *testing.T) {
	for name, sc := range contexts(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, sc.Bind("dm", baseline()))

			v, err := sc.Evaluate("dm.count > 1")
			require.NoError(t, err)
			assert.Equal(t, true, v)

			v, err = sc.Evaluate(`dm.name == "wiz"`)
			require.NoError(t, err)
			assert.Equal(t, true, v)

			_, err = sc.Evaluate("undefinedVar.x")
			assert.Error(t, err)

			require.NoError(t, sc.Execute("dm.user.admin = true"))
			v, err = sc.Evaluate("dm.user.admin")
			require.NoError(t, err)
			assert.Equal(t, true, v)

			require.NoError(t, sc.Execute(`dm.name = "O'Brien"`))
			exported, err := sc.Export("dm")
			require.NoError(t, err)
			m, ok := exported.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "O'Brien", m["name"])
			assert.Equal(t, float64(2), m["count"])
			assert.Equal(t, []any{"a", "b"}, m["tags"])
			assert.Equal(t, map[string]any{"admin": true}, m["user"])

			missing, err := sc.Export("nothing")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestECMAScript_UndefinedIsNil(t *testing.T) {
	sc := NewECMAScript()
	v, err := sc.Evaluate("undefined")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = sc.Evaluate("null")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = sc.Evaluate("1 + 1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestLua_SyntaxError(t *testing.T) {
	sc := NewLua()
	defer sc.Close()

	_, err := sc.Evaluate("1 ==")
	assert.Error(t, err)
	assert.Error(t, sc.Execute("dm ="))
}

func TestNew(t *testing.T) {
	tests := []struct {
		datamodel string
		want      any
	}{
		{"", &ECMAScript{}},
		{"ecmascript", &ECMAScript{}},
		{"JavaScript", &ECMAScript{}},
		{"lua", &Lua{}},
	}
	for _, tt := range tests {
		t.Run(tt.datamodel, func(t *testing.T) {
			sc, err := New(tt.datamodel)
			require.NoError(t, err)
			assert.IsType(t, tt.want, sc)
			if l, ok := sc.(*Lua); ok {
				_ = l.Close()
			}
		})
	}

	_, err := New("xpath")
	assert.ErrorIs(t, err, domain.ErrUnknownDatamodel)
}
