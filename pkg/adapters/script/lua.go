package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Lua is a scripting context backed by a gopher-lua state.
// Only the base, table, string and math libraries are opened.
type Lua struct {
	L *lua.LState
}

// NewLua creates an empty Lua context. Call Close to release it.
func NewLua() *Lua {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	return &Lua{L: L}
}

func (s *Lua) Bind(name string, value any) error {
	lv, err := toLValue(s.L, value)
	if err != nil {
		return err
	}
	s.L.SetGlobal(name, lv)
	return nil
}

func (s *Lua) Evaluate(expr string) (any, error) {
	fn, err := s.L.LoadString("return " + expr)
	if err != nil {
		return nil, err
	}
	s.L.Push(fn)
	if err := s.L.PCall(0, 1, nil); err != nil {
		return nil, err
	}
	v := s.L.Get(-1)
	s.L.Pop(1)
	return fromLValue(v), nil
}

func (s *Lua) Execute(program string) error {
	return s.L.DoString(program)
}

func (s *Lua) Export(name string) (any, error) {
	return fromLValue(s.L.GetGlobal(name)), nil
}

// Close releases the Lua state.
func (s *Lua) Close() error {
	s.L.Close()
	return nil
}

func toLValue(L *lua.LState, v any) (lua.LValue, error) {
	switch t := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(t), nil
	case string:
		return lua.LString(t), nil
	case float64:
		return lua.LNumber(t), nil
	case int:
		return lua.LNumber(t), nil
	case int64:
		return lua.LNumber(t), nil
	case []any:
		tbl := L.NewTable()
		for i, item := range t {
			lv, err := toLValue(L, item)
			if err != nil {
				return nil, err
			}
			tbl.RawSetInt(i+1, lv)
		}
		return tbl, nil
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range t {
			lv, err := toLValue(L, item)
			if err != nil {
				return nil, err
			}
			tbl.RawSetString(k, lv)
		}
		return tbl, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromLValue(v lua.LValue) any {
	switch t := v.(type) {
	case lua.LBool:
		return bool(t)
	case lua.LNumber:
		return float64(t)
	case lua.LString:
		return string(t)
	case *lua.LTable:
		return fromTable(t)
	default:
		return nil
	}
}

// fromTable converts a sequence (keys 1..n) to a slice and anything else to a map.
func fromTable(t *lua.LTable) any {
	n := t.MaxN()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if n > 0 && n == count {
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, fromLValue(t.RawGetInt(i)))
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLValue(v)
	})
	return out
}
