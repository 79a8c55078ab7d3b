package script

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// ECMAScript is a scripting context backed by a goja virtual machine.
type ECMAScript struct {
	vm *goja.Runtime
}

// NewECMAScript creates an empty ECMAScript context.
func NewECMAScript() *ECMAScript {
	return &ECMAScript{vm: goja.New()}
}

func (s *ECMAScript) jsonFunc(name string) (goja.Callable, error) {
	fn, ok := goja.AssertFunction(s.vm.Get("JSON").ToObject(s.vm).Get(name))
	if !ok {
		return nil, fmt.Errorf("JSON.%s is not callable", name)
	}
	return fn, nil
}

// Bind exposes value as a plain JS object, so scripted assignments mutate it in place.
func (s *ECMAScript) Bind(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	parse, err := s.jsonFunc("parse")
	if err != nil {
		return err
	}
	v, err := parse(goja.Undefined(), s.vm.ToValue(string(raw)))
	if err != nil {
		return err
	}
	return s.vm.Set(name, v)
}

func (s *ECMAScript) Evaluate(expr string) (any, error) {
	v, err := s.vm.RunString(expr)
	if err != nil {
		return nil, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

func (s *ECMAScript) Execute(program string) error {
	_, err := s.vm.RunString(program)
	return err
}

// Export returns the JSON form of the named global.
func (s *ECMAScript) Export(name string) (any, error) {
	v := s.vm.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	stringify, err := s.jsonFunc("stringify")
	if err != nil {
		return nil, err
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil {
		return nil, err
	}
	if goja.IsUndefined(out) {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(out.String()), &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
