package domain

// Datamodel names understood by the scripting adapters.
const (
	DatamodelECMAScript = "ecmascript"
	DatamodelLua        = "lua"
)

// DataDecl is a <data> declaration of the definition's data model.
type DataDecl struct {
	ID string `json:"id" yaml:"id"`
	// Src is the path of the JSON baseline. Loaders resolve it relative to the document.
	Src string `json:"src,omitempty" yaml:"src,omitempty"`
	// Expr is an inline JSON baseline, used when Src is empty.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Definition is a parsed hierarchical state-chart document.
type Definition struct {
	Name      string       `json:"name,omitempty" yaml:"name,omitempty"`
	Datamodel string       `json:"datamodel,omitempty" yaml:"datamodel,omitempty"`
	Initial   string       `json:"initial,omitempty" yaml:"initial,omitempty"`
	Data      []DataDecl   `json:"data,omitempty" yaml:"data,omitempty"`
	States    []*StateNode `json:"states" yaml:"states"`

	// Source is the path the definition was read from, empty for in-memory definitions.
	Source string `json:"-" yaml:"-"`
}

// BindingName returns the name under which the baseline is exposed to expressions.
// It is the id of the first declared data element.
func (d *Definition) BindingName() string {
	if len(d.Data) == 0 {
		return ""
	}
	return d.Data[0].ID
}

// BaselinePath returns the baseline file of the first data element, if any.
func (d *Definition) BaselinePath() string {
	if len(d.Data) == 0 {
		return ""
	}
	return d.Data[0].Src
}

// InlineBaseline returns the inline JSON baseline of the first data element, if any.
func (d *Definition) InlineBaseline() string {
	if len(d.Data) == 0 {
		return ""
	}
	return d.Data[0].Expr
}

// InitialID returns the declared initial state, or the first top-level state.
func (d *Definition) InitialID() string {
	if d.Initial != "" {
		return d.Initial
	}
	for _, s := range d.States {
		if s != nil {
			return s.ID
		}
	}
	return ""
}

// DatamodelKind returns the declared datamodel, defaulting to ECMAScript.
func (d *Definition) DatamodelKind() string {
	if d.Datamodel == "" {
		return DatamodelECMAScript
	}
	return d.Datamodel
}
