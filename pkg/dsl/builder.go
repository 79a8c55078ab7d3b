package dsl

import (
	"fmt"

	"github.com/aretw0/wizvis/internal/validator"
	"github.com/aretw0/wizvis/pkg/adapters/memory"
	"github.com/aretw0/wizvis/pkg/domain"
)

// Builder manages the chart construction.
type Builder struct {
	def   domain.Definition
	roots []*StateBuilder
}

// New creates a builder for a chart called name.
func New(name string) *Builder {
	return &Builder{def: domain.Definition{Name: name}}
}

// Datamodel selects the scripting language (ecmascript or lua).
func (b *Builder) Datamodel(kind string) *Builder {
	b.def.Datamodel = kind
	return b
}

// Initial names the top-level state entered first. Defaults to the first state.
func (b *Builder) Initial(id string) *Builder {
	b.def.Initial = id
	return b
}

// Data declares an inline JSON baseline bound under id.
func (b *Builder) Data(id, json string) *Builder {
	b.def.Data = append(b.def.Data, domain.DataDecl{ID: id, Expr: json})
	return b
}

// DataFile declares a baseline read from a JSON file bound under id.
func (b *Builder) DataFile(id, src string) *Builder {
	b.def.Data = append(b.def.Data, domain.DataDecl{ID: id, Src: src})
	return b
}

// State adds a top-level state.
func (b *Builder) State(id string) *StateBuilder {
	return b.add(id, domain.KindState)
}

// Parallel adds a top-level parallel state.
func (b *Builder) Parallel(id string) *StateBuilder {
	return b.add(id, domain.KindParallel)
}

// Final adds a top-level final state.
func (b *Builder) Final(id string) *StateBuilder {
	return b.add(id, domain.KindFinal)
}

func (b *Builder) add(id string, kind domain.StateKind) *StateBuilder {
	sb := newStateBuilder(id, kind, nil)
	b.roots = append(b.roots, sb)
	return sb
}

// Build assembles the definition and rejects it when validation finds errors.
func (b *Builder) Build() (*domain.Definition, error) {
	def := b.def
	def.Data = append([]domain.DataDecl(nil), b.def.Data...)
	def.States = make([]*domain.StateNode, 0, len(b.roots))
	for _, sb := range b.roots {
		def.States = append(def.States, sb.build())
	}

	if err := validator.Validate(&def).Err(); err != nil {
		return nil, fmt.Errorf("invalid chart %q: %w", def.Name, err)
	}
	return &def, nil
}

// MustBuild is Build for charts known to be valid; it panics otherwise.
func (b *Builder) MustBuild() *domain.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// Loader builds the chart and serves it from memory under path.
func (b *Builder) Loader(path string) (*memory.Loader, error) {
	def, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(map[string]*domain.Definition{path: def}), nil
}
