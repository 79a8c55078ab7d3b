package document

import (
	"bytes"
	"errors"
	"io"

	"github.com/aretw0/wizvis/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ParseYAML reads a definition written in YAML.
//
//	name: door
//	data: [{id: dm, src: door.json}]
//	states:
//	  - id: closed
//	    transitions: [{event: open, cond: dm.unlocked, target: opened}]
//	  - id: opened
func ParseYAML(r io.Reader) (*domain.Definition, error) {
	var def domain.Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.DefinitionError{Reason: "empty YAML document"}
		}
		return nil, &domain.DefinitionError{Reason: "malformed YAML", Err: err}
	}
	normalize(def.States)
	return &def, nil
}

// EncodeYAML writes def in the format read by ParseYAML.
func EncodeYAML(def *domain.Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normalize(states []*domain.StateNode) {
	for _, s := range states {
		if s == nil {
			continue
		}
		if s.Kind == "" {
			s.Kind = domain.KindState
		}
		if s.Kind == domain.KindFinal {
			s.Transitions = nil
		}
		normalize(s.Children)
	}
}
