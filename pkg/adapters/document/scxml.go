package document

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
)

// xmlElement keeps every element and attribute in document order,
// which struct-tag decoding of mixed child elements would lose.
type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Children []xmlElement `xml:",any"`
}

func (e *xmlElement) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ParseSCXML reads an SCXML document. Elements outside the supported subset
// (executable content, history, invoke) are ignored.
func ParseSCXML(r io.Reader) (*domain.Definition, error) {
	var root xmlElement
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, &domain.DefinitionError{Reason: "malformed SCXML", Err: err}
	}
	if root.XMLName.Local != "scxml" {
		return nil, &domain.DefinitionError{Reason: "root element is <" + root.XMLName.Local + ">, want <scxml>"}
	}

	def := &domain.Definition{
		Name:      root.attr("name"),
		Datamodel: root.attr("datamodel"),
		Initial:   firstToken(root.attr("initial")),
	}
	for i := range root.Children {
		child := &root.Children[i]
		switch child.XMLName.Local {
		case "datamodel":
			def.Data = append(def.Data, parseData(child)...)
		case "state", "parallel", "final":
			def.States = append(def.States, parseState(child))
		}
	}
	return def, nil
}

func parseData(e *xmlElement) []domain.DataDecl {
	var out []domain.DataDecl
	for i := range e.Children {
		d := &e.Children[i]
		if d.XMLName.Local != "data" {
			continue
		}
		out = append(out, domain.DataDecl{ID: d.attr("id"), Src: d.attr("src"), Expr: d.attr("expr")})
	}
	return out
}

func parseState(e *xmlElement) *domain.StateNode {
	n := &domain.StateNode{
		ID:      e.attr("id"),
		Kind:    domain.StateKind(e.XMLName.Local),
		Initial: firstToken(e.attr("initial")),
	}
	for i := range e.Children {
		child := &e.Children[i]
		switch child.XMLName.Local {
		case "state", "parallel", "final":
			n.Children = append(n.Children, parseState(child))
		case "transition":
			if n.Kind == domain.KindFinal {
				continue
			}
			n.Transitions = append(n.Transitions, domain.Transition{
				Event:     child.attr("event"),
				Condition: child.attr("cond"),
				Target:    firstToken(child.attr("target")),
			})
		case "initial":
			for j := range child.Children {
				if t := &child.Children[j]; t.XMLName.Local == "transition" {
					n.Initial = firstToken(t.attr("target"))
					break
				}
			}
		}
	}
	return n
}

func firstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
