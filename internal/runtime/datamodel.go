package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/wizvis/internal/logging"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// DataModelContext owns the scripting context that holds the live data model.
// Values are never cached: every read goes back to the scripting context,
// so guards and reads always observe the latest assignment.
type DataModelContext struct {
	script  ports.ScriptContext
	binding string
	logger  *slog.Logger
}

var errEmptyPath = errors.New("empty data path")

// LoadDataModel binds the JSON baseline under binding inside script.
// The baseline comes from baselinePath, or from inline JSON when no path is given.
// A definition without a binding name yields an empty context.
func LoadDataModel(script ports.ScriptContext, binding, baselinePath, inline string) (*DataModelContext, error) {
	dm := &DataModelContext{script: script, binding: binding, logger: logging.NewNop()}
	if binding == "" {
		if baselinePath != "" || inline != "" {
			return nil, &domain.DefinitionError{Reason: "data baseline declared without an id"}
		}
		return dm, nil
	}

	var raw []byte
	source := baselinePath
	switch {
	case baselinePath != "":
		b, err := os.ReadFile(baselinePath)
		if err != nil {
			return nil, &domain.DataLoadError{Path: baselinePath, Err: err}
		}
		raw = b
	case strings.TrimSpace(inline) != "":
		source = "<inline " + binding + ">"
		raw = []byte(inline)
	default:
		raw = []byte("{}")
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &domain.DataLoadError{Path: source, Err: err}
	}
	if _, ok := value.(map[string]any); !ok {
		return nil, &domain.DataLoadError{Path: source, Err: fmt.Errorf("baseline must be a JSON object, got %T", value)}
	}

	if err := script.Bind(binding, value); err != nil {
		return nil, &domain.DataLoadError{Path: source, Err: fmt.Errorf("bind '%s': %w", binding, err)}
	}
	return dm, nil
}

// BindingName returns the variable name the baseline is exposed under.
func (d *DataModelContext) BindingName() string {
	return d.binding
}

// SetLogger sets where export failures are reported.
func (d *DataModelContext) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// root exports the bound object. An export failure reads as an empty model
// and is logged, since the reads built on it cannot fail.
func (d *DataModelContext) root() map[string]any {
	if d.binding == "" {
		return nil
	}
	v, err := d.script.Export(d.binding)
	if err != nil {
		d.logger.Warn("data model export failed", "binding", d.binding, "err", err)
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		d.logger.Warn("data model is no longer an object", "binding", d.binding, "type", fmt.Sprintf("%T", v))
	}
	return m
}

// Get resolves a dotted path inside the data model.
func (d *DataModelContext) Get(path string) (any, bool) {
	var cur any = d.root()
	if cur == nil || path == "" {
		return nil, false
	}
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Values returns the data model as a flat mapping from dotted path to value.
// Arrays and empty objects are leaves.
func (d *DataModelContext) Values() map[string]any {
	out := make(map[string]any)
	flatten("", d.root(), out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// DataItems lists the top-level properties rendered as text, sorted by name.
func (d *DataModelContext) DataItems() []domain.DataItem {
	root := d.root()
	items := make([]domain.DataItem, 0, len(root))
	for k, v := range root {
		items = append(items, domain.DataItem{Name: k, Value: FormatValue(v)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// FormatValue renders a JSON-typed value for display. Strings are shown unquoted.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// AssignmentLiteral turns raw input into the literal written by an assignment.
// "true" and "false" (any case) become booleans; everything else is a quoted string.
func AssignmentLiteral(raw string) string {
	switch lower := strings.ToLower(raw); lower {
	case "true", "false":
		return lower
	}
	return `"` + literalEscaper.Replace(raw) + `"`
}

// Assign writes raw under path as a scripted assignment against the binding.
func (d *DataModelContext) Assign(path, raw string) error {
	literal := AssignmentLiteral(raw)
	if d.binding == "" {
		return &domain.AssignmentError{Path: path, Literal: literal, Err: domain.ErrNoDataModel}
	}
	if strings.TrimSpace(path) == "" {
		return &domain.AssignmentError{Path: path, Literal: literal, Err: errEmptyPath}
	}
	program := d.binding + "." + path + " = " + literal
	if err := d.script.Execute(program); err != nil {
		return &domain.AssignmentError{Path: path, Literal: literal, Err: err}
	}
	return nil
}
