package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wizvis/internal/logging"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// Runtime keeps a loaded definition, its data model and the engine's
// active configuration consistent across events and assignments.
//
// A Runtime is driven from a single goroutine; callers needing concurrent
// access serialize calls themselves.
type Runtime struct {
	engines ports.EngineFactory
	scripts ports.ScriptFactory
	logger  *slog.Logger
	hooks   domain.LifecycleHooks

	loaded *loadedChart
}

// loadedChart groups everything replaced atomically by Initialize.
type loadedChart struct {
	def     *domain.Definition
	index   *StateIndex
	script  ports.ScriptContext
	data    *DataModelContext
	guards  *GuardEvaluator
	engine  ports.ExecutionEngine
	tracker *ActiveStateTracker
	active  []domain.ActiveState
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runtime) {
		r.hooks = hooks
	}
}

// New creates an unloaded runtime. Every Initialize builds a fresh engine
// and scripting context from the factories.
func New(engines ports.EngineFactory, scripts ports.ScriptFactory, opts ...Option) *Runtime {
	r := &Runtime{
		engines: engines,
		scripts: scripts,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize loads def, replacing any previously loaded definition.
// dataPath overrides the baseline declared by the definition when not empty.
// On error the previous state is left untouched.
func (r *Runtime) Initialize(ctx context.Context, def *domain.Definition, dataPath string) error {
	chart, err := r.build(def, dataPath)

	ev := &domain.LoadEvent{Err: err}
	if def != nil {
		ev.Name, ev.Source = def.Name, def.Source
	}
	if err != nil {
		r.logger.Error("failed to initialize definition", "source", ev.Source, "err", err)
		if r.hooks.OnLoaded != nil {
			r.hooks.OnLoaded(ctx, ev)
		}
		return err
	}

	prev := r.loaded
	r.loaded = chart
	if prev != nil {
		closeScript(prev.script)
	}

	ev.States = chart.index.Len()
	ev.Initial = chart.engine.InitialStateID()
	r.logger.Info("definition loaded", "source", ev.Source, "states", ev.States, "initial", ev.Initial)
	if r.hooks.OnLoaded != nil {
		r.hooks.OnLoaded(ctx, ev)
	}
	r.publish(ctx, domain.Notification{Kind: domain.NotifyLoaded})
	return nil
}

func (r *Runtime) build(def *domain.Definition, dataPath string) (*loadedChart, error) {
	if def == nil {
		return nil, &domain.DefinitionError{Reason: "no definition"}
	}
	if len(def.States) == 0 {
		return nil, &domain.DefinitionError{Reason: "definition has no states"}
	}

	index, err := BuildIndex(def.States)
	if err != nil {
		return nil, err
	}

	script, err := r.scripts(def.DatamodelKind())
	if err != nil {
		return nil, &domain.DefinitionError{Reason: "datamodel '" + def.DatamodelKind() + "'", Err: err}
	}

	baseline := dataPath
	if baseline == "" {
		baseline = def.BaselinePath()
	}
	data, err := LoadDataModel(script, def.BindingName(), baseline, def.InlineBaseline())
	if err != nil {
		closeScript(script)
		return nil, err
	}
	data.SetLogger(r.logger)

	guards := NewGuardEvaluator(script)
	engine := r.engines(guards.Evaluate)
	if err := engine.Start(def); err != nil {
		closeScript(script)
		return nil, &domain.EngineStartError{Err: err}
	}

	tracker := NewActiveStateTracker(index)
	return &loadedChart{
		def:     def,
		index:   index,
		script:  script,
		data:    data,
		guards:  guards,
		engine:  engine,
		tracker: tracker,
		// The first view shows only the reported initial state; ancestors
		// appear once the engine reports a full configuration after an event.
		active: tracker.Recompute([]string{engine.InitialStateID()}),
	}, nil
}

func closeScript(s ports.ScriptContext) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// FireEvent dispatches name to the engine and recomputes the active states.
// A dispatch failure is returned as *domain.ModelError and changes nothing.
func (r *Runtime) FireEvent(ctx context.Context, name string) error {
	if r.loaded == nil {
		return domain.ErrNotLoaded
	}
	c := r.loaded
	before := domain.IDs(c.active)

	if err := c.engine.Dispatch(name); err != nil {
		modelErr := &domain.ModelError{Event: name, Err: err}
		r.logger.Warn("event not processed", "event", name, "err", err)
		if r.hooks.OnFire != nil {
			r.hooks.OnFire(ctx, &domain.FireEvent{Event: name, Before: before, After: before, Err: modelErr})
		}
		return modelErr
	}

	c.active = c.tracker.Recompute(c.engine.ActiveConfiguration())
	after := domain.IDs(c.active)
	diff := domain.Diff(before, after)

	r.logger.Debug("event fired", "event", name, "entered", diff.Entered, "exited", diff.Exited)
	if r.hooks.OnFire != nil {
		r.hooks.OnFire(ctx, &domain.FireEvent{Event: name, Before: before, After: after})
	}
	r.publish(ctx, domain.Notification{
		Kind:    domain.NotifyActive,
		Event:   name,
		Entered: diff.Entered,
		Exited:  diff.Exited,
	})
	return nil
}

// IsExpressionTrue evaluates a guard. Empty expressions, evaluation failures
// and non-boolean results are all false.
func (r *Runtime) IsExpressionTrue(ctx context.Context, expr string) bool {
	if r.loaded == nil {
		return false
	}
	ok, err := r.loaded.guards.Evaluate(expr)
	if err != nil {
		r.logger.Debug("guard evaluation failed", "expr", expr, "err", err)
	}
	if r.hooks.OnGuard != nil {
		r.hooks.OnGuard(ctx, &domain.GuardEvent{Expr: expr, Result: ok, Err: err})
	}
	return ok
}

// TransitionEnabled reports whether t can currently fire.
// Transitions without a condition are always enabled.
func (r *Runtime) TransitionEnabled(ctx context.Context, t domain.Transition) bool {
	if !t.Guarded() {
		return true
	}
	return r.IsExpressionTrue(ctx, t.Condition)
}

// AssignDataValue writes value under path and asks consumers to re-evaluate guards.
func (r *Runtime) AssignDataValue(ctx context.Context, path, value string) error {
	if r.loaded == nil {
		return domain.ErrNotLoaded
	}
	err := r.loaded.data.Assign(path, value)

	if r.hooks.OnAssign != nil {
		ev := &domain.AssignEvent{Path: path, Literal: AssignmentLiteral(value), Err: err}
		var assignErr *domain.AssignmentError
		if errors.As(err, &assignErr) {
			ev.Literal = assignErr.Literal
		}
		r.hooks.OnAssign(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("assignment failed", "path", path, "err", err)
		return err
	}

	r.publish(ctx, domain.Notification{Kind: domain.NotifyRefresh, Path: path})
	return nil
}

func (r *Runtime) publish(ctx context.Context, n domain.Notification) {
	if r.hooks.OnPublish == nil {
		return
	}
	n.Timestamp = time.Now()
	n.Active = domain.IDs(r.loaded.active)
	r.hooks.OnPublish(ctx, n)
}

// Loaded reports whether a definition has been initialized.
func (r *Runtime) Loaded() bool {
	return r.loaded != nil
}

// Definition returns the loaded definition, or nil.
func (r *Runtime) Definition() *domain.Definition {
	if r.loaded == nil {
		return nil
	}
	return r.loaded.def
}

// AllStates returns every indexed state id, sorted.
func (r *Runtime) AllStates() []string {
	if r.loaded == nil {
		return nil
	}
	return r.loaded.index.IDs()
}

// StateTree returns the display tree in declaration order.
func (r *Runtime) StateTree() []domain.TreeNode {
	if r.loaded == nil {
		return nil
	}
	return r.loaded.index.Tree()
}

// State returns a copy of the indexed state for id.
func (r *Runtime) State(id string) (domain.State, bool) {
	if r.loaded == nil {
		return domain.State{}, false
	}
	st, ok := r.loaded.index.Get(id)
	if !ok {
		return domain.State{}, false
	}
	return *st, true
}

// ActiveStates returns the current ordered active states.
func (r *Runtime) ActiveStates() []domain.ActiveState {
	if r.loaded == nil {
		return nil
	}
	return append([]domain.ActiveState(nil), r.loaded.active...)
}

// View returns the active states with every transition's enablement resolved.
func (r *Runtime) View(ctx context.Context) []domain.ActiveStateView {
	active := r.ActiveStates()
	out := make([]domain.ActiveStateView, 0, len(active))
	for _, a := range active {
		v := domain.ActiveStateView{ID: a.ID, Transitions: make([]domain.TransitionView, 0, len(a.Transitions))}
		for _, t := range a.Transitions {
			v.Transitions = append(v.Transitions, domain.TransitionView{Transition: t, Enabled: r.TransitionEnabled(ctx, t)})
		}
		out = append(out, v)
	}
	return out
}

// BindingName returns the data model's binding name, empty when none is declared.
func (r *Runtime) BindingName() string {
	if r.loaded == nil {
		return ""
	}
	return r.loaded.data.BindingName()
}

// Values returns the data model as a flat dotted-path mapping.
func (r *Runtime) Values() map[string]any {
	if r.loaded == nil {
		return map[string]any{}
	}
	return r.loaded.data.Values()
}

// DataItems lists the top-level data model properties.
func (r *Runtime) DataItems() []domain.DataItem {
	if r.loaded == nil {
		return nil
	}
	return r.loaded.data.DataItems()
}

// Get resolves a dotted data model path.
func (r *Runtime) Get(path string) (any, bool) {
	if r.loaded == nil {
		return nil, false
	}
	return r.loaded.data.Get(path)
}
