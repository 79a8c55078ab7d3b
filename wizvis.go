package wizvis

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/wizvis/internal/logging"
	"github.com/aretw0/wizvis/internal/runtime"
	"github.com/aretw0/wizvis/pkg/adapters/document"
	"github.com/aretw0/wizvis/pkg/adapters/interpreter"
	"github.com/aretw0/wizvis/pkg/adapters/memory"
	"github.com/aretw0/wizvis/pkg/adapters/script"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
	"github.com/aretw0/wizvis/pkg/recent"
)

// watchBuffer is the per-subscriber notification backlog.
// Slow subscribers miss notifications rather than blocking the inspector.
const watchBuffer = 16

// Inspector is the high-level entry point of the library.
// It wraps the runtime with definition loading, recent-file tracking and
// notification fan-out. Safe for concurrent use: calls are serialized.
type Inspector struct {
	mu      sync.Mutex
	rt      *runtime.Runtime
	loader  ports.DefinitionLoader
	recents ports.RecentStore
	limit   int
	list    *recent.List
	engines ports.EngineFactory
	scripts ports.ScriptFactory
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	// dataPath is the baseline override of the loaded definition.
	dataPath string

	subsMu sync.Mutex
	subs   map[chan domain.Notification]struct{}
}

// Option defines a functional option for configuring the Inspector.
type Option func(*Inspector)

// WithLoader injects a custom DefinitionLoader (default: SCXML/YAML files).
func WithLoader(l ports.DefinitionLoader) Option {
	return func(i *Inspector) {
		i.loader = l
	}
}

// WithRecentStore sets where the recent definitions list is persisted (default: memory).
func WithRecentStore(s ports.RecentStore) Option {
	return func(i *Inspector) {
		i.recents = s
	}
}

// WithRecentLimit sets the size of the recent definitions list.
func WithRecentLimit(n int) Option {
	return func(i *Inspector) {
		i.limit = n
	}
}

// WithEngineFactory replaces the bundled interpreter.
func WithEngineFactory(f ports.EngineFactory) Option {
	return func(i *Inspector) {
		i.engines = f
	}
}

// WithScriptFactory replaces the bundled scripting contexts.
func WithScriptFactory(f ports.ScriptFactory) Option {
	return func(i *Inspector) {
		i.scripts = f
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Inspector) {
		i.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// New creates an Inspector with nothing loaded.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		subs: make(map[chan domain.Notification]struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.loader == nil {
		i.loader = document.NewLoader()
	}
	if i.recents == nil {
		i.recents = memory.NewRecentStore()
	}
	if i.engines == nil {
		i.engines = interpreter.Factory()
	}
	if i.scripts == nil {
		i.scripts = script.New
	}
	if i.logger == nil {
		i.logger = logging.NewNop()
	}

	i.list = recent.New(i.recents, recent.WithLimit(i.limit))
	hooks := domain.ChainHooks(i.hooks, domain.LifecycleHooks{OnPublish: i.broadcast})
	i.rt = runtime.New(i.engines, i.scripts,
		runtime.WithLogger(i.logger),
		runtime.WithLifecycleHooks(hooks),
	)
	return i
}

// OpenOption adjusts a single Open call.
type OpenOption func(*openConfig)

type openConfig struct {
	dataPath string
}

// WithDataPath replaces the baseline declared by the definition with the JSON file at path.
// The override is kept for later reloads.
func WithDataPath(path string) OpenOption {
	return func(c *openConfig) {
		c.dataPath = path
	}
}

// Open loads the definition at path and records it in the recent list.
// A failed open leaves the previous chart in place.
func (i *Inspector) Open(ctx context.Context, path string, opts ...OpenOption) error {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	def, err := i.loader.Load(ctx, path)
	if err != nil {
		return err
	}

	i.mu.Lock()
	err = i.rt.Initialize(ctx, def, cfg.dataPath)
	if err == nil {
		i.dataPath = cfg.dataPath
	}
	i.mu.Unlock()
	if err != nil {
		return err
	}

	entry := recentEntry(path)
	if _, err := i.list.Touch(ctx, entry); err != nil {
		i.logger.Warn("failed to update recent list", "path", entry, "err", err)
	}
	return nil
}

// recentEntry makes file paths absolute so entries survive a change of
// working directory. Loader URIs such as mem://name are kept as given.
func recentEntry(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// Reload re-reads the currently loaded definition from its source,
// keeping any data override it was opened with.
func (i *Inspector) Reload(ctx context.Context) error {
	i.mu.Lock()
	def, dataPath := i.rt.Definition(), i.dataPath
	if def == nil {
		i.mu.Unlock()
		return domain.ErrNotLoaded
	}
	if def.Source == "" {
		err := i.rt.Initialize(ctx, def, dataPath)
		i.mu.Unlock()
		return err
	}
	i.mu.Unlock()
	return i.Open(ctx, def.Source, WithDataPath(dataPath))
}

// Load initializes an in-memory definition. dataPath overrides its declared
// baseline and is kept for later reloads.
func (i *Inspector) Load(ctx context.Context, def *domain.Definition, dataPath string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.rt.Initialize(ctx, def, dataPath); err != nil {
		return err
	}
	i.dataPath = dataPath
	return nil
}

// DataPath returns the baseline override of the loaded definition, if any.
func (i *Inspector) DataPath() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.dataPath
}

// FireEvent sends an event to the engine.
func (i *Inspector) FireEvent(ctx context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.FireEvent(ctx, name)
}

// IsExpressionTrue evaluates a guard expression against the data model.
func (i *Inspector) IsExpressionTrue(ctx context.Context, expr string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.IsExpressionTrue(ctx, expr)
}

// AssignDataValue writes a value into the data model.
func (i *Inspector) AssignDataValue(ctx context.Context, path, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.AssignDataValue(ctx, path, value)
}

// Loaded reports whether a definition is loaded.
func (i *Inspector) Loaded() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.Loaded()
}

// Definition returns the loaded definition, or nil.
func (i *Inspector) Definition() *domain.Definition {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.Definition()
}

// AllStates returns every state id, sorted.
func (i *Inspector) AllStates() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.AllStates()
}

// StateTree returns the display tree.
func (i *Inspector) StateTree() []domain.TreeNode {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.StateTree()
}

// State returns the indexed state for id.
func (i *Inspector) State(id string) (domain.State, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.State(id)
}

// ActiveStates returns the ordered active states.
func (i *Inspector) ActiveStates() []domain.ActiveState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.ActiveStates()
}

// View returns the active states with transition enablement resolved.
func (i *Inspector) View(ctx context.Context) []domain.ActiveStateView {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.View(ctx)
}

// Values returns the data model as a flat dotted-path mapping.
func (i *Inspector) Values() map[string]any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.Values()
}

// DataItems lists the top-level data model properties.
func (i *Inspector) DataItems() []domain.DataItem {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.DataItems()
}

// Get resolves a dotted data model path.
func (i *Inspector) Get(path string) (any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rt.Get(path)
}

// Snapshot is a consistent copy of every observable output.
type Snapshot struct {
	Name    string                   `json:"name"`
	Source  string                   `json:"source,omitempty"`
	Binding string                   `json:"binding,omitempty"`
	States  []string                 `json:"states"`
	Tree    []domain.TreeNode        `json:"tree"`
	Active  []domain.ActiveStateView `json:"active"`
	Data    []domain.DataItem        `json:"data"`
}

// Snapshot captures all outputs under one lock. It returns domain.ErrNotLoaded
// when nothing is loaded.
func (i *Inspector) Snapshot(ctx context.Context) (Snapshot, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.rt.Loaded() {
		return Snapshot{}, domain.ErrNotLoaded
	}
	def := i.rt.Definition()
	return Snapshot{
		Name:    def.Name,
		Source:  def.Source,
		Binding: i.rt.BindingName(),
		States:  i.rt.AllStates(),
		Tree:    i.rt.StateTree(),
		Active:  i.rt.View(ctx),
		Data:    i.rt.DataItems(),
	}, nil
}

// Recent returns the recently opened definitions, newest first.
func (i *Inspector) Recent(ctx context.Context) ([]string, error) {
	return i.list.Entries(ctx)
}

// Watch returns a channel receiving every notification until ctx is done.
func (i *Inspector) Watch(ctx context.Context) <-chan domain.Notification {
	ch := make(chan domain.Notification, watchBuffer)
	i.subsMu.Lock()
	i.subs[ch] = struct{}{}
	i.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		i.subsMu.Lock()
		delete(i.subs, ch)
		close(ch)
		i.subsMu.Unlock()
	}()
	return ch
}

func (i *Inspector) broadcast(_ context.Context, n domain.Notification) {
	i.subsMu.Lock()
	defer i.subsMu.Unlock()
	for ch := range i.subs {
		select {
		case ch <- n:
		default:
			i.logger.Debug("dropping notification for slow subscriber", "kind", n.Kind)
		}
	}
}
