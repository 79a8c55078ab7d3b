package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/internal/config"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// InspectorOptions holds what every command needs to build an Inspector.
type InspectorOptions struct {
	Config config.Config
	Logger *slog.Logger
	Debug  bool
	// Registry receives the metrics collectors; nil disables metrics.
	Registry prometheus.Registerer
}

// NewInspector builds an Inspector following the configured recent store,
// debug hooks and metrics.
func NewInspector(opts InspectorOptions) (*wizvis.Inspector, error) {
	store, err := opts.Config.Recent.Store()
	if err != nil {
		return nil, fmt.Errorf("error creating recent store: %w", err)
	}

	var hooks []domain.LifecycleHooks
	if opts.Debug && opts.Logger != nil {
		hooks = append(hooks, DebugHooks(opts.Logger))
	}
	if opts.Registry != nil {
		m, err := observability.NewMetrics(opts.Registry)
		if err != nil {
			return nil, fmt.Errorf("error registering metrics: %w", err)
		}
		hooks = append(hooks, m.Hooks())
	}

	inspectorOpts := []wizvis.Option{
		wizvis.WithRecentStore(store),
		wizvis.WithRecentLimit(opts.Config.Recent.Limit),
		wizvis.WithLifecycleHooks(domain.ChainHooks(hooks...)),
	}
	if opts.Logger != nil {
		inspectorOpts = append(inspectorOpts, wizvis.WithLogger(opts.Logger))
	}
	return wizvis.New(inspectorOpts...), nil
}
