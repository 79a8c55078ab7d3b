package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// Loader implements ports.DefinitionLoader over definitions registered in memory.
// Useful for testing and for charts built in code.
type Loader struct {
	mu   sync.RWMutex
	defs map[string]*domain.Definition
}

var _ ports.DefinitionLoader = (*Loader)(nil)

// NewLoader creates a loader serving the given definitions keyed by path.
func NewLoader(defs map[string]*domain.Definition) *Loader {
	l := &Loader{defs: make(map[string]*domain.Definition, len(defs))}
	for path, def := range defs {
		l.defs[path] = def
	}
	return l
}

// Add registers def under path, replacing any previous definition.
func (l *Loader) Add(path string, def *domain.Definition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[path] = def
}

// Load returns a shallow copy of the definition registered under path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	def, ok := l.defs[path]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("definition %s: %w", path, os.ErrNotExist)
	}

	out := *def
	out.Source = path
	return &out, nil
}
