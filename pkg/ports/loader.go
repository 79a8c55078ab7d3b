package ports

import (
	"context"

	"github.com/aretw0/wizvis/pkg/domain"
)

// DefinitionLoader defines how a state-chart document is read.
// Loaders resolve the baseline path of the first data element relative to the document.
type DefinitionLoader interface {
	Load(ctx context.Context, path string) (*domain.Definition, error)
}
