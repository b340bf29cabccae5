package ports

import (
	"context"

	"github.com/aretw0/pageflow/pkg/domain"
)

// TemplateLoader defines how the engine retrieves page templates.
// This allows the storage layer (Loam, file, memory) to be decoupled.
type TemplateLoader interface {
	// Load returns the template with its pages in declared order.
	// It returns domain.ErrTemplateNotFound when the source does not exist.
	Load(ctx context.Context) (*domain.Template, error)
}
