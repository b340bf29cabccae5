package ports

import (
	"context"

	"github.com/aretw0/pageflow/pkg/domain"
)

// SequenceEngine is the surface the transport adapters (HTTP, MCP) drive.
// Engines are stateless across calls.
type SequenceEngine interface {
	// Generate computes the page sequence of tpl for data, starting at start.
	// Flow problems are reported in the result's diagnostics; the error is
	// reserved for infrastructure failures such as the cache.
	Generate(ctx context.Context, tpl *domain.Template, data map[string]any, start int) (domain.Result, error)

	// Validate checks tpl without generating anything.
	Validate(tpl *domain.Template, start int) *domain.Report
}
