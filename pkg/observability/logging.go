package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pageflow/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageEnter: func(ctx context.Context, e *domain.PageEvent) {
			logger.DebugContext(ctx, "page_enter",
				"run_id", e.RunID,
				"page", e.PageIndex,
				"flow_type", e.FlowType)
		},
		OnPageRendered: func(ctx context.Context, e *domain.PageEvent) {
			logger.InfoContext(ctx, "page_rendered",
				"run_id", e.RunID,
				"page", e.PageIndex,
				"name", e.PageName,
				"entries", e.Entries)
		},
		OnPageSkipped: func(ctx context.Context, e *domain.PageEvent) {
			logger.InfoContext(ctx, "page_skipped",
				"run_id", e.RunID,
				"page", e.PageIndex,
				"name", e.PageName)
		},
		OnFlowError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "flow_error",
				"run_id", e.RunID,
				"kind", e.Err.Kind,
				"page", e.Err.PageIndex,
				"error", e.Err)
		},
		OnSequenceDone: func(ctx context.Context, e *domain.SequenceEvent) {
			logger.InfoContext(ctx, "sequence_done",
				"run_id", e.RunID,
				"start", e.StartPageIndex,
				"entries", e.Entries,
				"errors", e.Errors,
				"cached", e.Cached)
		},
	}
}
