package runtime

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/pageflow/internal/validator"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

// Generate computes the ordered sequence of page instances starting at start.
//
// Page-local failures are recorded and generation continues. A revisited page
// (CircularReferenceError) or the visit ceiling (IterationLimitExceeded) stops
// generation; the partial sequence is returned with the error. Generate never
// panics and never returns a nil Sequence.
func (e *Engine) Generate(ctx context.Context, pages []domain.Page, data vars.Context, start int) (res domain.Result) {
	r := e.newRun()
	ctx, span := e.tracer.Start(ctx, "pageflow.generate", trace.WithAttributes(
		attribute.String("pageflow.run_id", r.id),
		attribute.Int("pageflow.pages", len(pages)),
		attribute.Int("pageflow.start", start),
	))
	defer span.End()

	res = domain.Result{
		RunID:          r.id,
		StartPageIndex: start,
		Sequence:       []domain.SequenceEntry{},
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.record(ctx, r, domain.NewFlowError(domain.KindEvaluation, -1, fmt.Sprintf("internal panic: %v", rec), nil))
		}
		res.Diagnostics = r.diag
		e.finishSpan(span, res)
		if e.hooks.OnSequenceDone != nil {
			e.hooks.OnSequenceDone(ctx, domain.NewSequenceEvent(res))
		}
	}()

	pages = snapshot(pages)
	report := validator.Validate(pages)
	for _, err := range report.Errors {
		e.record(ctx, r, err)
	}

	if start < 0 || start >= len(pages) {
		if start >= len(pages) {
			e.record(ctx, r, domain.NewFlowError(domain.KindConfiguration, -1,
				fmt.Sprintf("start page index %d out of range (%d pages)", start, len(pages)), nil))
		}
		return res
	}

	visited := make(map[int]bool)
	current := start
	visits := 0
	for {
		if visits >= e.maxIterations {
			e.record(ctx, r, domain.NewFlowError(domain.KindIterationLimit, current,
				fmt.Sprintf("visit ceiling of %d reached", e.maxIterations), nil))
			break
		}
		visits++
		visited[current] = true
		page := pages[current]

		e.emitPage(ctx, r, domain.EventPageEnter, page, nil)
		var d Decision
		if report.IsRejected(current) {
			e.logStep(r, current, "flow config rejected, page skipped", nil)
		} else {
			d = e.evaluatePage(ctx, r, page, data)
		}

		if d.ShouldRender {
			res.Sequence = append(res.Sequence, d.Entries...)
			e.emitPage(ctx, r, domain.EventPageRendered, page, &d)
		} else {
			e.emitPage(ctx, r, domain.EventPageSkipped, page, &d)
		}
		e.logStep(r, current, "page visited", map[string]any{
			"rendered": d.ShouldRender,
			"entries":  len(d.Entries),
			"target":   targetAttr(d.Target),
		})
		e.logger.Debug("page visited",
			"run_id", r.id,
			"page", current,
			"rendered", d.ShouldRender,
			"entries", len(d.Entries))

		next, ok := nextIndex(d.Target, len(pages))
		if !ok {
			e.logStep(r, current, "sequence terminated", nil)
			break
		}
		if visited[next] {
			e.record(ctx, r, domain.NewFlowError(domain.KindCircularReference, current,
				fmt.Sprintf("page %d was already visited", next), nil))
			break
		}
		current = next
	}

	span.SetAttributes(attribute.Int("pageflow.visits", visits))
	return res
}

// snapshot copies the page slice and makes Index positional.
func snapshot(pages []domain.Page) []domain.Page {
	out := make([]domain.Page, len(pages))
	copy(out, pages)
	for i := range out {
		out[i].Index = i
	}
	return out
}

// nextIndex reports the page to continue with. Nil, negative and
// out-of-range targets end the sequence.
func nextIndex(target *int, count int) (int, bool) {
	if target == nil || *target < 0 || *target >= count {
		return 0, false
	}
	return *target, true
}

func (e *Engine) finishSpan(span trace.Span, res domain.Result) {
	span.SetAttributes(
		attribute.Int("pageflow.entries", len(res.Sequence)),
		attribute.Int("pageflow.errors", len(res.Diagnostics.ErrorLog)),
	)
	for _, err := range res.Diagnostics.ErrorLog {
		if err.Kind.Fatal() {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(err.Kind))
			return
		}
	}
}
