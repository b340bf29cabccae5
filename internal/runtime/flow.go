package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/pageflow/internal/datasource"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

// Decision is the per-page outcome of flow evaluation.
type Decision struct {
	ShouldRender bool
	// Target is the next page index; nil ends the sequence.
	Target  *int
	Entries []domain.SequenceEntry
}

// EvaluatePage runs the flow evaluator on a single page, outside of any
// sequence. The page's Index is used as given.
func (e *Engine) EvaluatePage(ctx context.Context, page domain.Page, data vars.Context) (Decision, domain.Diagnostics) {
	r := e.newRun()
	d := e.evaluatePage(ctx, r, page, data)
	return d, r.diag
}

func (e *Engine) evaluatePage(ctx context.Context, r *run, page domain.Page, data vars.Context) Decision {
	flow := page.Flow
	if flow == nil {
		return render(nil, entry(page, 0, data))
	}

	switch page.FlowType() {
	case domain.FlowSimple:
		return render(flow.StartPageIndex, entry(page, 0, data))
	case domain.FlowConditional:
		return e.evaluateConditional(ctx, r, page, data)
	case domain.FlowRepeated:
		return e.evaluateRepeated(ctx, r, page, data)
	default:
		e.record(ctx, r, domain.NewFlowError(domain.KindConfiguration, page.Index,
			fmt.Sprintf("unknown flow type %q", flow.Type), nil))
		return Decision{}
	}
}

func render(target *int, entries ...domain.SequenceEntry) Decision {
	return Decision{
		ShouldRender: len(entries) > 0,
		Target:       target,
		Entries:      entries,
	}
}

func entry(page domain.Page, iteration int, bound vars.Context) domain.SequenceEntry {
	return domain.SequenceEntry{
		PageIndex:      page.Index,
		PageName:       page.Name,
		IterationIndex: iteration,
		BoundContext:   bound,
	}
}

// evaluateConditional picks the first matching condition in declared order.
// Conditions that fail to evaluate are recorded and count as not matched.
func (e *Engine) evaluateConditional(ctx context.Context, r *run, page domain.Page, data vars.Context) Decision {
	flow := page.Flow
	for i, cond := range flow.Conditions {
		matched, err := e.evaluateCondition(ctx, r, page.Index, cond, data)
		if err != nil {
			e.record(ctx, r, err.AtCondition(i))
			continue
		}
		if matched {
			e.logStep(r, page.Index, "condition matched", map[string]any{
				"condition": i,
				"kind":      string(cond.Kind),
				"target":    targetAttr(cond.StartPageIndex),
			})
			return render(cond.StartPageIndex, entry(page, 0, data))
		}
	}

	if flow.DefaultStartPageIndex != nil {
		e.logStep(r, page.Index, "no condition matched, using default", map[string]any{
			"target": *flow.DefaultStartPageIndex,
		})
		return render(flow.DefaultStartPageIndex, entry(page, 0, data))
	}

	e.logStep(r, page.Index, "no condition matched", nil)
	return Decision{}
}

func (e *Engine) evaluateCondition(ctx context.Context, r *run, pageIndex int, cond domain.Condition, data vars.Context) (bool, *domain.FlowError) {
	if cond.Kind != domain.ConditionScript {
		ok, err := e.conditions.Evaluate(cond, data)
		if err != nil {
			return false, domain.NewFlowError(domain.KindEvaluation, pageIndex, "condition failed", err)
		}
		return ok, nil
	}

	res := e.sandbox.Evaluate(ctx, cond.Script, data)
	for _, w := range res.Warnings {
		e.logStep(r, pageIndex, "script warning", map[string]any{"warning": w})
	}
	if !res.Success {
		return false, domain.NewFlowError(res.Kind(), pageIndex, "script condition failed", res.Err)
	}
	return res.Value, nil
}

// evaluateRepeated renders the page once per data item, up to
// min(len(items), flow.MaxIterations, global ceiling).
func (e *Engine) evaluateRepeated(ctx context.Context, r *run, page domain.Page, data vars.Context) Decision {
	flow := page.Flow
	if flow.DataSource == nil {
		e.record(ctx, r, domain.NewFlowError(domain.KindUnresolvedDataSource, page.Index, "repeated page has no data source", nil))
		return Decision{Target: flow.StartPageIndex}
	}

	items, err := datasource.Resolve(*flow.DataSource, data)
	if err != nil {
		e.record(ctx, r, domain.NewFlowError(domain.KindUnresolvedDataSource, page.Index,
			fmt.Sprintf("%s %q", flow.DataSource.Kind, flow.DataSource.Path), err))
		return Decision{Target: flow.StartPageIndex}
	}

	limit := e.maxIterations
	if flow.MaxIterations > 0 && flow.MaxIterations < limit {
		limit = flow.MaxIterations
	}
	n := min(len(items), limit)
	if n < len(items) {
		e.logStep(r, page.Index, "repetition truncated", map[string]any{
			"items": len(items),
			"limit": limit,
		})
	}

	itemName, indexName := flow.ItemName(), flow.IndexName()
	entries := make([]domain.SequenceEntry, 0, n)
	for i := 0; i < n; i++ {
		bound := data.With(itemName, items[i]).With(indexName, i)
		entries = append(entries, entry(page, i, bound))
	}
	return render(flow.StartPageIndex, entries...)
}

func targetAttr(target *int) any {
	if target == nil {
		return nil
	}
	return *target
}
