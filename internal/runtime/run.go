package runtime

import (
	"context"

	"github.com/aretw0/pageflow/pkg/domain"
)

// run is the per-call state of one generation. It never outlives the call.
type run struct {
	id   string
	diag domain.Diagnostics
}

func (e *Engine) newRun() *run {
	return &run{id: e.newRunID()}
}

// logStep appends an execution-log entry when debug mode is on.
func (e *Engine) logStep(r *run, pageIndex int, message string, attrs map[string]any) {
	if !e.debug {
		return
	}
	r.diag.Log(pageIndex, message, attrs)
}

// record stores a recovered error and notifies observers.
func (e *Engine) record(ctx context.Context, r *run, err *domain.FlowError) {
	if err == nil {
		return
	}
	r.diag.Record(err)

	log := e.logger.Warn
	if err.Kind.Fatal() {
		log = e.logger.Error
	}
	log("flow error",
		"run_id", r.id,
		"kind", err.Kind,
		"page", err.PageIndex,
		"condition", err.ConditionIndex,
		"error", err)

	if e.hooks.OnFlowError != nil {
		e.hooks.OnFlowError(ctx, &domain.ErrorEvent{
			EventBase: e.eventBase(r, domain.EventFlowError),
			Err:       err,
		})
	}
}

func (e *Engine) eventBase(r *run, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.clock(),
		Type:      t,
		RunID:     r.id,
	}
}

func (e *Engine) emitPage(ctx context.Context, r *run, t domain.EventType, page domain.Page, d *Decision) {
	var hook func(context.Context, *domain.PageEvent)
	switch t {
	case domain.EventPageEnter:
		hook = e.hooks.OnPageEnter
	case domain.EventPageRendered:
		hook = e.hooks.OnPageRendered
	case domain.EventPageSkipped:
		hook = e.hooks.OnPageSkipped
	}
	if hook == nil {
		return
	}

	event := &domain.PageEvent{
		EventBase: e.eventBase(r, t),
		PageIndex: page.Index,
		PageName:  page.Name,
		FlowType:  page.FlowType(),
	}
	if d != nil {
		event.Entries = len(d.Entries)
		event.Target = d.Target
	}
	hook(ctx, event)
}
