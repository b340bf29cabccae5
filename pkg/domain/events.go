package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPageEnter    EventType = "page_enter"
	EventPageRendered EventType = "page_rendered"
	EventPageSkipped  EventType = "page_skipped"
	EventFlowError    EventType = "flow_error"
	EventSequenceDone EventType = "sequence_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// PageEvent describes one page visit.
type PageEvent struct {
	EventBase
	PageIndex int      `json:"page_index"`
	PageName  string   `json:"page_name,omitempty"`
	FlowType  FlowType `json:"flow_type"`
	// Entries is the number of sequence entries the visit produced.
	Entries int `json:"entries"`
	// Target is the next page index, nil when the sequence ends.
	Target *int `json:"target,omitempty"`
}

// ErrorEvent wraps a recorded FlowError.
type ErrorEvent struct {
	EventBase
	Err *FlowError `json:"error"`
}

// SequenceEvent summarizes a finished generation call.
type SequenceEvent struct {
	EventBase
	StartPageIndex int `json:"start_page_index"`
	Entries        int `json:"entries"`
	Errors         int `json:"errors"`
	// Cached is true when the result was served from a SequenceCache and no
	// page hook fired for it.
	Cached bool `json:"cached,omitempty"`
}

// NewSequenceEvent summarizes res.
func NewSequenceEvent(res Result) *SequenceEvent {
	return &SequenceEvent{
		EventBase: EventBase{
			Timestamp: time.Now(),
			Type:      EventSequenceDone,
			RunID:     res.RunID,
		},
		StartPageIndex: res.StartPageIndex,
		Entries:        len(res.Sequence),
		Errors:         len(res.Diagnostics.ErrorLog),
		Cached:         res.Cached,
	}
}

// LifecycleHooks defines callbacks for engine observability.
// Every hook is optional and runs synchronously on the generating goroutine.
type LifecycleHooks struct {
	OnPageEnter    func(context.Context, *PageEvent)
	OnPageRendered func(context.Context, *PageEvent)
	OnPageSkipped  func(context.Context, *PageEvent)
	OnFlowError    func(context.Context, *ErrorEvent)
	OnSequenceDone func(context.Context, *SequenceEvent)
}

// Combine returns hooks that call h first and then other.
func (h LifecycleHooks) Combine(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPageEnter:    chainPage(h.OnPageEnter, other.OnPageEnter),
		OnPageRendered: chainPage(h.OnPageRendered, other.OnPageRendered),
		OnPageSkipped:  chainPage(h.OnPageSkipped, other.OnPageSkipped),
		OnFlowError:    chainError(h.OnFlowError, other.OnFlowError),
		OnSequenceDone: chainSequence(h.OnSequenceDone, other.OnSequenceDone),
	}
}

func chainPage(a, b func(context.Context, *PageEvent)) func(context.Context, *PageEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *PageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainError(a, b func(context.Context, *ErrorEvent)) func(context.Context, *ErrorEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ErrorEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainSequence(a, b func(context.Context, *SequenceEvent)) func(context.Context, *SequenceEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SequenceEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
