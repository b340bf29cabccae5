package domain

import "github.com/aretw0/pageflow/pkg/vars"

// SequenceEntry is one concrete, renderable page instance.
type SequenceEntry struct {
	PageIndex int    `json:"page_index"`
	PageName  string `json:"page_name,omitempty"`
	// IterationIndex is the repetition index for repeated pages, 0 otherwise.
	IterationIndex int `json:"iteration_index"`
	// BoundContext is the ambient context, extended with the item and index
	// bindings for repeated pages.
	BoundContext vars.Context `json:"bound_context"`
}

// Result is the outcome of one generation call.
type Result struct {
	RunID          string          `json:"run_id"`
	StartPageIndex int             `json:"start_page_index"`
	Sequence       []SequenceEntry `json:"sequence"`
	Diagnostics    Diagnostics     `json:"diagnostics"`
	// Cached is true when the result was served from a SequenceCache.
	Cached bool `json:"cached,omitempty"`
}

// PageIndices returns the page index of every entry, in order.
func (r Result) PageIndices() []int {
	out := make([]int, len(r.Sequence))
	for i, e := range r.Sequence {
		out[i] = e.PageIndex
	}
	return out
}

// Err returns the joined diagnostics errors, or nil.
func (r Result) Err() error {
	return r.Diagnostics.Err()
}
