package domain

import "strconv"

// Page is one template page as seen by the flow engine.
// Element content is owned by the host renderer and never reaches the engine.
type Page struct {
	// Index is the position of the page inside its template.
	// The slice position is authoritative: the engine overwrites Index before use.
	Index int    `json:"index" yaml:"index" mapstructure:"index" validate:"gte=0"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	// Flow decides whether the page renders and where control goes next.
	// A nil Flow behaves as a simple flow with no target (the sequence ends here).
	Flow *FlowConfig `json:"flow,omitempty" yaml:"flow,omitempty" mapstructure:"flow"`
}

// Template is an ordered, read-only set of pages.
type Template struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Pages []Page `json:"pages" yaml:"pages" mapstructure:"pages" validate:"dive"`
}

// Label returns a human-readable identifier for logs and diagrams.
func (p Page) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return "page-" + strconv.Itoa(p.Index)
}

// FlowType returns the effective flow type of the page.
func (p Page) FlowType() FlowType {
	if p.Flow == nil || p.Flow.Type == "" {
		return FlowSimple
	}
	return p.Flow.Type
}

// Ref returns a pointer to a page index, for building flow configs in code.
func Ref(index int) *int {
	return &index
}
