package domain

// FlowType selects the variant of a FlowConfig.
type FlowType string

const (
	// FlowSimple always renders and always continues to StartPageIndex.
	FlowSimple FlowType = "simple"
	// FlowConditional renders when a condition (or the default) resolves a target.
	FlowConditional FlowType = "conditional"
	// FlowRepeated renders the page once per element of a data array.
	FlowRepeated FlowType = "repeated"
)

// FlowConfig is the branching/repetition policy attached to a page.
// It is a tagged variant: which fields apply depends on Type.
//
// Page indices are pointers. A nil index means "no target", which ends the
// sequence. Negative indices are accepted as explicit end markers.
type FlowConfig struct {
	Type FlowType `json:"type" yaml:"type" mapstructure:"type" validate:"omitempty,oneof=simple conditional repeated"`

	// StartPageIndex is the target of simple and repeated flows.
	StartPageIndex *int `json:"start_page_index,omitempty" yaml:"start_page_index,omitempty" mapstructure:"start_page_index"`

	// Conditions are evaluated in declared order; the first match wins.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions" validate:"dive"`
	// DefaultStartPageIndex is used when no condition matches.
	DefaultStartPageIndex *int `json:"default_start_page_index,omitempty" yaml:"default_start_page_index,omitempty" mapstructure:"default_start_page_index"`

	// Repetition settings.
	DataSource        *DataSource `json:"data_source,omitempty" yaml:"data_source,omitempty" mapstructure:"data_source" validate:"required_if=Type repeated"`
	ItemVariableName  string      `json:"item_variable_name,omitempty" yaml:"item_variable_name,omitempty" mapstructure:"item_variable_name"`
	IndexVariableName string      `json:"index_variable_name,omitempty" yaml:"index_variable_name,omitempty" mapstructure:"index_variable_name"`
	// MaxIterations caps the repetition count. Zero or negative means the global ceiling.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" mapstructure:"max_iterations"`
}

// DataSourceKind selects how a DataSource path is interpreted.
type DataSourceKind string

const (
	DataSourceVariable   DataSourceKind = "variable"
	DataSourceArrayPath  DataSourceKind = "array_path"
	DataSourceObjectPath DataSourceKind = "object_path"
)

// DataSource identifies which context value supplies iteration items.
// Object-path sources iterate the values of a mapping.
type DataSource struct {
	Kind DataSourceKind `json:"kind" yaml:"kind" mapstructure:"kind" validate:"required,oneof=variable array_path object_path"`
	Path string         `json:"path" yaml:"path" mapstructure:"path" validate:"required"`
}

// ItemName returns the configured item binding, or the default.
func (f FlowConfig) ItemName() string {
	if f.ItemVariableName != "" {
		return f.ItemVariableName
	}
	return DefaultItemVariable
}

// IndexName returns the configured index binding, or the default.
func (f FlowConfig) IndexName() string {
	if f.IndexVariableName != "" {
		return f.IndexVariableName
	}
	return DefaultIndexVariable
}

// Targets lists every page index this flow can branch to, in declaration order.
// Nil targets are skipped.
func (f FlowConfig) Targets() []int {
	var out []int
	add := func(p *int) {
		if p != nil {
			out = append(out, *p)
		}
	}
	switch f.Type {
	case FlowConditional:
		for _, c := range f.Conditions {
			add(c.StartPageIndex)
		}
		add(f.DefaultStartPageIndex)
	default:
		add(f.StartPageIndex)
	}
	return out
}

// Simple builds a simple flow targeting next.
func Simple(next *int) *FlowConfig {
	return &FlowConfig{Type: FlowSimple, StartPageIndex: next}
}

// Conditional builds a conditional flow.
func Conditional(fallback *int, conditions ...Condition) *FlowConfig {
	return &FlowConfig{Type: FlowConditional, Conditions: conditions, DefaultStartPageIndex: fallback}
}

// Repeated builds a repeated flow over source.
func Repeated(source DataSource, maxIterations int, next *int) *FlowConfig {
	return &FlowConfig{
		Type:           FlowRepeated,
		DataSource:     &source,
		MaxIterations:  maxIterations,
		StartPageIndex: next,
	}
}
