package loam

// PageMetadata represents the frontmatter of a page document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type PageMetadata struct {
	// Name defaults to the document ID without its extension.
	Name string `json:"name" mapstructure:"name"`
	// Order positions the page inside the template. Ties are broken by name.
	Order int `json:"order" mapstructure:"order"`
	// Next is shorthand for a simple flow targeting the page at that position.
	Next *int `json:"next,omitempty" mapstructure:"next"`
	// Flow is decoded into a domain.FlowConfig.
	Flow map[string]any `json:"flow" mapstructure:"flow"`
}
