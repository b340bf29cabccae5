package compiler

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

// Parser is responsible for converting raw documents into page templates.
// YAML and JSON are both accepted.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a whole template document.
func (p *Parser) Parse(data []byte) (*domain.Template, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse template: empty document")
	}
	return p.DecodeTemplate(raw)
}

// DecodeTemplate decodes an already unmarshaled template document.
func (p *Parser) DecodeTemplate(raw map[string]any) (*domain.Template, error) {
	var tpl domain.Template
	if err := decode(raw, &tpl); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}

	pages, _ := raw["pages"].([]any)
	for i := range tpl.Pages {
		tpl.Pages[i].Index = i
		if i < len(pages) {
			if m, ok := pages[i].(map[string]any); ok {
				if err := applyNext(&tpl.Pages[i], m); err != nil {
					return nil, fmt.Errorf("failed to decode page %d: %w", i, err)
				}
			}
		}
		finish(tpl.Pages[i].Flow)
	}
	return &tpl, nil
}

// DecodeFlow decodes one flow config, as found in page frontmatter.
// A nil or empty map yields a nil flow.
func (p *Parser) DecodeFlow(raw map[string]any) (*domain.FlowConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var flow domain.FlowConfig
	if err := decode(raw, &flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}
	finish(&flow)
	return &flow, nil
}

// applyNext expands the page-level "next: N" shorthand into a simple flow.
func applyNext(page *domain.Page, raw map[string]any) error {
	if page.Flow != nil {
		return nil
	}
	next, ok := raw["next"]
	if !ok || next == nil {
		return nil
	}
	var target int
	if err := decode(next, &target); err != nil {
		return fmt.Errorf("invalid next %v: %w", next, err)
	}
	page.Flow = domain.Simple(domain.Ref(target))
	return nil
}

// finish canonicalizes operators and condition values.
func finish(flow *domain.FlowConfig) {
	if flow == nil {
		return
	}
	for i := range flow.Conditions {
		c := &flow.Conditions[i]
		if c.Operator != "" {
			c.Operator = domain.NormalizeOperator(string(c.Operator))
		}
		c.Value = vars.Normalize(c.Value)
	}
}

func decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
