package dsl

import (
	"fmt"

	"github.com/aretw0/pageflow/pkg/domain"
)

// End is the target name that ends the sequence.
const End = ""

// PageBuilder provides a fluent API for configuring a page's flow.
// Targets are page names, resolved when the template is built.
type PageBuilder struct {
	name string
	kind domain.FlowType

	next     string
	hasNext  bool
	branches []branch
	fallback *string

	source    *domain.DataSource
	item      string
	indexName string
	max       int

	errs []error
}

type branch struct {
	cond   domain.Condition
	target string
}

func (p *PageBuilder) setKind(kind domain.FlowType) {
	if p.kind != "" && p.kind != kind {
		p.errs = append(p.errs, fmt.Errorf("page %s: cannot mix %s and %s flows", p.name, p.kind, kind))
		return
	}
	p.kind = kind
}

// Next adds an unconditional continuation to the target page.
// On a repeated page it sets the page that follows the repetition.
func (p *PageBuilder) Next(target string) *PageBuilder {
	if p.kind == "" {
		p.kind = domain.FlowSimple
	}
	p.next = target
	p.hasNext = true
	return p
}

// When adds a variable comparison branch.
func (p *PageBuilder) When(variable string, op domain.Operator, value any, target string) *PageBuilder {
	p.setKind(domain.FlowConditional)
	p.branches = append(p.branches, branch{cond: domain.When(variable, op, value, nil), target: target})
	return p
}

// WhenScript adds a script branch.
func (p *PageBuilder) WhenScript(script string, target string) *PageBuilder {
	p.setKind(domain.FlowConditional)
	p.branches = append(p.branches, branch{cond: domain.WhenScript(script, nil), target: target})
	return p
}

// WhenExists adds an existence branch.
func (p *PageBuilder) WhenExists(variable string, target string) *PageBuilder {
	p.setKind(domain.FlowConditional)
	p.branches = append(p.branches, branch{cond: domain.WhenExists(variable, nil), target: target})
	return p
}

// Otherwise sets the target used when no branch matches.
func (p *PageBuilder) Otherwise(target string) *PageBuilder {
	p.setKind(domain.FlowConditional)
	p.fallback = &target
	return p
}

// Repeat renders the page once per element of the data source.
func (p *PageBuilder) Repeat(kind domain.DataSourceKind, path string) *PageBuilder {
	p.setKind(domain.FlowRepeated)
	p.source = &domain.DataSource{Kind: kind, Path: path}
	return p
}

// As names the item and index bindings of a repeated page.
func (p *PageBuilder) As(item, index string) *PageBuilder {
	p.item, p.indexName = item, index
	return p
}

// Max caps the repetition count.
func (p *PageBuilder) Max(n int) *PageBuilder {
	p.max = n
	return p
}

// Terminal marks the page as the end of the sequence.
func (p *PageBuilder) Terminal() *PageBuilder {
	p.kind = ""
	p.hasNext = false
	p.branches = nil
	p.fallback = nil
	p.source = nil
	return p
}

func (p *PageBuilder) resolve(index map[string]int) (*domain.FlowConfig, error) {
	ref := func(name string) (*int, error) {
		if name == End {
			return nil, nil
		}
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("unknown target page %q", name)
		}
		return domain.Ref(i), nil
	}

	var next *int
	if p.hasNext {
		var err error
		if next, err = ref(p.next); err != nil {
			return nil, err
		}
	}

	switch p.kind {
	case "":
		return nil, nil
	case domain.FlowSimple:
		return domain.Simple(next), nil
	case domain.FlowRepeated:
		flow := domain.Repeated(*p.source, p.max, next)
		flow.ItemVariableName = p.item
		flow.IndexVariableName = p.indexName
		return flow, nil
	}

	flow := domain.Conditional(nil)
	for _, br := range p.branches {
		target, err := ref(br.target)
		if err != nil {
			return nil, err
		}
		cond := br.cond
		cond.StartPageIndex = target
		flow.Conditions = append(flow.Conditions, cond)
	}
	if p.fallback != nil {
		target, err := ref(*p.fallback)
		if err != nil {
			return nil, err
		}
		flow.DefaultStartPageIndex = target
	}
	return flow, nil
}
