package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
)

// Builder manages the template construction.
// Pages keep the order in which they are first added.
type Builder struct {
	name  string
	pages []*PageBuilder
	index map[string]int
}

// New creates a new template builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		index: make(map[string]int),
	}
}

// Page creates a new page in the template.
// If the page already exists, it returns the existing builder.
func (b *Builder) Page(name string) *PageBuilder {
	if i, ok := b.index[name]; ok {
		return b.pages[i]
	}
	pb := &PageBuilder{name: name}
	b.index[name] = len(b.pages)
	b.pages = append(b.pages, pb)
	return pb
}

// Template resolves page names to indices and returns the template.
func (b *Builder) Template() (*domain.Template, error) {
	tpl := &domain.Template{Name: b.name, Pages: make([]domain.Page, len(b.pages))}

	var errs []error
	for i, pb := range b.pages {
		errs = append(errs, pb.errs...)
		flow, err := pb.resolve(b.index)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %s: %w", pb.name, err))
		}
		tpl.Pages[i] = domain.Page{Index: i, Name: pb.name, Flow: flow}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tpl, nil
}

// Build compiles the template into a MemoryLoader.
func (b *Builder) Build() (*memory.Loader, error) {
	tpl, err := b.Template()
	if err != nil {
		return nil, err
	}

	loader, err := memory.NewFromPages(tpl.Name, tpl.Pages...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
