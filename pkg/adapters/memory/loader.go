package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Loader implements ports.TemplateLoader using an in-memory JSON document.
// Every Load decodes a fresh copy, so callers cannot mutate the stored template.
type Loader struct {
	raw []byte
}

// NewLoader creates a new MemoryLoader with the provided raw data (JSON).
func NewLoader(data []byte) *Loader {
	raw := make([]byte, len(data))
	copy(raw, data)
	return &Loader{raw: raw}
}

// NewFromPages creates a new MemoryLoader from domain objects.
// This handles serialization automatically, improving DX for tests.
func NewFromPages(name string, pages ...domain.Page) (*Loader, error) {
	raw, err := json.Marshal(domain.Template{Name: name, Pages: pages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template %s: %w", name, err)
	}
	return &Loader{raw: raw}, nil
}

// Load decodes the stored template.
func (l *Loader) Load(_ context.Context) (*domain.Template, error) {
	if len(l.raw) == 0 {
		return nil, domain.ErrTemplateNotFound
	}
	var tpl domain.Template
	if err := json.Unmarshal(l.raw, &tpl); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	for i := range tpl.Pages {
		tpl.Pages[i].Index = i
	}
	return &tpl, nil
}
