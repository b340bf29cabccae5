package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/pageflow/internal/compiler"
	"github.com/aretw0/pageflow/pkg/domain"
)

// Loader adapts a Loam repository of page documents to ports.TemplateLoader.
// Each document is one page; its frontmatter carries the page metadata.
type Loader struct {
	Repo   *loam.TypedRepository[PageMetadata]
	Name   string
	parser *compiler.Parser
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PageMetadata], name string) *Loader {
	return &Loader{
		Repo:   repo,
		Name:   name,
		parser: compiler.NewParser(),
	}
}

type pageDoc struct {
	id   string
	name string
	meta PageMetadata
}

// Load lists every document and orders the pages by their order field.
func (l *Loader) Load(ctx context.Context) (*domain.Template, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: repository has no page documents", domain.ErrTemplateNotFound)
	}

	seen := make(map[string]string)
	entries := make([]pageDoc, 0, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}

		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: page '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		entries = append(entries, pageDoc{id: doc.ID, name: name, meta: doc.Data})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].meta.Order != entries[j].meta.Order {
			return entries[i].meta.Order < entries[j].meta.Order
		}
		return entries[i].name < entries[j].name
	})

	tpl := &domain.Template{Name: l.Name, Pages: make([]domain.Page, len(entries))}
	for i, e := range entries {
		flow, err := l.parser.DecodeFlow(e.meta.Flow)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", e.id, err)
		}
		if flow == nil && e.meta.Next != nil {
			flow = domain.Simple(domain.Ref(*e.meta.Next))
		}
		tpl.Pages[i] = domain.Page{Index: i, Name: e.name, Flow: flow}
	}
	return tpl, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
