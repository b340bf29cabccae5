package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/pageflow/internal/compiler"
	"github.com/aretw0/pageflow/pkg/domain"
)

// Loader implements ports.TemplateLoader for a single YAML or JSON file.
type Loader struct {
	Path   string
	parser *compiler.Parser
}

// NewLoader creates a loader for the template file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path, parser: compiler.NewParser()}
}

// Load reads and decodes the file on every call.
func (l *Loader) Load(_ context.Context) (*domain.Template, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, l.Path)
		}
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	tpl, err := l.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	if tpl.Name == "" {
		base := filepath.Base(l.Path)
		tpl.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return tpl, nil
}
