package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/pageflow/pkg/domain"
)

// LoadContext reads a data context from a YAML or JSON file.
// "-" reads from stdin; an empty path yields an empty context.
func LoadContext(path string, stdin io.Reader) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}

	out := map[string]any{}
	// YAML is a superset of JSON.
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	return out, nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSequence writes one line per sequence entry, followed by the errors.
func PrintSequence(w io.Writer, tpl *domain.Template, res domain.Result) {
	for i, entry := range res.Sequence {
		var page domain.Page
		if entry.PageIndex >= 0 && entry.PageIndex < len(tpl.Pages) {
			page = tpl.Pages[entry.PageIndex]
		}
		label := entry.PageName
		if label == "" {
			label = page.Label()
		}
		if page.FlowType() == domain.FlowRepeated {
			fmt.Fprintf(w, "%3d  %-20s [%d]\n", i, label, entry.IterationIndex)
			continue
		}
		fmt.Fprintf(w, "%3d  %s\n", i, label)
	}
	PrintErrors(w, res.Diagnostics.ErrorLog)
}

// PrintReport writes a validation report in human-readable form.
func PrintReport(w io.Writer, report *domain.Report) {
	PrintErrors(w, report.Errors)
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if len(report.Unreachable) > 0 {
		fmt.Fprintf(w, "unreachable pages: %v\n", report.Unreachable)
	}
}

// PrintErrors writes one line per flow error.
func PrintErrors(w io.Writer, errs []*domain.FlowError) {
	for _, err := range errs {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}
