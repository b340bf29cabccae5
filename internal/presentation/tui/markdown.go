package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
)

// SequenceMarkdown formats a generation result as a markdown document.
func SequenceMarkdown(tpl *domain.Template, res domain.Result) string {
	var sb strings.Builder

	title := tpl.Name
	if title == "" {
		title = "template"
	}
	fmt.Fprintf(&sb, "# Sequence of %s\n\n", title)

	if len(res.Sequence) == 0 {
		sb.WriteString("_No page renders for this context._\n")
	} else {
		sb.WriteString("| # | Page | Index | Iteration |\n")
		sb.WriteString("|---|------|-------|-----------|\n")
		for i, entry := range res.Sequence {
			name := entry.PageName
			if name == "" {
				name = fmt.Sprintf("page-%d", entry.PageIndex)
			}
			iteration := "-"
			if entry.PageIndex >= 0 && entry.PageIndex < len(tpl.Pages) &&
				tpl.Pages[entry.PageIndex].FlowType() == domain.FlowRepeated {
				iteration = fmt.Sprint(entry.IterationIndex)
			}
			fmt.Fprintf(&sb, "| %d | %s | %d | %s |\n", i, cell(name), entry.PageIndex, iteration)
		}
	}

	writeErrors(&sb, res.Diagnostics.ErrorLog)
	return sb.String()
}

// ReportMarkdown formats a validation report as a markdown document.
func ReportMarkdown(report *domain.Report) string {
	var sb strings.Builder
	if report.Valid() {
		sb.WriteString("# Template is valid ✅\n")
	} else {
		sb.WriteString("# Template is invalid ❌\n")
	}

	writeErrors(&sb, report.Errors)
	if len(report.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}
	if len(report.Unreachable) > 0 {
		fmt.Fprintf(&sb, "\n**Unreachable pages:** %v\n", report.Unreachable)
	}
	return sb.String()
}

func writeErrors(sb *strings.Builder, errs []*domain.FlowError) {
	if len(errs) == 0 {
		return
	}
	sb.WriteString("\n## Errors\n\n")
	for _, err := range errs {
		fmt.Fprintf(sb, "- **%s**: %s\n", err.Kind, err.Error())
	}
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
