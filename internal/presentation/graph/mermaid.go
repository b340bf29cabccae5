package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
)

// GraphOverlay contains the result of a run to visualize on the graph.
type GraphOverlay struct {
	// VisitedPages are the pages rendered at least once.
	VisitedPages []int
	// FailedPages are the pages an error was recorded on.
	FailedPages []int
}

// OverlayFromResult builds an overlay from a generation result.
func OverlayFromResult(res domain.Result) *GraphOverlay {
	o := &GraphOverlay{VisitedPages: res.PageIndices()}
	for _, err := range res.Diagnostics.ErrorLog {
		if err.PageIndex >= 0 {
			o.FailedPages = append(o.FailedPages, err.PageIndex)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a page set.
// It applies semantic styling:
// - Start page: ((Circle))
// - Conditional: {Rhombus}
// - Repeated: [[Subroutine]]
// - Default: [Rectangle]
// Sequence-ending targets (nil or negative) point at a shared end node.
func GenerateMermaid(pages []domain.Page, start int, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	needsEnd := false
	for i, page := range pages {
		page.Index = i
		id := pageID(i)

		opener, closer := "[", "]"
		switch {
		case i == start:
			opener, closer = "((", "))"
		case page.FlowType() == domain.FlowConditional:
			opener, closer = "{", "}"
		case page.FlowType() == domain.FlowRepeated:
			opener, closer = "[[", "]]"
		}

		label := escape(page.Label())
		if page.FlowType() == domain.FlowRepeated && page.Flow != nil && page.Flow.DataSource != nil {
			label = fmt.Sprintf("%s <br/> ↻ %s", label, escape(page.Flow.DataSource.Path))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer))

		for _, e := range edges(page, len(pages)) {
			if e.to == "" {
				needsEnd = true
				e.to = "end_node"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", id, e.arrow, e.to))
		}
	}
	if needsEnd {
		sb.WriteString("    end_node((\"end\"))\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")
		writeClass(&sb, overlay.VisitedPages, len(pages), "visited")
		writeClass(&sb, overlay.FailedPages, len(pages), "failed")
	}

	return sb.String()
}

type edge struct {
	arrow string
	// to is empty for the end node.
	to string
}

func edges(page domain.Page, count int) []edge {
	flow := page.Flow
	if flow == nil {
		return []edge{{arrow: "-->"}}
	}

	target := func(p *int) (string, bool) {
		if p == nil || *p < 0 {
			return "", true
		}
		if *p >= count {
			return "", false
		}
		return pageID(*p), true
	}

	var out []edge
	switch page.FlowType() {
	case domain.FlowConditional:
		for _, c := range flow.Conditions {
			if to, ok := target(c.StartPageIndex); ok {
				out = append(out, edge{arrow: fmt.Sprintf("-- \"%s\" -->", escape(conditionLabel(c))), to: to})
			}
		}
		if flow.DefaultStartPageIndex != nil {
			if to, ok := target(flow.DefaultStartPageIndex); ok {
				out = append(out, edge{arrow: "-. \"default\" .->", to: to})
			}
		}
	default:
		if to, ok := target(flow.StartPageIndex); ok {
			out = append(out, edge{arrow: "-->", to: to})
		}
	}
	return out
}

var operatorSymbols = map[domain.Operator]string{
	domain.OpEquals:             "==",
	domain.OpNotEquals:          "!=",
	domain.OpGreaterThan:        ">",
	domain.OpLessThan:           "<",
	domain.OpGreaterThanOrEqual: ">=",
	domain.OpLessThanOrEqual:    "<=",
}

func conditionLabel(c domain.Condition) string {
	switch c.Kind {
	case domain.ConditionScript:
		return c.Script
	case domain.ConditionExists:
		return c.Variable + " exists"
	}
	op := domain.NormalizeOperator(string(c.Operator))
	switch op {
	case domain.OpIsEmpty, domain.OpIsNotEmpty:
		return fmt.Sprintf("%s %s", c.Variable, op)
	}
	if sym, ok := operatorSymbols[op]; ok {
		return fmt.Sprintf("%s %s %v", c.Variable, sym, c.Value)
	}
	return fmt.Sprintf("%s %s %v", c.Variable, op, c.Value)
}

func writeClass(sb *strings.Builder, pages []int, count int, class string) {
	seen := make(map[int]bool)
	for _, i := range pages {
		if i < 0 || i >= count || seen[i] {
			continue
		}
		seen[i] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", pageID(i), class))
	}
}

func pageID(i int) string {
	return fmt.Sprintf("p%d", i)
}

// escape keeps labels inside Mermaid double quotes.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
