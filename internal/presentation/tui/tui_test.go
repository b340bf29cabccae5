package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/pkg/domain"
)

func sampleTemplate() *domain.Template {
	return &domain.Template{Name: "invoice", Pages: []domain.Page{
		{Name: "cover"},
		{Name: "lines", Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "items"}, 0, nil)},
	}}
}

func TestSequenceMarkdown(t *testing.T) {
	res := domain.Result{
		Sequence: []domain.SequenceEntry{
			{PageIndex: 0, PageName: "cover"},
			{PageIndex: 1, PageName: "lines", IterationIndex: 0},
			{PageIndex: 1, PageName: "lines", IterationIndex: 1},
		},
		Diagnostics: domain.Diagnostics{ErrorLog: []*domain.FlowError{
			domain.NewFlowError(domain.KindIterationLimit, 1, "visit ceiling of 3 reached", nil),
		}},
	}

	md := SequenceMarkdown(sampleTemplate(), res)
	assert.Contains(t, md, "# Sequence of invoice")
	assert.Contains(t, md, "| 0 | cover | 0 | - |")
	assert.Contains(t, md, "| 2 | lines | 1 | 1 |")
	assert.Contains(t, md, "## Errors")
	assert.Contains(t, md, "**IterationLimitExceeded**")
}

func TestSequenceMarkdown_Empty(t *testing.T) {
	md := SequenceMarkdown(&domain.Template{}, domain.Result{})
	assert.Contains(t, md, "No page renders")
	assert.NotContains(t, md, "## Errors")
}

func TestReportMarkdown(t *testing.T) {
	ok := ReportMarkdown(&domain.Report{Unreachable: []int{2}})
	assert.Contains(t, ok, "valid ✅")
	assert.Contains(t, ok, "**Unreachable pages:** [2]")

	bad := ReportMarkdown(&domain.Report{
		Errors:   []*domain.FlowError{domain.NewFlowError(domain.KindConfiguration, 0, "bad target", nil)},
		Warnings: []string{"page 1: condition 0 can never match"},
	})
	assert.Contains(t, bad, "invalid ❌")
	assert.Contains(t, bad, "## Warnings")
}

func TestWrite(t *testing.T) {
	var raw bytes.Buffer
	require.NoError(t, Write(&raw, "# Title\n", false))
	assert.Equal(t, "# Title\n", raw.String())

	var pretty bytes.Buffer
	require.NoError(t, Write(&pretty, "# Title\n", true))
	assert.Contains(t, pretty.String(), "Title")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
