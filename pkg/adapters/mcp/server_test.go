package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
)

const loopTemplate = `{"pages": [
	{"name": "a", "next": 1},
	{"name": "b", "flow": {"type": "repeated", "data_source": {"kind": "variable", "path": "rows"}}}
]}`

func newServer(t *testing.T, withLoader bool) *Server {
	t.Helper()
	eng, err := pageflow.New()
	require.NoError(t, err)
	if !withLoader {
		return NewServer(eng, nil)
	}
	loader, err := memory.NewFromPages("default",
		domain.Page{Name: "only"},
	)
	require.NoError(t, err)
	return NewServer(eng, loader)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return content.Text
}

func TestGenerateSequence(t *testing.T) {
	s := newServer(t, false)

	res, err := s.handleGenerate(context.Background(), call(map[string]any{
		"template": loopTemplate,
		"context":  `{"rows": [1, 2, 3]}`,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out domain.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []int{0, 1, 1, 1}, out.PageIndices())
}

func TestGenerateSequence_Start(t *testing.T) {
	s := newServer(t, false)

	res, err := s.handleGenerate(context.Background(), call(map[string]any{
		"template": loopTemplate,
		"context":  `{"rows": [1]}`,
		"start":    float64(1),
	}))
	require.NoError(t, err)

	var out domain.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []int{1}, out.PageIndices())
}

func TestGenerateSequence_Errors(t *testing.T) {
	s := newServer(t, false)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing template", map[string]any{}},
		{"bad template", map[string]any{"template": "{"}},
		{"bad context", map[string]any{"template": loopTemplate, "context": "[1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleGenerate(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestGenerateSequence_DefaultTemplate(t *testing.T) {
	s := newServer(t, true)

	res, err := s.handleGenerate(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out domain.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []int{0}, out.PageIndices())
}

func TestValidateTemplate(t *testing.T) {
	s := newServer(t, false)

	res, err := s.handleValidate(context.Background(), call(map[string]any{
		"template": `{"pages": [{"flow": {"type": "conditional", "conditions": [{"kind": "script", "script": "eval('1')"}]}}]}`,
	}))
	require.NoError(t, err)

	var out struct {
		Valid  bool           `json:"valid"`
		Report *domain.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.False(t, out.Valid)
	require.NotEmpty(t, out.Report.Errors)
	assert.Equal(t, domain.KindSecurity, out.Report.Errors[0].Kind)
}

func TestRenderGraph(t *testing.T) {
	s := newServer(t, false)

	res, err := s.handleGraph(context.Background(), call(map[string]any{
		"template": loopTemplate,
		"context":  `{"rows": [1]}`,
	}))
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "↻ rows")
	assert.Contains(t, out, "class p1 visited;")
}
