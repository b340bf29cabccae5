package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/observability"
)

const templateJSON = `{
	"name": "age",
	"pages": [
		{"name": "intro", "next": 1},
		{"name": "gate", "flow": {
			"type": "conditional",
			"default_start_page_index": 3,
			"conditions": [
				{"kind": "variable", "variable": "age", "operator": ">=", "value": 18, "start_page_index": 2}
			]
		}},
		{"name": "adult"},
		{"name": "minor"}
	]
}`

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := pageflow.New()
	require.NoError(t, err)
	return NewHandler(eng, opts...)
}

func post(t *testing.T, h http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func templateBody(t *testing.T) map[string]any {
	t.Helper()
	var tpl map[string]any
	require.NoError(t, json.Unmarshal([]byte(templateJSON), &tpl))
	return tpl
}

func TestGenerate(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, "/generate", map[string]any{
		"template": templateBody(t),
		"data":     map[string]any{"age": 20},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []int{0, 1, 2}, res.PageIndices())
	assert.Empty(t, res.Diagnostics.ErrorLog)
	assert.NotEmpty(t, res.RunID)
}

func TestGenerate_Diagnostics(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, "/generate", map[string]any{
		"template": map[string]any{"pages": []any{
			map[string]any{"next": 0},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []int{0}, res.PageIndices())
	require.Len(t, res.Diagnostics.ErrorLog, 1)
	assert.Equal(t, domain.KindCircularReference, res.Diagnostics.ErrorLog[0].Kind)
}

func TestGenerate_BadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing template", `{"data": {}}`, http.StatusBadRequest},
		{"invalid template", `{"template": {"pages": "nope"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestGenerate_DefaultLoader(t *testing.T) {
	loader, err := memory.NewFromPages("age",
		domain.Page{Name: "intro", Flow: domain.Simple(domain.Ref(1))},
		domain.Page{Name: "gate", Flow: domain.Conditional(domain.Ref(3),
			domain.When("age", domain.OpGreaterThanOrEqual, 18, domain.Ref(2)),
		)},
		domain.Page{Name: "adult"},
		domain.Page{Name: "minor"},
	)
	require.NoError(t, err)
	h := newTestHandler(t, WithLoader(loader))

	w := post(t, h, "/generate", map[string]any{"data": map[string]any{"age": 3}})
	require.Equal(t, http.StatusOK, w.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []int{0, 1, 3}, res.PageIndices())
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) (*domain.Template, error) {
	return nil, errors.Join(domain.ErrTemplateNotFound, errors.New("gone"))
}

func TestGenerate_LoaderNotFound(t *testing.T) {
	h := newTestHandler(t, WithLoader(failingLoader{}))
	w := post(t, h, "/generate", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidate(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, "/validate", map[string]any{"template": templateBody(t)})
	require.Equal(t, http.StatusOK, w.Code)
	var ok ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.True(t, ok.Valid)
	assert.Equal(t, []int{0, 1, 2, 3}, ok.Report.Reachable)

	w = post(t, h, "/validate", map[string]any{
		"template": map[string]any{"pages": []any{map[string]any{"next": 9}}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var bad ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bad))
	assert.False(t, bad.Valid)
	require.NotNil(t, bad.Report.Errors)
	require.NotEmpty(t, *bad.Report.Errors)
	assert.Equal(t, ConfigurationError, (*bad.Report.Errors)[0].Kind)
}

func TestGraph(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, "/graph", map[string]any{"template": templateBody(t)})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "graph TD")
	assert.Contains(t, body, `p0(("intro"))`)
	assert.NotContains(t, body, "classDef visited")

	w = post(t, h, "/graph", map[string]any{
		"template": templateBody(t),
		"data":     map[string]any{"age": 30},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class p2 visited;")
}

func TestGetGraph(t *testing.T) {
	h := newTestHandler(t, WithLoader(memory.NewLoader([]byte(templateJSON))))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graph?start=1", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `p1(("gate"))`)
	assert.Contains(t, w.Body.String(), `p0["intro"]`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graph?start=first", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid format for parameter start")
}

func TestGetGraph_NoServerTemplate(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graph", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_ErrorCause(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, "/generate", map[string]any{
		"template": map[string]any{"pages": []any{
			map[string]any{"name": "gate", "flow": map[string]any{
				"type":                     "conditional",
				"default_start_page_index": 1,
				"conditions": []any{
					map[string]any{"kind": "script", "script": "return eval('1')", "start_page_index": 1},
				},
			}},
			map[string]any{"name": "end"},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Diagnostics.Errors)
	errs := *res.Diagnostics.Errors
	require.NotEmpty(t, errs)
	assert.Equal(t, SecurityError, errs[0].Kind)
	require.NotNil(t, errs[0].Cause)
	assert.Contains(t, *errs[0].Cause, "eval")
}

func TestOpenAPISpec(t *testing.T) {
	swagger, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))
	for _, path := range []string{"/health", "/info", "/generate", "/validate", "/graph"} {
		assert.NotNil(t, swagger.Paths.Value(path), path)
	}

	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"title":"PageFlow API"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SwaggerUIBundle")
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "pageflow-http", info["app"])
	assert.Equal(t, pageflow.Version, info["version"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/generate", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	eng, err := pageflow.New(pageflow.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)
	h := NewHandler(eng, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	post(t, h, "/generate", map[string]any{"template": templateBody(t), "data": map[string]any{"age": 20}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pageflow_page_visits_total")
}

func TestMetrics_NotMounted(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
