package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aretw0/pageflow/internal/runtime"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var (
		entered  []int
		rendered []int
		skipped  []int
		failures []domain.ErrorKind
		done     []*domain.SequenceEvent
		runIDs   = map[string]bool{}
	)
	hooks := domain.LifecycleHooks{
		OnPageEnter: func(_ context.Context, e *domain.PageEvent) {
			entered = append(entered, e.PageIndex)
			runIDs[e.RunID] = true
		},
		OnPageRendered: func(_ context.Context, e *domain.PageEvent) {
			rendered = append(rendered, e.PageIndex)
			assert.Equal(t, domain.EventPageRendered, e.Type)
		},
		OnPageSkipped: func(_ context.Context, e *domain.PageEvent) {
			skipped = append(skipped, e.PageIndex)
		},
		OnFlowError: func(_ context.Context, e *domain.ErrorEvent) {
			failures = append(failures, e.Err.Kind)
		},
		OnSequenceDone: func(_ context.Context, e *domain.SequenceEvent) {
			done = append(done, e)
		},
	}
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(1))},
		{Flow: domain.Conditional(nil,
			domain.When("age", domain.Operator("matches"), 1, domain.Ref(0)),
			domain.When("age", domain.OpGreaterThan, 99, domain.Ref(0)),
		)},
	}

	engine := runtime.NewEngine(
		runtime.WithLifecycleHooks(hooks),
		runtime.WithRunIDGenerator(func() string { return "run-1" }),
	)
	res := engine.Generate(context.Background(), pages, vars.New(map[string]any{"age": 1}), 0)

	assert.Equal(t, []int{0}, res.PageIndices())
	assert.Equal(t, []int{0, 1}, entered)
	assert.Equal(t, []int{0}, rendered)
	assert.Equal(t, []int{1}, skipped)
	assert.Equal(t, []domain.ErrorKind{domain.KindEvaluation}, failures)
	assert.Equal(t, map[string]bool{"run-1": true}, runIDs)
	assert.Equal(t, "run-1", res.RunID)

	require.Len(t, done, 1)
	assert.Equal(t, domain.EventSequenceDone, done[0].Type)
	assert.Equal(t, "run-1", done[0].RunID)
	assert.Equal(t, 1, done[0].Entries)
	assert.Equal(t, 1, done[0].Errors)
	assert.False(t, done[0].Cached)
}

func TestEngine_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	engine := runtime.NewEngine(runtime.WithTracerProvider(tp))

	engine.Generate(context.Background(), agePages(), vars.New(map[string]any{"age": 20}), 0)
	loop := []domain.Page{{Flow: domain.Simple(domain.Ref(0))}}
	engine.Generate(context.Background(), loop, vars.New(nil), 0)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	ok := spans[0]
	assert.Equal(t, "pageflow.generate", ok.Name())
	assert.Equal(t, codes.Unset, ok.Status().Code)
	assert.Contains(t, ok.Attributes(), attribute.Int("pageflow.entries", 3))
	assert.Contains(t, ok.Attributes(), attribute.Int("pageflow.pages", 4))

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, string(domain.KindCircularReference), failed.Status().Description)
	require.Len(t, failed.Events(), 1)
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
