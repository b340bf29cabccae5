package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/internal/runtime"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

func agePages() []domain.Page {
	return []domain.Page{
		{Name: "intro", Flow: domain.Simple(domain.Ref(1))},
		{Name: "gate", Flow: domain.Conditional(domain.Ref(3),
			domain.When("age", domain.OpGreaterThanOrEqual, 18, domain.Ref(2)),
		)},
		{Name: "adult"},
		{Name: "minor"},
	}
}

func TestGenerate_Conditional(t *testing.T) {
	engine := runtime.NewEngine()

	tests := []struct {
		name string
		data map[string]any
		want []int
	}{
		{"adult branch", map[string]any{"age": 20}, []int{0, 1, 2}},
		{"default branch", map[string]any{"age": 10}, []int{0, 1, 3}},
		{"string coerced", map[string]any{"age": "18"}, []int{0, 1, 2}},
		{"missing variable", map[string]any{}, []int{0, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Generate(context.Background(), agePages(), vars.New(tt.data), 0)
			assert.Equal(t, tt.want, res.PageIndices())
			assert.False(t, res.Diagnostics.HasErrors(), "unexpected errors: %v", res.Err())
		})
	}
}

func TestGenerate_FirstMatchWins(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Conditional(nil,
			domain.When("age", domain.OpGreaterThan, 10, domain.Ref(1)),
			domain.When("age", domain.OpGreaterThan, 5, domain.Ref(2)),
		)},
		{},
		{},
	}
	reordered := []domain.Page{
		{Flow: domain.Conditional(nil,
			domain.When("age", domain.OpGreaterThan, 5, domain.Ref(2)),
			domain.When("age", domain.OpGreaterThan, 10, domain.Ref(1)),
		)},
		{},
		{},
	}
	data := vars.New(map[string]any{"age": 20})
	engine := runtime.NewEngine()

	assert.Equal(t, []int{0, 1}, engine.Generate(context.Background(), pages, data, 0).PageIndices())
	assert.Equal(t, []int{0, 2}, engine.Generate(context.Background(), reordered, data, 0).PageIndices())
}

func TestGenerate_NoMatchWithoutDefault(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(1))},
		{Flow: domain.Conditional(nil, domain.When("age", domain.OpLessThan, 5, domain.Ref(2)))},
		{},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(map[string]any{"age": 30}), 0)

	assert.Equal(t, []int{0}, res.PageIndices())
	assert.False(t, res.Diagnostics.HasErrors())
}

func TestGenerate_Repeated(t *testing.T) {
	data := vars.New(map[string]any{
		"orders": []any{
			map[string]any{"id": 1},
			map[string]any{"id": 2},
			map[string]any{"id": 3},
		},
		"customer": "Ada",
	})
	pages := []domain.Page{
		{Name: "cover", Flow: domain.Simple(domain.Ref(1))},
		{Name: "order", Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "orders"}, 2, domain.Ref(2))},
		{Name: "summary"},
	}

	res := runtime.NewEngine().Generate(context.Background(), pages, data, 0)
	require.False(t, res.Diagnostics.HasErrors(), "unexpected errors: %v", res.Err())
	assert.Equal(t, []int{0, 1, 1, 2}, res.PageIndices())

	first, second := res.Sequence[1], res.Sequence[2]
	assert.Equal(t, 0, first.IterationIndex)
	assert.Equal(t, map[string]any{"id": 1}, first.BoundContext.Value("item"))
	assert.Equal(t, 0, first.BoundContext.Value("index"))
	assert.Equal(t, 1, second.IterationIndex)
	assert.Equal(t, map[string]any{"id": 2}, second.BoundContext.Value("item"))
	assert.Equal(t, 1, second.BoundContext.Value("index"))
	assert.Equal(t, "Ada", second.BoundContext.Value("customer"))

	// Non-repeated entries see the ambient context only.
	assert.False(t, res.Sequence[0].BoundContext.Has("item"))
	assert.False(t, res.Sequence[3].BoundContext.Has("item"))
}

func TestGenerate_RepetitionLimits(t *testing.T) {
	items := make([]any, 10)
	for i := range items {
		items[i] = i
	}
	data := vars.New(map[string]any{"list": items})

	tests := []struct {
		name       string
		flowMax    int
		engineMax  int
		wantRepeat int
	}{
		{"items bound", 0, 0, 10},
		{"flow bound", 3, 0, 3},
		{"global bound", 8, 4, 4},
		{"flow above items", 50, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := []domain.Page{{Flow: domain.Repeated(
				domain.DataSource{Kind: domain.DataSourceVariable, Path: "list"}, tt.flowMax, nil)}}
			engine := runtime.NewEngine(runtime.WithMaxIterations(tt.engineMax))

			res := engine.Generate(context.Background(), pages, data, 0)
			assert.Len(t, res.Sequence, tt.wantRepeat)
		})
	}
}

func TestGenerate_RepeatedCustomBindings(t *testing.T) {
	flow := domain.Repeated(domain.DataSource{Kind: domain.DataSourceObjectPath, Path: "team"}, 0, nil)
	flow.ItemVariableName = "member"
	flow.IndexVariableName = "n"
	data := vars.New(map[string]any{"team": map[string]any{"b": "Bob", "a": "Ann"}})

	res := runtime.NewEngine().Generate(context.Background(), []domain.Page{{Flow: flow}}, data, 0)
	require.Len(t, res.Sequence, 2)
	assert.Equal(t, "Ann", res.Sequence[0].BoundContext.Value("member"))
	assert.Equal(t, "Bob", res.Sequence[1].BoundContext.Value("member"))
	assert.Equal(t, 1, res.Sequence[1].BoundContext.Value("n"))
}

func TestGenerate_EmptyRepetitionContinues(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "list"}, 0, domain.Ref(1))},
		{Name: "after"},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(map[string]any{"list": []any{}}), 0)

	assert.Equal(t, []int{1}, res.PageIndices())
	assert.False(t, res.Diagnostics.HasErrors())
}

func TestGenerate_UnresolvedDataSource(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "missing"}, 0, domain.Ref(1))},
		{Name: "after"},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{1}, res.PageIndices())
	errs := res.Diagnostics.ErrorsOf(domain.KindUnresolvedDataSource)
	require.Len(t, errs, 1)
	assert.Equal(t, 0, errs[0].PageIndex)
	assert.ErrorIs(t, res.Err(), domain.ErrUnresolvedDataSource)
}

func TestGenerate_CircularReference(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(1))},
		{Flow: domain.Simple(domain.Ref(0))},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{0, 1}, res.PageIndices())
	errs := res.Diagnostics.ErrorsOf(domain.KindCircularReference)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].PageIndex)
	assert.ErrorIs(t, res.Err(), domain.ErrCircularReference)
}

func TestGenerate_SelfLoop(t *testing.T) {
	pages := []domain.Page{{Flow: domain.Simple(domain.Ref(0))}}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{0}, res.PageIndices())
	assert.Len(t, res.Diagnostics.ErrorsOf(domain.KindCircularReference), 1)
}

func TestGenerate_IterationLimit(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(1))},
		{Flow: domain.Simple(domain.Ref(2))},
		{},
	}
	res := runtime.NewEngine(runtime.WithMaxIterations(2)).Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{0, 1}, res.PageIndices())
	errs := res.Diagnostics.ErrorsOf(domain.KindIterationLimit)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].PageIndex)
}

func TestGenerate_Termination(t *testing.T) {
	tests := []struct {
		name string
		flow *domain.FlowConfig
	}{
		{"nil flow", nil},
		{"nil target", domain.Simple(nil)},
		{"negative target", domain.Simple(domain.Ref(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := []domain.Page{{Flow: tt.flow}, {}}
			res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

			assert.Equal(t, []int{0}, res.PageIndices())
			assert.False(t, res.Diagnostics.HasErrors())
		})
	}
}

func TestGenerate_StartIndex(t *testing.T) {
	engine := runtime.NewEngine()
	data := vars.New(map[string]any{"age": 30})

	res := engine.Generate(context.Background(), agePages(), data, 1)
	assert.Equal(t, []int{1, 2}, res.PageIndices())
	assert.Equal(t, 1, res.StartPageIndex)

	res = engine.Generate(context.Background(), agePages(), data, 4)
	assert.NotNil(t, res.Sequence)
	assert.Empty(t, res.Sequence)
	assert.Len(t, res.Diagnostics.ErrorsOf(domain.KindConfiguration), 1)

	res = engine.Generate(context.Background(), agePages(), data, -1)
	assert.Empty(t, res.Sequence)
	assert.False(t, res.Diagnostics.HasErrors())

	res = engine.Generate(context.Background(), nil, data, 0)
	assert.NotNil(t, res.Sequence)
	assert.Empty(t, res.Sequence)
}

func TestGenerate_RejectedPage(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(1))},
		{Flow: domain.Simple(domain.Ref(9))},
		{},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{0}, res.PageIndices())
	errs := res.Diagnostics.ErrorsOf(domain.KindConfiguration)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].PageIndex)
}

func TestGenerate_IndexIsPositional(t *testing.T) {
	pages := []domain.Page{
		{Index: 7, Flow: domain.Simple(domain.Ref(1))},
		{Index: 7},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(nil), 0)

	assert.Equal(t, []int{0, 1}, res.PageIndices())
	assert.Equal(t, 7, pages[0].Index, "input pages must not be mutated")
}

func TestGenerate_ScriptConditions(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Conditional(domain.Ref(2),
			domain.WhenScript("age >", domain.Ref(1)),
			domain.WhenScript("user.role === 'admin' && age >= 18", domain.Ref(1)),
		)},
		{Name: "admin"},
		{Name: "guest"},
	}
	data := vars.New(map[string]any{"age": 30, "user": map[string]any{"role": "admin"}})

	res := runtime.NewEngine().Generate(context.Background(), pages, data, 0)
	assert.Equal(t, []int{0, 1}, res.PageIndices())

	errs := res.Diagnostics.ErrorsOf(domain.KindEvaluation)
	require.Len(t, errs, 1)
	assert.Equal(t, 0, errs[0].ConditionIndex)
}

func TestGenerate_ForbiddenScriptNeverRuns(t *testing.T) {
	var calls int
	clock := func() time.Time {
		calls++
		return time.Unix(0, 0)
	}
	pages := []domain.Page{
		{Flow: domain.Conditional(domain.Ref(2), domain.WhenScript("now() > 0 && constructor", domain.Ref(1)))},
		{Name: "unsafe"},
		{Name: "safe"},
	}

	res := runtime.NewEngine(runtime.WithClock(clock)).Generate(context.Background(), pages, vars.New(nil), 0)
	assert.Equal(t, []int{0, 2}, res.PageIndices())
	assert.Len(t, res.Diagnostics.ErrorsOf(domain.KindSecurity), 1)
	assert.ErrorIs(t, res.Err(), domain.ErrSecurity)
	assert.Zero(t, calls)
}

func TestGenerate_UnknownOperatorNeverMatches(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Conditional(domain.Ref(2), domain.When("age", domain.Operator("matches"), 1, domain.Ref(1)))},
		{},
		{},
	}
	res := runtime.NewEngine().Generate(context.Background(), pages, vars.New(map[string]any{"age": 1}), 0)

	assert.Equal(t, []int{0, 2}, res.PageIndices())
	assert.Len(t, res.Diagnostics.ErrorsOf(domain.KindEvaluation), 1)
}

func TestGenerate_StrictEquality(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Conditional(domain.Ref(2), domain.When("age", domain.OpEquals, "18", domain.Ref(1)))},
		{},
		{},
	}
	data := vars.New(map[string]any{"age": 18})

	loose := runtime.NewEngine().Generate(context.Background(), pages, data, 0)
	strict := runtime.NewEngine(runtime.WithStrictEquality(true)).Generate(context.Background(), pages, data, 0)

	assert.Equal(t, []int{0, 1}, loose.PageIndices())
	assert.Equal(t, []int{0, 2}, strict.PageIndices())
}

func TestGenerate_DebugLog(t *testing.T) {
	ctx := context.Background()

	quiet := runtime.NewEngine().Generate(ctx, agePages(), vars.New(map[string]any{"age": 20}), 0)
	assert.Empty(t, quiet.Diagnostics.Logs())

	verbose := runtime.NewEngine(runtime.WithDebug(true)).Generate(ctx, agePages(), vars.New(map[string]any{"age": 20}), 0)
	logs := verbose.Diagnostics.Logs()
	require.NotEmpty(t, logs)

	var matched bool
	for _, l := range logs {
		if l.Message == "condition matched" {
			matched = true
			assert.Equal(t, 1, l.PageIndex)
			assert.Equal(t, 2, l.Attrs["target"])
		}
	}
	assert.True(t, matched)
}

func TestGenerate_Deterministic(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithRunIDGenerator(func() string { return "fixed" }))
	data := vars.New(map[string]any{
		"age":    20,
		"orders": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
	})
	pages := append(agePages()[:2:2],
		domain.Page{Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "orders"}, 0, domain.Ref(3))},
		domain.Page{},
	)

	first := engine.Generate(context.Background(), pages, data, 0)
	second := engine.Generate(context.Background(), pages, data, 0)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{0, 1, 2, 2, 3}, first.PageIndices())
}

func TestGenerate_ConcurrentCallers(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithDebug(true))

	var wg sync.WaitGroup
	results := make([]domain.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			age := 10
			if i%2 == 0 {
				age = 20
			}
			results[i] = engine.Generate(context.Background(), agePages(), vars.New(map[string]any{"age": age}), 0)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		want := []int{0, 1, 3}
		if i%2 == 0 {
			want = []int{0, 1, 2}
		}
		assert.Equal(t, want, res.PageIndices())
		assert.False(t, res.Diagnostics.HasErrors())
	}
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestEvaluatePage(t *testing.T) {
	engine := runtime.NewEngine()
	page := domain.Page{Index: 1, Flow: domain.Conditional(nil, domain.When("age", domain.OpLessThan, 5, domain.Ref(2)))}

	d, diag := engine.EvaluatePage(context.Background(), page, vars.New(map[string]any{"age": 3}))
	assert.True(t, d.ShouldRender)
	require.NotNil(t, d.Target)
	assert.Equal(t, 2, *d.Target)
	assert.False(t, diag.HasErrors())

	d, _ = engine.EvaluatePage(context.Background(), page, vars.New(map[string]any{"age": 30}))
	assert.False(t, d.ShouldRender)
	assert.Nil(t, d.Target)
}
