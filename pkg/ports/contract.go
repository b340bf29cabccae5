package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/internal/runtime"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

// RunSequenceCacheContract runs a suite of tests to verify that a SequenceCache
// implementation adheres to the defined interface contract.
func RunSequenceCacheContract(t *testing.T, cache SequenceCache) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := domain.Result{
		RunID:          "run-1",
		StartPageIndex: 0,
		Sequence: []domain.SequenceEntry{
			{PageIndex: 0, PageName: "cover", BoundContext: vars.New(map[string]any{"name": "Ada"})},
			{PageIndex: 1, IterationIndex: 1, BoundContext: vars.New(map[string]any{"item": map[string]any{"id": 2}, "index": 1})},
		},
		Diagnostics: domain.Diagnostics{
			ErrorLog: []*domain.FlowError{domain.NewFlowError(domain.KindUnresolvedDataSource, 2, "variable \"orders\"", nil)},
		},
	}

	t.Run("Put and Get", func(t *testing.T) {
		err := cache.Put(ctx, key, sample)
		require.NoError(t, err, "Put should not return error")

		got, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, sample.RunID, got.RunID)
		assert.Equal(t, sample.PageIndices(), got.PageIndices())
		assert.Equal(t, "Ada", got.Sequence[0].BoundContext.Value("name"))
		assert.Equal(t, 2, got.Sequence[1].BoundContext.Value("item.id"))
		require.Len(t, got.Diagnostics.ErrorLog, 1)
		assert.Equal(t, domain.KindUnresolvedDataSource, got.Diagnostics.ErrorLog[0].Kind)
	})

	t.Run("Generated Result Round Trip", func(t *testing.T) {
		pages := []domain.Page{
			{Name: "order", Flow: domain.Repeated(domain.DataSource{Kind: domain.DataSourceVariable, Path: "orders"}, 0, domain.Ref(1))},
			{Name: "gate", Flow: domain.Conditional(domain.Ref(2), domain.WhenScript("eval('1')", domain.Ref(0)))},
			{Name: "summary"},
		}
		data := vars.New(map[string]any{
			"orders": []any{map[string]any{"id": 1, "total": 9.5}, map[string]any{"id": 2, "total": 12}},
			"rate":   0.2,
		})
		fresh := runtime.NewEngine(runtime.WithDebug(true)).Generate(ctx, pages, data, 0)
		require.NotEmpty(t, fresh.Diagnostics.ExecutionLog)
		require.NotEmpty(t, fresh.Diagnostics.ErrorLog)

		require.NoError(t, cache.Put(ctx, key+"-generated", fresh))
		got, err := cache.Get(ctx, key+"-generated")
		require.NoError(t, err)

		assert.Equal(t, fresh.RunID, got.RunID)
		assert.Equal(t, fresh.Sequence, got.Sequence)
		assert.Equal(t, 1, got.Sequence[1].BoundContext.Value("index"))
		assert.Equal(t, fresh.Diagnostics.ExecutionLog, got.Diagnostics.ExecutionLog)
		require.Len(t, got.Diagnostics.ErrorLog, len(fresh.Diagnostics.ErrorLog))
		for i, want := range fresh.Diagnostics.ErrorLog {
			have := got.Diagnostics.ErrorLog[i]
			assert.Equal(t, want.Error(), have.Error())
			assert.Equal(t, want.Kind, have.Kind)
			assert.ErrorIs(t, have, want.Kind.Sentinel())
		}
		require.NoError(t, cache.Delete(ctx, key+"-generated"))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		updated := sample
		updated.RunID = "run-2"
		require.NoError(t, cache.Put(ctx, key, updated))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "run-2", got.RunID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, sample))

		err := cache.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")

		assert.NoError(t, cache.Delete(ctx, key), "deleting a missing key is not an error")
	})
}

// AdminCache is a SequenceCache that also supports CacheAdmin.
type AdminCache interface {
	SequenceCache
	CacheAdmin
}

// RunCacheAdminContract verifies Keys and Purge. The cache must start empty.
func RunCacheAdminContract(t *testing.T, cache AdminCache) {
	ctx := context.Background()

	keys, err := cache.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, cache.Put(ctx, "a", domain.Result{RunID: "run-a"}))
	require.NoError(t, cache.Put(ctx, "b", domain.Result{RunID: "run-b"}))

	keys, err = cache.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, cache.Delete(ctx, "a"))
	keys, err = cache.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, cache.Purge(ctx))
	keys, err = cache.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
