package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	contract "github.com/aretw0/pageflow/pkg/ports/tests"
)

func samplePages() []domain.Page {
	return []domain.Page{
		{Name: "cover", Flow: domain.Simple(domain.Ref(1))},
		{Name: "gate", Flow: domain.Conditional(domain.Ref(3),
			domain.When("age", domain.OpGreaterThanOrEqual, 18, domain.Ref(2)),
		)},
		{Name: "adult"},
		{Name: "minor"},
	}
}

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewFromPages("sample", samplePages()...)
	require.NoError(t, err)

	contract.TemplateLoaderContractTest(t, loader, samplePages())
}

func TestInMemoryLoader_RawJSON(t *testing.T) {
	loader := memory.NewLoader([]byte(`{
		"name": "raw",
		"pages": [
			{"name": "a", "index": 5, "flow": {"type": "simple", "start_page_index": 1}},
			{"name": "b"}
		]
	}`))

	tpl, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "raw", tpl.Name)
	require.Len(t, tpl.Pages, 2)
	assert.Equal(t, 0, tpl.Pages[0].Index)
	assert.Equal(t, []int{1}, tpl.Pages[0].Flow.Targets())

	// Loads are isolated from each other.
	tpl.Pages[0].Name = "changed"
	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", again.Pages[0].Name)
}

func TestInMemoryLoader_Errors(t *testing.T) {
	_, err := memory.NewLoader(nil).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	_, err = memory.NewLoader([]byte(`{`)).Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryCache_Contract(t *testing.T) {
	cache := memory.NewCache()
	ports.RunSequenceCacheContract(t, cache)
}

func TestMemoryCache_Admin(t *testing.T) {
	cache := memory.NewCache()
	ports.RunCacheAdminContract(t, cache)
	assert.Zero(t, cache.Len())
}
