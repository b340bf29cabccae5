package tests

import (
	"context"
	"testing"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
)

// TemplateLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateLoader.
func TemplateLoaderContractTest(t *testing.T, loader ports.TemplateLoader, want []domain.Page) {
	t.Helper()

	tpl, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading template: %v", err)
	}

	// 1. Page order
	t.Run("Load_Order", func(t *testing.T) {
		if len(tpl.Pages) != len(want) {
			t.Fatalf("expected %d pages, got %d", len(want), len(tpl.Pages))
		}
		for i, page := range tpl.Pages {
			if page.Name != want[i].Name {
				t.Errorf("page %d: got name %q, want %q", i, page.Name, want[i].Name)
			}
		}
	})

	// 2. Flow configs
	t.Run("Load_Flows", func(t *testing.T) {
		for i, page := range tpl.Pages {
			if i >= len(want) {
				break
			}
			if page.FlowType() != want[i].FlowType() {
				t.Errorf("page %d: got flow %q, want %q", i, page.FlowType(), want[i].FlowType())
			}
			got, exp := targets(page), targets(want[i])
			if len(got) != len(exp) {
				t.Errorf("page %d: got targets %v, want %v", i, got, exp)
				continue
			}
			for j := range got {
				if got[j] != exp[j] {
					t.Errorf("page %d: got targets %v, want %v", i, got, exp)
					break
				}
			}
		}
	})

	// 3. Loads are repeatable
	t.Run("Load_Repeatable", func(t *testing.T) {
		again, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error on second load: %v", err)
		}
		if len(again.Pages) != len(tpl.Pages) {
			t.Errorf("second load returned %d pages, first returned %d", len(again.Pages), len(tpl.Pages))
		}
	})
}

func targets(p domain.Page) []int {
	if p.Flow == nil {
		return nil
	}
	return p.Flow.Targets()
}
