package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pageflow/internal/sandbox"
	"github.com/aretw0/pageflow/pkg/domain"
)

func validPages() []domain.Page {
	return []domain.Page{
		{Name: "intro", Flow: domain.Simple(domain.Ref(1))},
		{Name: "gate", Flow: domain.Conditional(domain.Ref(3),
			domain.When("age", domain.OpGreaterThanOrEqual, 18, domain.Ref(2)),
		)},
		{Name: "adult"},
		{Name: "minor"},
	}
}

func TestValidate_Valid(t *testing.T) {
	report := Validate(validPages())

	assert.True(t, report.Valid())
	assert.NoError(t, report.Err())
	assert.Equal(t, []int{0, 1, 2, 3}, report.Reachable)
	assert.Empty(t, report.Unreachable)
	assert.Empty(t, report.Rejected)
}

func TestValidate_OutOfRangeTargets(t *testing.T) {
	pages := validPages()
	pages[0].Flow = domain.Simple(domain.Ref(9))
	pages[1].Flow.Conditions[0].StartPageIndex = domain.Ref(4)

	report := Validate(pages)
	require.False(t, report.Valid())
	require.Len(t, report.Errors, 2)

	assert.Equal(t, domain.KindConfiguration, report.Errors[0].Kind)
	assert.Equal(t, 0, report.Errors[0].PageIndex)
	assert.Equal(t, 1, report.Errors[1].PageIndex)
	assert.Equal(t, 0, report.Errors[1].ConditionIndex)
	assert.Equal(t, []int{0, 1}, report.Rejected)
	assert.True(t, report.IsRejected(1))
	assert.False(t, report.IsRejected(2))

	err := report.Err()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Len(t, domain.ValidationErrors(err), 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate_StructTags(t *testing.T) {
	pages := []domain.Page{
		{Flow: &domain.FlowConfig{Type: domain.FlowRepeated}},
		{Flow: &domain.FlowConfig{Type: "loop"}},
		{Flow: domain.Conditional(nil, domain.Condition{Kind: domain.ConditionScript})},
	}

	report := Validate(pages)
	require.Len(t, report.Errors, 3)
	assert.Equal(t, []int{0, 1, 2}, report.Rejected)
	for _, e := range report.Errors {
		assert.Equal(t, domain.KindConfiguration, e.Kind)
		assert.True(t, strings.HasPrefix(e.Message, "field '"), e.Message)
	}
}

func TestValidate_NegativeTargetsAreEndMarkers(t *testing.T) {
	pages := []domain.Page{{Flow: domain.Simple(domain.Ref(-1))}}
	assert.True(t, Validate(pages).Valid())
}

func TestValidate_Reachability(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Simple(domain.Ref(2))},
		{Flow: domain.Simple(nil)},
		{Flow: domain.Simple(domain.Ref(0))},
	}

	report := Validate(pages)
	assert.Equal(t, []int{0, 2}, report.Reachable)
	assert.Equal(t, []int{1}, report.Unreachable)

	report = Validate(pages, WithStart(1))
	assert.Equal(t, []int{1}, report.Reachable)

	report = Validate(pages, WithStart(7))
	assert.False(t, report.Valid())
	assert.Equal(t, -1, report.Errors[0].PageIndex)
	assert.Empty(t, report.Reachable)
}

func TestValidate_Scripts(t *testing.T) {
	pages := []domain.Page{
		{Flow: domain.Conditional(nil,
			domain.WhenScript("eval('1')", domain.Ref(1)),
			domain.WhenScript("age >", domain.Ref(1)),
			domain.WhenScript("age > 1 && age < 5", domain.Ref(1)),
			domain.When("age", domain.Operator("matches"), "x", domain.Ref(1)),
		)},
		{},
	}

	report := Validate(pages, WithSandbox(sandbox.New(sandbox.WithComplexityCeiling(1))))
	require.Len(t, report.Errors, 2)
	assert.Equal(t, domain.KindSecurity, report.Errors[0].Kind)
	assert.Equal(t, 0, report.Errors[0].ConditionIndex)
	assert.True(t, errors.Is(report.Errors[0], sandbox.ErrForbidden))
	assert.Equal(t, domain.KindEvaluation, report.Errors[1].Kind)
	assert.Equal(t, 1, report.Errors[1].ConditionIndex)

	// Script problems do not reject the page.
	assert.Empty(t, report.Rejected)
	assert.Len(t, report.Warnings, 2)
}
