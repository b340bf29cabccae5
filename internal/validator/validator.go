package validator

import (
	"errors"
	"fmt"
	"sort"

	playground "github.com/go-playground/validator/v10"

	"github.com/aretw0/pageflow/internal/sandbox"
	"github.com/aretw0/pageflow/pkg/domain"
)

// Package-level validator instance
var validate = playground.New()

// Report is the outcome of validating a page set.
type Report = domain.Report

type options struct {
	start   int
	sandbox *sandbox.Sandbox
}

// Option configures Validate.
type Option func(*options)

// WithStart sets the page reachability is computed from (default 0).
func WithStart(index int) Option {
	return func(o *options) {
		o.start = index
	}
}

// WithSandbox enables static analysis of script conditions.
func WithSandbox(sb *sandbox.Sandbox) Option {
	return func(o *options) {
		o.sandbox = sb
	}
}

// Validate checks every page of the set. Page indices are taken from the
// slice position.
func Validate(pages []domain.Page, opts ...Option) *Report {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	report := &Report{}
	for i, page := range pages {
		page.Index = i
		pageErrs := CheckPage(page, len(pages))
		if len(pageErrs) > 0 {
			report.Errors = append(report.Errors, pageErrs...)
			report.Rejected = append(report.Rejected, i)
		}
		report.Warnings = append(report.Warnings, conditionWarnings(page)...)
		if o.sandbox != nil {
			errs, warnings := checkScripts(o.sandbox, page)
			report.Errors = append(report.Errors, errs...)
			report.Warnings = append(report.Warnings, warnings...)
		}
	}

	if o.start < 0 || o.start >= len(pages) {
		if len(pages) > 0 {
			report.Errors = append(report.Errors, domain.NewFlowError(domain.KindConfiguration, -1,
				fmt.Sprintf("start page index %d out of range (%d pages)", o.start, len(pages)), nil))
		}
		report.Reachable = []int{}
		return report
	}

	report.Reachable = Reachable(pages, o.start)
	seen := make(map[int]bool, len(report.Reachable))
	for _, i := range report.Reachable {
		seen[i] = true
	}
	for i := range pages {
		if !seen[i] {
			report.Unreachable = append(report.Unreachable, i)
		}
	}
	return report
}

// CheckPage validates one page's struct tags and target ranges against a
// set of count pages. Every returned error is a ConfigurationError.
func CheckPage(page domain.Page, count int) []*domain.FlowError {
	var errs []*domain.FlowError
	configErr := func(msg string) *domain.FlowError {
		return domain.NewFlowError(domain.KindConfiguration, page.Index, msg, nil)
	}

	if err := validate.Struct(page); err != nil {
		var fieldErrs playground.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, configErr(fmt.Sprintf(
					"field '%s' failed validation (rule: %s)", fe.Namespace(), fe.Tag())))
			}
		} else {
			errs = append(errs, configErr(err.Error()))
		}
	}

	flow := page.Flow
	if flow == nil {
		return errs
	}
	outOfRange := func(target *int) bool {
		return target != nil && *target >= count
	}
	rangeMsg := func(target int) string {
		return fmt.Sprintf("start page index %d out of range (%d pages)", target, count)
	}

	switch page.FlowType() {
	case domain.FlowConditional:
		for i, c := range flow.Conditions {
			if outOfRange(c.StartPageIndex) {
				errs = append(errs, configErr(rangeMsg(*c.StartPageIndex)).AtCondition(i))
			}
		}
		if outOfRange(flow.DefaultStartPageIndex) {
			errs = append(errs, configErr("default "+rangeMsg(*flow.DefaultStartPageIndex)))
		}
	default:
		if outOfRange(flow.StartPageIndex) {
			errs = append(errs, configErr(rangeMsg(*flow.StartPageIndex)))
		}
	}
	return errs
}

func conditionWarnings(page domain.Page) []string {
	if page.Flow == nil {
		return nil
	}
	var out []string
	for i, c := range page.Flow.Conditions {
		switch c.Kind {
		case domain.ConditionVariable:
			if !domain.NormalizeOperator(string(c.Operator)).Valid() {
				out = append(out, fmt.Sprintf("page %d condition %d: unknown operator %q never matches", page.Index, i, c.Operator))
			}
		case domain.ConditionScript, domain.ConditionExists:
		default:
			out = append(out, fmt.Sprintf("page %d condition %d: unknown condition kind %q never matches", page.Index, i, c.Kind))
		}
	}
	return out
}

func checkScripts(sb *sandbox.Sandbox, page domain.Page) ([]*domain.FlowError, []string) {
	if page.Flow == nil {
		return nil, nil
	}
	var (
		errs     []*domain.FlowError
		warnings []string
	)
	for i, c := range page.Flow.Conditions {
		if c.Kind != domain.ConditionScript || c.Script == "" {
			continue
		}
		analysis, err := sb.Analyze(c.Script)
		if err != nil {
			kind := domain.KindEvaluation
			if errors.Is(err, sandbox.ErrForbidden) {
				kind = domain.KindSecurity
			}
			errs = append(errs, domain.NewFlowError(kind, page.Index, "script rejected", err).AtCondition(i))
			continue
		}
		for _, w := range analysis.Warnings {
			warnings = append(warnings, fmt.Sprintf("page %d condition %d: %s", page.Index, i, w))
		}
	}
	return errs, warnings
}

// Reachable returns, in ascending order, the pages reachable from start by
// following every declared target.
func Reachable(pages []domain.Page, start int) []int {
	if start < 0 || start >= len(pages) {
		return []int{}
	}
	visited := make(map[int]bool)
	queue := []int{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		flow := pages[current].Flow
		if flow == nil {
			continue // Sink page
		}
		for _, target := range flow.Targets() {
			if target < 0 || target >= len(pages) || visited[target] {
				continue
			}
			queue = append(queue, target)
		}
	}

	out := make([]int, 0, len(visited))
	for i := range visited {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
