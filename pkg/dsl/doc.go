/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing PageFlow templates.

It allows developers to define page flows using a type-safe, fluent builder pattern
instead of relying on external YAML or JSON files. Targets are referenced by page
name and resolved to indices when the template is built.

Example usage:

	b := dsl.New("invoice")

	b.Page("cover").Next("gate")

	b.Page("gate").
		When("total", domain.OpGreaterThan, 1000, "approval").
		Otherwise("lines")

	b.Page("approval").Next("lines")

	b.Page("lines").
		Repeat(domain.DataSourceVariable, "items").
		As("line", "n").
		Max(50).
		Next("summary")

	b.Page("summary").Terminal()

	tpl, err := b.Template()
	// ... pass tpl to pageflow.Engine.Generate
*/
package dsl
