/*
Package pageflow is a deterministic page flow engine for document templates.

Given an ordered set of pages, each carrying a flow configuration, and a data
context, it computes the ordered sequence of page instances to render. Pages
can continue unconditionally, branch on declarative conditions or sandboxed
scripts, and repeat once per element of a data array.

# Concept

The engine only decides which pages render, in what order and with which
bound variables. Page content and rendering belong to the host. Failures are
recorded in the returned diagnostics next to the sequence; generation never
panics and always terminates.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/pageflow"
	)

	func main() {
		// Reads a YAML/JSON template file, or a directory of page documents.
		eng, err := pageflow.Open("./invoice.yaml", pageflow.WithDebug(true))
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		tpl, err := eng.Load(ctx)
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.Generate(ctx, tpl, map[string]any{"total": 1200}, 0)
		if err != nil {
			log.Fatal(err)
		}
		for _, entry := range res.Sequence {
			fmt.Println(entry.PageIndex, entry.IterationIndex)
		}
		if err := res.Err(); err != nil {
			log.Printf("flow errors: %v", err)
		}
	}

Templates can also be built in code with the dsl package, and served over
HTTP or MCP with the adapters under pkg/adapters.
*/
package pageflow
