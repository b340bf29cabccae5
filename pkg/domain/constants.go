package domain

import "time"

const (
	// DefaultMaxIterations is the global ceiling on page visits per run and on
	// the repetition count of any repeated page.
	DefaultMaxIterations = 1000

	// DefaultItemVariable and DefaultIndexVariable are the repeated-page bindings
	// used when a flow config leaves them empty.
	DefaultItemVariable  = "item"
	DefaultIndexVariable = "index"

	// DefaultScriptTimeout bounds a single sandboxed script run.
	DefaultScriptTimeout = time.Second

	// DefaultComplexityCeiling is the script complexity score above which a
	// warning is attached to the evaluation.
	DefaultComplexityCeiling = 50
)
