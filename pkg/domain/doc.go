/*
Package domain contains the core domain models of the PageFlow engine.

It defines the page graph (Pages and their FlowConfigs), the branch tests
(Conditions and DataSources), the output of a generation run (SequenceEntry,
Result) and its Diagnostics. This package is kept pure and free of I/O,
following the same hexagonal layout as the rest of the module.

# Key Entities

  - Page: a template page carrying a FlowConfig.
  - FlowConfig: a tagged variant (simple, conditional, repeated) that decides
    whether a page renders and which page comes next.
  - Condition: a declarative comparison, an existence check or a sandboxed script.
  - SequenceEntry: one renderable page instance with its bound variables.
  - FlowError: a recorded, non-fatal failure classified by ErrorKind.
*/
package domain
