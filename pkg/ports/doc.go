/*
Package ports defines the driven ports (interfaces) for the PageFlow engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various template sources and cache backends.

# Key Interfaces

  - TemplateLoader: Responsible for loading page templates (e.g., from Loam, a file or memory).
  - SequenceCache: Memoizes generation results (e.g., in memory or Redis).
  - SequenceEngine: The engine surface consumed by the HTTP and MCP adapters.
*/
package ports
