/*
Package observability provides tools for monitoring the PageFlow engine.

It turns the engine's lifecycle hooks into Prometheus metrics and structured
log records. Hooks from several sources are merged with domain.LifecycleHooks.Combine.
*/
package observability
