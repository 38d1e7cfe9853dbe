/*
Package observability turns runtime hooks into structured logs and
Prometheus metrics.

Hooks from several sources are combined with Chain and handed to
runtime.WithHooks or instance.WithHooks.
*/
package observability
