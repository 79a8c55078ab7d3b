/*
Package observability exposes inspector activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so any component that accepts hooks
can be instrumented without depending on Prometheus directly.
*/
package observability
