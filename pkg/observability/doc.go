/*
Package observability exports Prometheus metrics for the comfyforge engine.

Metrics are registered on a caller-supplied registerer, so tests and embedders can keep
them off the global default registry. The engine reports through the domain event hooks
it already emits: one observation per build and one per detection.
*/
package observability
