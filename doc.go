// Package ninelives implements the Nine Lives resilience middleware model:
// four policy primitives (retry, timeout, bulkhead, circuit breaker), three
// algebraic combinators over them (WRAP, FALLBACK, RACE), a best-effort
// telemetry seam, and a live-reconfiguration substrate built from atomic
// adaptive handles and a command router.
//
// A Policy is anything that can be invoked like a service and emits
// telemetry; composing policies with the combinators yields another policy,
// so composition is fractal all the way up to the application boundary.
package ninelives
