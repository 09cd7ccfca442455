/*
Package mediaapi wraps the AniList-compatible metadata collaborator with
a golang.org/x/time/rate token bucket and a sony/gobreaker/v2 circuit
breaker, grounded on the teacher's internal/sync circuit-breaker wrapper
pattern: a thin façade around an HTTP client whose Execute call is the
only thing instrumented, so search and list-mutation calls share the
same resilience policy without duplicating it per method.
*/
package mediaapi
