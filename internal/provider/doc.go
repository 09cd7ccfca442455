// Package provider implements the narrow AnimeProvider collaborator
// contract from the menu package against a scraping/API backend,
// sharing internal/mediaapi's rate-limit-then-circuit-breaker shape.
package provider
