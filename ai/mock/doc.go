// Package mock provides test doubles for the ai package interfaces.
//
// Mocks default to deterministic behavior (FNV-seeded vectors, canned
// completions) so tests are reproducible without external services, and
// expose function fields for injecting custom behavior per test.
package mock
