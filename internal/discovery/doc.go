// Package discovery defines the core types and interfaces shared across the
// event discovery engine: the query catalog entries, quota accounting state,
// discovered event records, and the collaborator contracts (fetching,
// parsing, persistence, publishing) the run orchestrator depends on.
package discovery
