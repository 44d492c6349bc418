package discovery

import "time"

// Priority classifies how urgently a catalog query should be spent quota on.
type Priority string

// Priority tiers, highest value first.
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedia  Priority = "media"
	PriorityMedium Priority = "medium"
	PrioritySocial Priority = "social"
	PriorityLow    Priority = "low"
)

// Weight returns the fixed ranking weight for a priority tier.
// Unknown tiers rank below every known one.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 6
	case PriorityHigh:
		return 5
	case PriorityMedia:
		return 4
	case PriorityMedium:
		return 3
	case PrioritySocial:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// QueryKind tags how a query is executed and how long its response caches.
type QueryKind string

// Query kinds. KindNews exists only as a cache TTL class for news payloads.
const (
	KindSearch QueryKind = "search"
	KindSocial QueryKind = "social"
	KindMedia  QueryKind = "media"
	KindNews   QueryKind = "news"
)

// QueryDescriptor is one immutable catalog entry.
type QueryDescriptor struct {
	Text     string    `json:"query" mapstructure:"query"`
	Priority Priority  `json:"priority" mapstructure:"priority"`
	Kind     QueryKind `json:"kind" mapstructure:"kind"`
}

// RunKind names a scheduled pipeline run flavor.
type RunKind string

// Run kinds. RunEmergency is a reserve allocation bucket, never executed.
const (
	RunComprehensive RunKind = "comprehensive"
	RunQuick         RunKind = "quick"
	RunSocial        RunKind = "social"
	RunEmergency     RunKind = "emergency"
)

// AllocationPlan maps run kinds to advisory call budgets. It is derived on
// demand from the remaining quota and never persisted.
type AllocationPlan map[RunKind]int

// QuotaStatus is a point-in-time view of the daily ledger.
type QuotaStatus struct {
	Used        int     `json:"calls_used"`
	Remaining   int     `json:"calls_remaining"`
	PercentUsed float64 `json:"percentage_used"`
	CanCall     bool    `json:"can_make_calls"`
}

// CallRecord is one history entry in the daily ledger.
type CallRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Kind      QueryKind `json:"kind"`
}

// EventRecord is a discovered event candidate at the collaborator boundary.
// EventDate is a raw display string, not a normalized date; the dedup
// fingerprint is computed over it as-is.
type EventRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	Price       string `json:"price"`
	Organizer   string `json:"organizer"`
}

// CacheStats is a read-only diagnostic of the response cache.
type CacheStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

// Report summarizes one pipeline run.
type Report struct {
	RunID     string        `json:"run_id"`
	Kind      RunKind       `json:"kind"`
	Attempted int           `json:"queries_attempted"`
	CallsMade int           `json:"calls_made"`
	CacheHits int           `json:"cache_hits"`
	Found     int           `json:"records_found"`
	Accepted  int           `json:"records_accepted"`
	Started   time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
