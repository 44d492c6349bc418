// Package catalog holds the static, tiered set of candidate search queries.
// The catalog is read-only shared state: membership never changes at runtime.
package catalog

import (
	"eventradar/internal/discovery"
)

// Stats summarizes catalog composition per tier.
type Stats struct {
	Total  int `json:"total_queries"`
	Urgent int `json:"urgent"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Social int `json:"social"`
	Media  int `json:"media"`
}

// Catalog is an immutable collection of query descriptors grouped by tier.
type Catalog struct {
	urgent []discovery.QueryDescriptor
	high   []discovery.QueryDescriptor
	medium []discovery.QueryDescriptor
	low    []discovery.QueryDescriptor
	social []discovery.QueryDescriptor
	media  []discovery.QueryDescriptor
}

// New builds a catalog from a flat list of descriptors, preserving the
// relative order of entries within each tier. Entries with an unknown
// priority are dropped.
func New(entries []discovery.QueryDescriptor) *Catalog {
	c := &Catalog{}
	for _, e := range entries {
		switch e.Priority {
		case discovery.PriorityUrgent:
			c.urgent = append(c.urgent, e)
		case discovery.PriorityHigh:
			c.high = append(c.high, e)
		case discovery.PriorityMedium:
			c.medium = append(c.medium, e)
		case discovery.PriorityLow:
			c.low = append(c.low, e)
		case discovery.PrioritySocial:
			c.social = append(c.social, e)
		case discovery.PriorityMedia:
			c.media = append(c.media, e)
		}
	}
	return c
}

// All returns every query in fixed tier order: urgent, high, medium, low,
// social, media. The returned slice is a copy.
func (c *Catalog) All() []discovery.QueryDescriptor {
	out := make([]discovery.QueryDescriptor, 0, c.Len())
	out = append(out, c.urgent...)
	out = append(out, c.high...)
	out = append(out, c.medium...)
	out = append(out, c.low...)
	out = append(out, c.social...)
	out = append(out, c.media...)
	return out
}

// ByPriority returns the queries in one tier, in catalog order.
func (c *Catalog) ByPriority(p discovery.Priority) []discovery.QueryDescriptor {
	var tier []discovery.QueryDescriptor
	switch p {
	case discovery.PriorityUrgent:
		tier = c.urgent
	case discovery.PriorityHigh:
		tier = c.high
	case discovery.PriorityMedium:
		tier = c.medium
	case discovery.PriorityLow:
		tier = c.low
	case discovery.PrioritySocial:
		tier = c.social
	case discovery.PriorityMedia:
		tier = c.media
	}
	out := make([]discovery.QueryDescriptor, len(tier))
	copy(out, tier)
	return out
}

// Len reports the total number of queries.
func (c *Catalog) Len() int {
	return len(c.urgent) + len(c.high) + len(c.medium) + len(c.low) + len(c.social) + len(c.media)
}

// Stats reports per-tier counts.
func (c *Catalog) Stats() Stats {
	return Stats{
		Total:  c.Len(),
		Urgent: len(c.urgent),
		High:   len(c.high),
		Medium: len(c.medium),
		Low:    len(c.low),
		Social: len(c.social),
		Media:  len(c.media),
	}
}
