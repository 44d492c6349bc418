// Package selector ranks catalog queries for a run. Selection is a pure
// function of the catalog, the run kind, and the call budget: no
// randomization, stable ordering, ties kept in catalog insertion order.
package selector

import (
	"sort"

	"eventradar/internal/catalog"
	"eventradar/internal/discovery"
)

// Selector ranks queries by a priority weight table.
type Selector struct {
	weights map[discovery.Priority]int
}

// New builds a Selector. A nil weights map uses the built-in table
// (Urgent > High > Media > Medium > Social > Low).
func New(weights map[discovery.Priority]int) *Selector {
	return &Selector{weights: weights}
}

// Select returns the top queries for the run kind that fit maxCalls.
func (s *Selector) Select(kind discovery.RunKind, maxCalls int, cat *catalog.Catalog) []discovery.QueryDescriptor {
	if maxCalls <= 0 || cat == nil {
		return nil
	}
	switch kind {
	case discovery.RunComprehensive:
		return s.comprehensive(maxCalls, cat)
	case discovery.RunQuick:
		return truncate(append(
			cat.ByPriority(discovery.PriorityUrgent),
			cat.ByPriority(discovery.PriorityHigh)...,
		), maxCalls)
	case discovery.RunSocial:
		return truncate(cat.ByPriority(discovery.PrioritySocial), maxCalls)
	default:
		return nil
	}
}

// comprehensive merges every tier and stable-sorts by descending weight.
func (s *Selector) comprehensive(maxCalls int, cat *catalog.Catalog) []discovery.QueryDescriptor {
	all := cat.All()
	sort.SliceStable(all, func(i, j int) bool {
		return s.weight(all[i].Priority) > s.weight(all[j].Priority)
	})
	return truncate(all, maxCalls)
}

func (s *Selector) weight(p discovery.Priority) int {
	if s.weights != nil {
		return s.weights[p]
	}
	return p.Weight()
}

func truncate(queries []discovery.QueryDescriptor, n int) []discovery.QueryDescriptor {
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries
}
