package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventradar/internal/discovery"
)

func TestNewGroupsByTierPreservingOrder(t *testing.T) {
	t.Parallel()

	c := New([]discovery.QueryDescriptor{
		{Text: "b high", Priority: discovery.PriorityHigh, Kind: discovery.KindSearch},
		{Text: "a urgent", Priority: discovery.PriorityUrgent, Kind: discovery.KindSearch},
		{Text: "c high", Priority: discovery.PriorityHigh, Kind: discovery.KindSearch},
	})

	high := c.ByPriority(discovery.PriorityHigh)
	require.Len(t, high, 2)
	assert.Equal(t, "b high", high[0].Text)
	assert.Equal(t, "c high", high[1].Text)
}

func TestNewDropsUnknownPriority(t *testing.T) {
	t.Parallel()

	c := New([]discovery.QueryDescriptor{
		{Text: "bogus", Priority: "critical", Kind: discovery.KindSearch},
	})
	assert.Equal(t, 0, c.Len())
}

func TestAllReturnsFixedTierOrder(t *testing.T) {
	t.Parallel()

	c := New([]discovery.QueryDescriptor{
		{Text: "low", Priority: discovery.PriorityLow, Kind: discovery.KindSearch},
		{Text: "social", Priority: discovery.PrioritySocial, Kind: discovery.KindSocial},
		{Text: "urgent", Priority: discovery.PriorityUrgent, Kind: discovery.KindSearch},
		{Text: "media", Priority: discovery.PriorityMedia, Kind: discovery.KindMedia},
		{Text: "high", Priority: discovery.PriorityHigh, Kind: discovery.KindSearch},
		{Text: "medium", Priority: discovery.PriorityMedium, Kind: discovery.KindSearch},
	})

	all := c.All()
	require.Len(t, all, 6)
	got := make([]string, 0, len(all))
	for _, q := range all {
		got = append(got, q.Text)
	}
	assert.Equal(t, []string{"urgent", "high", "medium", "low", "social", "media"}, got)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	c := New([]discovery.QueryDescriptor{
		{Text: "urgent", Priority: discovery.PriorityUrgent, Kind: discovery.KindSearch},
	})
	all := c.All()
	all[0].Text = "mutated"
	assert.Equal(t, "urgent", c.All()[0].Text)
}

func TestDefaultCatalogComposition(t *testing.T) {
	t.Parallel()

	stats := Default().Stats()
	assert.Equal(t, 7, stats.Urgent)
	assert.Equal(t, 11, stats.High)
	assert.Equal(t, 10, stats.Medium)
	assert.Equal(t, 10, stats.Low)
	assert.Equal(t, 14, stats.Social)
	assert.Equal(t, 10, stats.Media)
	assert.Equal(t, 62, stats.Total)
}

func TestDefaultCatalogKindsMatchTiers(t *testing.T) {
	t.Parallel()

	c := Default()
	for _, q := range c.ByPriority(discovery.PrioritySocial) {
		assert.Equal(t, discovery.KindSocial, q.Kind)
	}
	for _, q := range c.ByPriority(discovery.PriorityMedia) {
		assert.Equal(t, discovery.KindMedia, q.Kind)
	}
	for _, q := range c.ByPriority(discovery.PriorityUrgent) {
		assert.Equal(t, discovery.KindSearch, q.Kind)
	}
}
