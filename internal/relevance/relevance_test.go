package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterRegionRelevance(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	assert.True(t, f.RegionRelevant("Tech meetup in Abuja"))
	assert.False(t, f.RegionRelevant("Tech meetup in Nairobi, Kenya"))
	// Exclusions beat region keywords.
	assert.False(t, f.RegionRelevant("Nigerian artists perform in London"))
	assert.False(t, f.RegionRelevant("Tech meetup somewhere"))
}

func TestFilterEventRelated(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	assert.True(t, f.EventRelated("Annual food festival announced"))
	assert.False(t, f.EventRelated("Fuel prices rise again"))
}

func TestExtractLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Eko Hotel", ExtractLocation("Live concert at Eko Hotel this week"))
	assert.Equal(t, "", ExtractLocation("no location markers here"))
}

func TestExtractDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "March 5, 2026", ExtractDate("Join us on March 5, 2026 in Lagos"))
	assert.Equal(t, "12/05/2026", ExtractDate("Happening 12/05/2026 at the arena"))
	assert.Equal(t, "this weekend", ExtractDate("Do not miss it this weekend!"))
	assert.Equal(t, "", ExtractDate("No date here"))
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Music", Categorize("Live concert with top DJs"))
	assert.Equal(t, "Technology", Categorize("Startup pitch night"))
	assert.Equal(t, "General", Categorize("Community potluck"))
}
