package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventradar/internal/discovery"
)

func newSource(t *testing.T) *Source {
	t.Helper()
	src, err := New(DefaultConfig("key", "cse"), nil, zap.NewNop())
	require.NoError(t, err)
	return src
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	assert.Error(t, err)
}

func TestSearchURLCarriesGeoBias(t *testing.T) {
	t.Parallel()

	src := newSource(t)
	u := src.searchURL("concerts this weekend")
	assert.Contains(t, u, "gl=ng")
	assert.Contains(t, u, "cr=countryNG")
	assert.Contains(t, u, "num=10")
	assert.Contains(t, u, "Nigeria+Lagos+Abuja")
}

func TestParseKeepsRelevantEvents(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"items": [
			{
				"title": "Afrobeat Concert in Lagos",
				"snippet": "Live concert at Eko Hotel, Lagos on December 12, 2026.",
				"link": "https://example.com/concert"
			},
			{
				"title": "Concert in London",
				"snippet": "A big show in London next week.",
				"link": "https://example.com/london"
			},
			{
				"title": "Naira exchange rates",
				"snippet": "Daily naira to dollar rates in Nigeria.",
				"link": "https://example.com/fx"
			}
		]
	}`)

	src := newSource(t)
	records, err := src.Parse(discovery.QueryDescriptor{Kind: discovery.KindSearch}, payload)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Afrobeat Concert in Lagos", rec.Title)
	assert.Equal(t, "https://example.com/concert", rec.URL)
	assert.Equal(t, "google_search", rec.Source)
	assert.Equal(t, "December 12, 2026", rec.EventDate)
	assert.Equal(t, "Music", rec.Category)
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	src := newSource(t)
	_, err := src.Parse(discovery.QueryDescriptor{}, []byte("<html>not json</html>"))
	assert.Error(t, err)
}

func TestParseEmptyItems(t *testing.T) {
	t.Parallel()

	src := newSource(t)
	records, err := src.Parse(discovery.QueryDescriptor{}, []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}
