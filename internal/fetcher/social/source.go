package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/relevance"
)

const searchBase = "https://x.com/search"

// Source implements the social backend: one search per catalog query,
// rendered headlessly, parsed from the resulting DOM.
type Source struct {
	renderer Renderer
	filter   *relevance.Filter
	logger   *zap.Logger
}

// NewSource constructs a Source over the given renderer.
func NewSource(renderer Renderer, filter *relevance.Filter, logger *zap.Logger) (*Source, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if filter == nil {
		filter = relevance.NewFilter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{renderer: renderer, filter: filter, logger: logger}, nil
}

// Fetch renders the live search page for the query and returns the DOM.
func (s *Source) Fetch(ctx context.Context, query discovery.QueryDescriptor) ([]byte, error) {
	html, err := s.renderer.Render(ctx, searchURL(query.Text))
	if err != nil {
		return nil, fmt.Errorf("render social search: %w", err)
	}
	return html, nil
}

func searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("f", "live")
	return searchBase + "?" + params.Encode()
}

// Parse extracts event records from a rendered feed page. Each post is an
// article element; posts without event vocabulary or regional markers are
// dropped.
func (s *Source) Parse(query discovery.QueryDescriptor, payload []byte) ([]discovery.EventRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("parse feed html: %w", err)
	}

	var records []discovery.EventRecord
	doc.Find("article").Each(func(_ int, post *goquery.Selection) {
		text := normalizeSpace(post.Text())
		if text == "" {
			return
		}
		if !s.filter.EventRelated(text) || !s.filter.RegionRelevant(text) {
			return
		}

		records = append(records, discovery.EventRecord{
			Title:       postTitle(text),
			Description: truncate(text, 300),
			URL:         postURL(post),
			Source:      "social_" + string(query.Kind),
			Location:    relevance.ExtractLocation(text),
			EventDate:   relevance.ExtractDate(text),
			Category:    relevance.Categorize(text),
		})
	})

	s.logger.Debug("parsed social feed",
		zap.String("query", query.Text),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// postTitle takes the first sentence of the post, capped at 100 characters.
func postTitle(text string) string {
	title := text
	if idx := strings.IndexAny(text, ".!?\n"); idx > 0 {
		title = text[:idx]
	}
	return truncate(strings.TrimSpace(title), 100)
}

// postURL finds the post's permalink; status links identify individual posts.
func postURL(post *goquery.Selection) string {
	href := ""
	post.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link, _ := a.Attr("href")
		if strings.Contains(link, "/status/") {
			href = link
			return false
		}
		return true
	})
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		return "https://x.com" + href
	}
	return href
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate caps s at n runes; slicing bytes could split a multibyte
// character and corrupt the title and description fields.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
