// Package google fetches Google Custom Search results and parses them into
// event records.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/relevance"
)

const endpoint = "https://www.googleapis.com/customsearch/v1"

// Config configures the Custom Search client.
type Config struct {
	APIKey    string
	CSEID     string
	UserAgent string
	Timeout   time.Duration
	// QuerySuffix is appended to every query to bias results toward the
	// target region.
	QuerySuffix string
	// Geo parameters passed straight through to the API.
	Geolocation     string
	CountryRestrict string
}

// DefaultConfig returns the Nigeria-biased production settings.
func DefaultConfig(apiKey, cseID string) Config {
	return Config{
		APIKey:          apiKey,
		CSEID:           cseID,
		UserAgent:       "eventradar/1.0",
		Timeout:         20 * time.Second,
		QuerySuffix:     "Nigeria Lagos Abuja",
		Geolocation:     "ng",
		CountryRestrict: "countryNG",
	}
}

// Source implements the search backend over the Custom Search JSON API.
type Source struct {
	cfg    Config
	base   *colly.Collector
	filter *relevance.Filter
	logger *zap.Logger
}

// New constructs a Source.
func New(cfg Config, filter *relevance.Filter, logger *zap.Logger) (*Source, error) {
	if cfg.APIKey == "" || cfg.CSEID == "" {
		return nil, fmt.Errorf("api key and cse id are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if filter == nil {
		filter = relevance.NewFilter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Source{cfg: cfg, base: base, filter: filter, logger: logger}, nil
}

// Fetch executes one Custom Search call and returns the raw JSON response.
func (s *Source) Fetch(ctx context.Context, query discovery.QueryDescriptor) ([]byte, error) {
	collector := s.base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown collector error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("search api status %d: %w", r.StatusCode, err)
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(s.searchURL(query.Text)); err != nil {
		return nil, fmt.Errorf("visit search api: %w", err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			return nil, res.err
		}
		return res.body, nil
	default:
		return nil, errors.New("search fetch produced no result")
	}
}

type fetchResult struct {
	body []byte
	err  error
}

func (s *Source) searchURL(query string) string {
	text := query
	if s.cfg.QuerySuffix != "" {
		text = query + " " + s.cfg.QuerySuffix
	}
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("cx", s.cfg.CSEID)
	params.Set("q", text)
	params.Set("num", "10")
	if s.cfg.Geolocation != "" {
		params.Set("gl", s.cfg.Geolocation)
	}
	if s.cfg.CountryRestrict != "" {
		params.Set("cr", s.cfg.CountryRestrict)
	}
	return endpoint + "?" + params.Encode()
}

// response mirrors the slice of the Custom Search JSON payload we consume.
type response struct {
	Items []item `json:"items"`
}

type item struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	PageMap struct {
		CSEImage []struct {
			Src string `json:"src"`
		} `json:"cse_image"`
	} `json:"pagemap"`
}

// Parse extracts event records from a Custom Search response. Items that do
// not look like events, or that fail the region filter, are dropped.
func (s *Source) Parse(_ discovery.QueryDescriptor, payload []byte) ([]discovery.EventRecord, error) {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]discovery.EventRecord, 0, len(resp.Items))
	for _, it := range resp.Items {
		fullText := it.Title + " " + it.Snippet
		if !s.filter.EventRelated(fullText) || !s.filter.RegionRelevant(fullText) {
			continue
		}
		record := discovery.EventRecord{
			Title:       it.Title,
			Description: it.Snippet,
			URL:         it.Link,
			Source:      "google_search",
			Location:    relevance.ExtractLocation(it.Snippet),
			EventDate:   relevance.ExtractDate(it.Snippet),
			Category:    relevance.Categorize(fullText),
		}
		if len(it.PageMap.CSEImage) > 0 {
			record.ImageURL = it.PageMap.CSEImage[0].Src
		}
		records = append(records, record)
	}
	return records, nil
}
