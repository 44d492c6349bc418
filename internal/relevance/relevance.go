// Package relevance filters raw search and social results down to regional
// events and extracts coarse structure (location, date, category) from free
// text.
package relevance

import (
	"regexp"
	"strings"
)

var eventKeywords = []string{
	"event", "concert", "festival", "conference", "workshop", "seminar",
	"meetup", "show", "performance", "exhibition", "fair", "party",
	"gathering", "celebration", "ceremony", "competition", "tournament",
}

var regionKeywords = []string{
	"nigeria", "nigerian", "lagos", "abuja", "kano", "ibadan",
	"port harcourt", "benin city", "maiduguri", "zaria", "aba", "jos",
	"naira", "nollywood", "afrobeat", "west africa", ".ng",
	"kaduna", "calabar", "enugu", "warri", "onitsha", "owerri",
}

// excludeKeywords reject results that clearly belong to another region even
// when a region keyword also matched.
var excludeKeywords = []string{
	"mogadishu", "somalia", "kenya", "south africa", "ghana", "uganda",
	"usa", "america", "united states", "britain", "london", "new york",
	"los angeles", "chicago", "canada", "toronto", "australia", "sydney",
	"india", "pakistan", "bangladesh", "dubai", "egypt", "morocco",
	"zimbabwe", "botswana", "zambia", "malawi", "tanzania", "ethiopia",
}

// Filter decides which search results count as regional events.
type Filter struct {
	region  []string
	exclude []string
}

// NewFilter returns the default Nigeria-focused filter.
func NewFilter() *Filter {
	return &Filter{region: regionKeywords, exclude: excludeKeywords}
}

// EventRelated reports whether the text mentions any event vocabulary.
func (f *Filter) EventRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range eventKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RegionRelevant requires at least one region keyword and no exclusion hit.
func (f *Filter) RegionRelevant(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range f.exclude {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, kw := range f.region {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:in|at|@)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z]{2})`),
	regexp.MustCompile(`([A-Z][a-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Boulevard|Blvd))`),
}

// ExtractLocation pulls a best-effort location phrase out of free text.
func ExtractLocation(text string) string {
	for _, pattern := range locationPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:,\s*\d{4})?`),
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`(?i)(?:today|tomorrow|this\s+(?:week|weekend|month))`),
	regexp.MustCompile(`(?i)(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)`),
}

// ExtractDate pulls a best-effort date phrase out of free text. The phrase is
// kept verbatim; no normalization happens here.
func ExtractDate(text string) string {
	for _, pattern := range datePatterns {
		if m := pattern.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// categories maps an event category to the vocabulary that selects it.
// Order matters: the first matching category wins.
var categories = []struct {
	name     string
	keywords []string
}{
	{"Music", []string{"concert", "music", "band", "singer", "album", "tour", "festival"}},
	{"Technology", []string{"tech", "technology", "startup", "coding", "developer", "ai", "software"}},
	{"Business", []string{"business", "networking", "conference", "summit", "corporate"}},
	{"Arts", []string{"art", "gallery", "exhibition", "museum", "painting", "sculpture"}},
	{"Sports", []string{"sports", "game", "match", "tournament", "championship", "athletic"}},
	{"Food", []string{"food", "restaurant", "culinary", "cooking", "chef", "tasting"}},
	{"Education", []string{"workshop", "seminar", "training", "course", "lecture", "class"}},
	{"Entertainment", []string{"comedy", "theater", "show", "performance", "entertainment"}},
}

// Categorize assigns a coarse category from the text, defaulting to General.
func Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, cat := range categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return "General"
}
