// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"net/url"
	"strings"
	"time"
)

const (
	minTitleLength   = 20
	minSnippetLength = 50
)

// trustedDomains are outlets whose results earn a source-quality boost
// downstream. Matching is by host suffix.
var trustedDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"ft.com",
	"wsj.com",
	"economist.com",
	"apnews.com",
	"bbc.com",
	"bbc.co.uk",
	"cnbc.com",
	"aljazeera.com",
	"foreignpolicy.com",
	"csis.org",
}

// lowQualityPatterns mark aggregator and junk URLs dropped before scoring.
var lowQualityPatterns = []string{
	"/tag/",
	"/tags/",
	"/topic/",
	"/topics/",
	"/category/",
	"/search?",
	"/author/",
	"pinterest.",
	"facebook.com",
	"twitter.com",
	"x.com/",
	"reddit.com",
	"youtube.com",
}

// AcceptResult applies the quality gate: substantial title and snippet,
// and a URL that is neither empty nor a known junk pattern.
func AcceptResult(title, snippet, rawURL string) bool {
	if len(strings.TrimSpace(title)) < minTitleLength {
		return false
	}
	if len(strings.TrimSpace(snippet)) < minSnippetLength {
		return false
	}
	if rawURL == "" || isLowQualityURL(rawURL) {
		return false
	}
	return true
}

func isLowQualityURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range lowQualityPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsTrustedDomain reports whether the URL's host belongs to a trusted
// outlet.
func IsTrustedDomain(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, domain := range trustedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// SourceName derives a readable source label from the URL host, e.g.
// "www.reuters.com" becomes "reuters.com".
func SourceName(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return "web"
	}
	return strings.TrimPrefix(host, "www.")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// parseDate tries the timestamp layouts the providers emit. A zero time
// means unparseable; the scorer substitutes the current time.
func parseDate(value string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"Jan 2, 2006",
		"January 2, 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
