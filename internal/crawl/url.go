// Package crawl provides bounded-concurrency breadth-first crawling of a single origin.
package crawl

import (
	"net/url"
	"strings"
)

// skipExtensions are non-HTML assets the crawler never fetches.
var skipExtensions = []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip", ".doc", ".docx"}

// Normalize canonicalizes a URL for visited-set and frontier comparisons:
// the fragment is stripped and a trailing slash on a non-root path is
// collapsed, so "/servizi/" and "/servizi#top" both normalize to "/servizi".
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}

// SameOrigin reports whether u shares scheme and host with origin.
func SameOrigin(u, origin *url.URL) bool {
	return u.Scheme == origin.Scheme && u.Host == origin.Host
}

// Crawlable reports whether a normalized URL is eligible for fetching:
// http(s) scheme, same origin, and not a known static-asset extension.
func Crawlable(raw string, origin *url.URL) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !SameOrigin(u, origin) {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
