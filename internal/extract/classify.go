package extract

import (
	"net/url"
	"strings"

	"github.com/civicline/araldo/internal/models"
)

// Category token sets, matched case-insensitively as substrings of the URL
// path and of breadcrumb labels. Italian tokens reflect the institutional
// sites this was built for; English equivalents are included alongside.
var (
	newsTokens      = []string{"notizie", "news"}
	tenderTokens    = []string{"bandi", "bando", "gare", "tender"}
	ordinanceTokens = []string{"ordinanze", "ordinanza", "ordinance"}
)

// Classify assigns a content category from the URL path first, then the
// breadcrumb trail. Rules are checked in priority order (news, tender,
// ordinance); the first match wins and a path match always takes precedence
// over a breadcrumb match. Unmatched pages are generic pages.
func Classify(pageURL string, breadcrumbs []string) string {
	path := ""
	if u, err := url.Parse(pageURL); err == nil {
		path = strings.ToLower(u.Path)
	}

	if containsAny(path, newsTokens) {
		return models.ContentTypeNews
	}
	if containsAny(path, tenderTokens) {
		return models.ContentTypeTender
	}
	if containsAny(path, ordinanceTokens) {
		return models.ContentTypeOrdinance
	}

	crumbs := make([]string, len(breadcrumbs))
	for i, c := range breadcrumbs {
		crumbs[i] = strings.ToLower(c)
	}
	if anyContainsAny(crumbs, newsTokens) {
		return models.ContentTypeNews
	}
	if anyContainsAny(crumbs, tenderTokens) {
		return models.ContentTypeTender
	}
	if anyContainsAny(crumbs, ordinanceTokens) {
		return models.ContentTypeOrdinance
	}
	return models.ContentTypePage
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func anyContainsAny(ss []string, tokens []string) bool {
	for _, s := range ss {
		if containsAny(s, tokens) {
			return true
		}
	}
	return false
}
