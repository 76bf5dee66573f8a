// Package extract turns raw markup and uploaded files into structured documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/pkg/utils"
)

// ErrThinContent marks pages whose body text is empty or below the minimum
// content floor. The caller still records the page checksum so an unchanged
// thin page is not refetched and re-rejected on every run.
var ErrThinContent = errors.New("page content below minimum length")

// TitlePlaceholder is used when a page carries no <title>.
const TitlePlaceholder = "Untitled page"

// HTMLExtractor builds Documents out of raw page markup.
type HTMLExtractor struct {
	minContentLength int
}

// NewHTMLExtractor returns an extractor rejecting pages whose flattened body
// text is shorter than minContentLength characters.
func NewHTMLExtractor(minContentLength int) *HTMLExtractor {
	if minContentLength <= 0 {
		minContentLength = 200
	}
	return &HTMLExtractor{minContentLength: minContentLength}
}

// Page extracts a Document from raw markup fetched at pageURL. Metadata and
// breadcrumbs are collected first; scripts, styles, and chrome regions
// (header, footer, nav) are then removed before the body text is flattened
// with whitespace collapsed. Returns ErrThinContent when the remaining text
// is under the content floor.
func (e *HTMLExtractor) Page(raw []byte, pageURL string) (*models.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	title := utils.CollapseWhitespace(doc.Find("title").First().Text())
	if title == "" {
		title = TitlePlaceholder
	}
	metaDesc := metaContent(doc, "description")
	metaKeywords := metaContent(doc, "keywords")
	breadcrumbs := extractBreadcrumbs(doc)

	doc.Find("script, style, header, footer, nav").Remove()
	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = utils.CollapseWhitespace(body.Text())
	} else {
		text = utils.CollapseWhitespace(doc.Text())
	}
	if len(text) < e.minContentLength {
		return nil, ErrThinContent
	}

	return &models.Document{
		URL:             pageURL,
		Title:           title,
		Text:            text,
		MetaDescription: metaDesc,
		MetaKeywords:    metaKeywords,
		Breadcrumbs:     breadcrumbs,
		ContentType:     Classify(pageURL, breadcrumbs),
	}, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content")
	return strings.TrimSpace(content)
}

// extractBreadcrumbs collects the leaf text of the first breadcrumb trail,
// outermost crumb first, in document order.
func extractBreadcrumbs(doc *goquery.Document) []string {
	trail := doc.Find("nav.breadcrumb, ol.breadcrumb, ul.breadcrumb").First()
	if trail.Length() == 0 {
		return nil
	}
	var crumbs []string
	trail.Find("li, a, span").Each(func(_ int, s *goquery.Selection) {
		// Take leaf nodes only; a <li> wrapping an <a> yields one crumb.
		if s.Children().Length() > 0 {
			return
		}
		if txt := utils.CollapseWhitespace(s.Text()); txt != "" {
			crumbs = append(crumbs, txt)
		}
	})
	return crumbs
}
