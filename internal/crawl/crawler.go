package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Page is one successfully fetched page: the normalized URL, the depth it
// was reached at, and the raw markup.
type Page struct {
	URL   string
	Depth int
	Body  []byte
}

// Limits bound one crawl run: at most MaxPages distinct normalized URLs are
// visited, and links are never expanded past MaxDepth hops from the seed.
type Limits struct {
	MaxPages int
	MaxDepth int
}

// Crawler walks a single origin breadth-first, dispatching fetches in
// bounded batches through its Fetcher.
type Crawler struct {
	fetcher *Fetcher
	batch   int
	logger  *zap.Logger
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithLogger sets a logger for fetch failures and crawl progress.
func WithLogger(l *zap.Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = l }
}

// NewCrawler creates a crawler dispatching fetches in batches of batchSize
// through fetcher. batchSize normally equals the fetcher's concurrency bound.
func NewCrawler(fetcher *Fetcher, batchSize int, opts ...CrawlerOption) *Crawler {
	if batchSize <= 0 {
		batchSize = 5
	}
	c := &Crawler{fetcher: fetcher, batch: batchSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl traverses from seedURL within limits and calls visit sequentially
// for every fetched page, in batch completion order. Pages at exactly
// MaxDepth are fetched but their links are not expanded. Fetch failures are
// logged, leave the URL visited, and are not retried within the run.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, limits Limits, visit func(*Page) error) error {
	seed, err := Normalize(seedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}
	origin, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}

	frontier := NewFrontier(seed)
	for !frontier.Empty() && frontier.VisitedCount() < limits.MaxPages {
		room := limits.MaxPages - frontier.VisitedCount()
		size := c.batch
		if size > room {
			size = room
		}
		batch := frontier.Pop(size)
		if len(batch) == 0 {
			break
		}
		for _, page := range c.fetchBatch(ctx, batch) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if page.Depth < limits.MaxDepth {
				for _, link := range c.extractLinks(page, origin) {
					frontier.Push(link, page.Depth+1)
				}
			}
			if err := visit(page); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

// fetchBatch dispatches the batch concurrently (the fetcher's semaphore
// bounds actual parallelism) and returns the pages that fetched cleanly.
func (c *Crawler) fetchBatch(ctx context.Context, batch []entry) []*Page {
	type result struct {
		page *Page
		err  error
	}
	results := make(chan result, len(batch))
	var wg sync.WaitGroup
	for _, e := range batch {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			body, err := c.fetcher.Fetch(ctx, e.url)
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{page: &Page{URL: e.url, Depth: e.depth, Body: body}}
		}(e)
	}
	wg.Wait()
	close(results)

	pages := make([]*Page, 0, len(batch))
	for r := range results {
		if r.err != nil {
			if c.logger != nil {
				c.logger.Debug("fetch failed", zap.Error(r.err))
			}
			continue
		}
		pages = append(pages, r.page)
	}
	return pages
}

// extractLinks returns the normalized, crawlable same-origin links of page.
func (c *Crawler) extractLinks(page *Page, origin *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs, err := Normalize(base.ResolveReference(ref).String())
		if err != nil {
			return
		}
		if !Crawlable(abs, origin) || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}
