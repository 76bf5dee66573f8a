package crawl

// entry is one pending fetch: a normalized URL and the depth it was
// discovered at. Depth is recorded per frontier entry, not per URL.
type entry struct {
	url   string
	depth int
}

// Frontier is the FIFO pending-to-visit queue driving breadth-first
// traversal. It tracks visited URLs and the shallowest depth each URL has
// been queued at, so a URL is fetched at most once per run regardless of
// how many paths lead to it.
type Frontier struct {
	queue       []entry
	visited     map[string]bool
	queuedDepth map[string]int
}

// NewFrontier returns a frontier seeded with the given normalized URL.
func NewFrontier(seed string) *Frontier {
	f := &Frontier{
		visited:     make(map[string]bool),
		queuedDepth: make(map[string]int),
	}
	f.queue = append(f.queue, entry{url: seed, depth: 0})
	f.queuedDepth[seed] = 0
	return f
}

// Push enqueues a normalized URL at the given depth unless it was already
// visited or already queued at a shallower-or-equal depth.
func (f *Frontier) Push(url string, depth int) {
	if f.visited[url] {
		return
	}
	if d, ok := f.queuedDepth[url]; ok && d <= depth {
		return
	}
	f.queue = append(f.queue, entry{url: url, depth: depth})
	f.queuedDepth[url] = depth
}

// Pop dequeues up to n entries that have not been visited yet, marking each
// as visited on dispatch. Failed fetches therefore stay visited and are not
// retried within the run.
func (f *Frontier) Pop(n int) []entry {
	batch := make([]entry, 0, n)
	for len(f.queue) > 0 && len(batch) < n {
		e := f.queue[0]
		f.queue = f.queue[1:]
		if f.visited[e.url] {
			continue
		}
		f.visited[e.url] = true
		batch = append(batch, e)
	}
	return batch
}

// Empty reports whether no pending entries remain.
func (f *Frontier) Empty() bool {
	return len(f.queue) == 0
}

// VisitedCount returns the number of distinct URLs dispatched so far.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
