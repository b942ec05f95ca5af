// Package urlfetch retrieves external knowledge pages and reduces them to
// plain text. Fetched content goes through a TTL-bounded in-memory cache so
// repeated tool calls against the same URL do not hammer the source.
package urlfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	scriptRE = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleRE  = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagRE    = regexp.MustCompile(`<[^>]+>`)
	spaceRE  = regexp.MustCompile(`[ \t]+`)
	blankRE  = regexp.MustCompile(`\n{3,}`)
)

type cacheEntry struct {
	content string
	expires time.Time
}

// Fetcher fetches URLs and caches the extracted text.
type Fetcher struct {
	mu         sync.RWMutex
	cache      map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	httpClient *http.Client
	maxBody    int64
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithTTL sets how long fetched content stays cached.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) { f.ttl = d }
}

// WithMaxEntries bounds the cache size.
func WithMaxEntries(n int) Option {
	return func(f *Fetcher) { f.maxEntries = n }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.httpClient.Timeout = d }
}

// NewFetcher creates a fetcher with default settings: one hour TTL, 1000
// cached entries, 10 second timeout.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		cache:      make(map[string]cacheEntry),
		ttl:        time.Hour,
		maxEntries: 1000,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxBody:    4 << 20,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the extracted text of a URL and whether it came from cache.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, bool, error) {
	if content, ok := f.cached(rawURL); ok {
		return content, true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", false, fmt.Errorf("read body: %w", err)
	}

	content := ExtractText(string(body))
	f.store(rawURL, content)
	return content, false, nil
}

func (f *Fetcher) cached(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.cache[key]
	if !ok || time.Now().After(entry.expires) {
		return "", false
	}
	return entry.content, true
}

func (f *Fetcher) store(key, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Evict expired entries first; if still over the bound, drop an
	// arbitrary entry rather than tracking recency for a best-effort cache.
	if len(f.cache) >= f.maxEntries {
		now := time.Now()
		for k, v := range f.cache {
			if now.After(v.expires) {
				delete(f.cache, k)
			}
		}
		for k := range f.cache {
			if len(f.cache) < f.maxEntries {
				break
			}
			delete(f.cache, k)
		}
	}

	f.cache[key] = cacheEntry{
		content: content,
		expires: time.Now().Add(f.ttl),
	}
}

// ExtractText strips scripts, styles and markup from an HTML document and
// collapses the remaining whitespace.
func ExtractText(html string) string {
	text := scriptRE.ReplaceAllString(html, " ")
	text = styleRE.ReplaceAllString(text, " ")
	text = tagRE.ReplaceAllString(text, " ")

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(text)

	text = spaceRE.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	text = strings.Join(lines, "\n")
	text = blankRE.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
