package simpleingest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultFetchTimeout = 15 * time.Second
	fetchUserAgent      = "Mozilla/5.0 (compatible; SimpleIngest/1.0)"
)

// LinkFetcher fetches page metadata for extracted links, preferring
// Open Graph properties over plain HTML title/description. It implements
// LinkEnricher and never fails the caller: on any fetch or parse error it
// returns a minimal record carrying only the security flag and HTTP status.
type LinkFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewLinkFetcher creates a LinkFetcher. A nil client gets a default with a
// bounded timeout; a nil logger is replaced by slog.Default().
func NewLinkFetcher(client *http.Client, logger *slog.Logger) *LinkFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkFetcher{client: client, logger: logger}
}

// Fetch retrieves and parses the page at url. The returned record is never
// nil.
func (f *LinkFetcher) Fetch(ctx context.Context, url string) *LinkMetadata {
	meta := &LinkMetadata{Secure: strings.HasPrefix(strings.ToLower(url), "https://")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		f.logger.Warn("link metadata request build failed", "url", url, "error", err)
		return meta
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("link metadata fetch failed", "url", url, "error", err)
		return meta
	}
	defer resp.Body.Close()

	meta.StatusCode = resp.StatusCode
	meta.ContentType = resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK {
		return meta
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.logger.Warn("link metadata parse failed", "url", url, "error", err)
		return meta
	}

	meta.Title = firstOf(doc,
		"meta[property='og:title']",
		"meta[name='twitter:title']")
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	meta.Description = firstOf(doc,
		"meta[property='og:description']",
		"meta[name='description']")

	meta.ImageURL = firstOf(doc, "meta[property='og:image']")
	meta.SiteName = firstOf(doc, "meta[property='og:site_name']")
	meta.Author = firstOf(doc, "meta[name='author']")
	if ogType := firstOf(doc, "meta[property='og:type']"); ogType != "" {
		meta.ContentType = ogType
	}

	return meta
}

// firstOf returns the content attribute of the first selector that has one.
func firstOf(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).Attr("content"); ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
