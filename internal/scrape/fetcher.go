package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/pkg/httpclient"
)

// ErrSelectorNotFound means the page had no element matching a required selector.
var ErrSelectorNotFound = errors.New("selector matched no element")

const (
	DefaultCampaignSelector = ".campaign a"
	DefaultContentSelector  = "table"
	DefaultArchiveSelector  = "ul#archive-list"
)

// Selectors locates the pieces of the campaign archive.
type Selectors struct {
	// Campaign matches the newest campaign link on the index page; its href is the detail URL.
	Campaign string
	// Content matches the campaign body on the detail page.
	Content string
	// Archive matches the archive list on the index page.
	Archive string
}

func (s Selectors) withDefaults() Selectors {
	if strings.TrimSpace(s.Campaign) == "" {
		s.Campaign = DefaultCampaignSelector
	}
	if strings.TrimSpace(s.Content) == "" {
		s.Content = DefaultContentSelector
	}
	if strings.TrimSpace(s.Archive) == "" {
		s.Archive = DefaultArchiveSelector
	}
	return s
}

// Fetcher scrapes the campaign archive. It performs no writes.
type Fetcher struct {
	client    httpclient.Client
	selectors Selectors
	headers   map[string]string
}

// NewFetcher constructs a fetcher with the provided HTTP client (or default).
func NewFetcher(client httpclient.Client, selectors Selectors) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &Fetcher{
		client:    client,
		selectors: selectors.withDefaults(),
		headers:   map[string]string{"Accept": "text/html"},
	}
}

// FetchLatest returns the newest campaign linked from the index page.
func (f *Fetcher) FetchLatest(ctx context.Context, indexURL string) (domain.Campaign, error) {
	doc, err := f.document(ctx, indexURL)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("fetch campaign index: %w", err)
	}

	link := doc.Find(f.selectors.Campaign).First()
	if link.Length() == 0 {
		return domain.Campaign{}, fmt.Errorf("campaign link %q: %w", f.selectors.Campaign, ErrSelectorNotFound)
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return domain.Campaign{}, fmt.Errorf("campaign link %q has no href: %w", f.selectors.Campaign, ErrSelectorNotFound)
	}

	detailURL, err := resolveURL(strings.TrimSpace(href), indexURL)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("resolve campaign link: %w", err)
	}

	detail, err := f.document(ctx, detailURL)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("fetch campaign detail: %w", err)
	}
	body, err := outerHTML(detail, f.selectors.Content)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("campaign content: %w", err)
	}

	return domain.Campaign{DetailURL: detailURL, ContentHTML: body}, nil
}

// FetchArchive returns the archive list fragment from the index page.
func (f *Fetcher) FetchArchive(ctx context.Context, indexURL string) (string, error) {
	doc, err := f.document(ctx, indexURL)
	if err != nil {
		return "", fmt.Errorf("fetch campaign archive: %w", err)
	}
	fragment, err := outerHTML(doc, f.selectors.Archive)
	if err != nil {
		return "", fmt.Errorf("archive list: %w", err)
	}
	return fragment, nil
}

func (f *Fetcher) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.client.Get(ctx, pageURL, f.headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch %s: %w", pageURL, err)
	}
	if !httpclient.IsSuccess(resp) {
		return nil, fmt.Errorf("%s returned status %d body: %s", pageURL, resp.StatusCode(), httpclient.Snippet(resp.Body()))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func outerHTML(doc *goquery.Document, selector string) (string, error) {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return "", fmt.Errorf("%q: %w", selector, ErrSelectorNotFound)
	}
	html, err := goquery.OuterHtml(node)
	if err != nil {
		return "", fmt.Errorf("render %q: %w", selector, err)
	}
	return html, nil
}

func resolveURL(ref, base string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(u).String(), nil
}
