package assets

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/internal/logger"
	"github.com/samvad-hq/campaign-mirror/internal/site"
	"github.com/samvad-hq/campaign-mirror/pkg/httpclient"
)

const (
	DefaultPrefix    = "assets/mailchimpGallery"
	fallbackFileName = "tmp.bin"
)

// DefaultHosts are the content origins whose images get mirrored.
var DefaultHosts = []string{"gallery.mailchimp.com", "mcusercontent.com"}

// Downloader fetches allow-listed images referenced by a campaign body and
// turns them into publish items under a mirrored key prefix.
type Downloader struct {
	client    httpclient.Client
	allowed   map[string]struct{}
	prefix    string
	mirrorDir string
	log       logger.Logger
}

// Options configures a Downloader.
type Options struct {
	Hosts []string
	// Prefix is the object key prefix for mirrored images.
	Prefix string
	// MirrorDir, when set, receives a local copy of every image under Prefix.
	MirrorDir string
}

// NewDownloader builds a downloader with the provided HTTP client (or default).
func NewDownloader(client httpclient.Client, opts Options, log logger.Logger) *Downloader {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	hosts := opts.Hosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}
	prefix := strings.Trim(strings.TrimSpace(opts.Prefix), "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Downloader{
		client:    client,
		allowed:   allowed,
		prefix:    prefix,
		mirrorDir: opts.MirrorDir,
		log:       logger.Ensure(log),
	}
}

// Allowed reports whether rawURL is an absolute URL on an allow-listed host.
func (d *Downloader) Allowed(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() {
		return false
	}
	_, ok := d.allowed[strings.ToLower(u.Hostname())]
	return ok
}

// ImageRefs returns the distinct allow-listed img sources in body, in document order.
func (d *Downloader) ImageRefs(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse campaign body: %w", err)
	}

	seen := make(map[string]struct{})
	var refs []string
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		src = strings.TrimSpace(src)
		if !d.Allowed(src) {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		refs = append(refs, src)
	})
	return refs, nil
}

// Collect downloads every allow-listed image in body. Any download failure aborts.
func (d *Downloader) Collect(ctx context.Context, body string) ([]domain.PublishItem, error) {
	refs, err := d.ImageRefs(body)
	if err != nil {
		return nil, err
	}

	items := make([]domain.PublishItem, 0, len(refs))
	for _, ref := range refs {
		item, err := d.download(ctx, ref)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *Downloader) download(ctx context.Context, ref string) (domain.PublishItem, error) {
	resp, err := d.client.Get(ctx, ref, nil)
	if err != nil {
		return domain.PublishItem{}, fmt.Errorf("download image %s: %w", ref, err)
	}
	if !httpclient.IsSuccess(resp) {
		return domain.PublishItem{}, fmt.Errorf("download image %s: status %d", ref, resp.StatusCode())
	}

	final := resp.URL()
	if final == "" {
		final = ref
	}
	name := FileName(final)
	key := d.prefix + "/" + name

	if d.mirrorDir != "" {
		if _, err := site.WriteFile(d.mirrorDir, key, resp.Body()); err != nil {
			return domain.PublishItem{}, fmt.Errorf("mirror image %s: %w", ref, err)
		}
	}

	d.log.InfoObj("image downloaded", "image", map[string]any{
		"source": ref,
		"key":    key,
		"bytes":  len(resp.Body()),
	})

	return domain.PublishItem{
		Payload:     domain.BytesPayload(resp.Body()),
		Key:         key,
		ContentType: ContentType(name),
	}, nil
}

// FileName returns the last path segment of rawURL, or tmp.bin when that
// segment is empty or a dot segment.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackFileName
	}
	segments := strings.Split(u.Path, "/")
	switch last := segments[len(segments)-1]; last {
	case "", ".", "..":
		return fallbackFileName
	default:
		return last
	}
}

// ContentType maps common image extensions to their MIME type and falls back to text/plain.
func ContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "bmp":
		return "image/bmp"
	case "gif":
		return "image/gif"
	default:
		return "text/plain"
	}
}
