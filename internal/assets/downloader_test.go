package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/pkg/httpclient"
)

type stubResponse struct {
	body   []byte
	status int
	url    string
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }
func (s stubResponse) URL() string     { return s.url }

// recordingClient answers every GET with a fixed body and records the URLs.
type recordingClient struct {
	status int
	urls   []string
}

func (r *recordingClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	r.urls = append(r.urls, url)
	status := r.status
	if status == 0 {
		status = 200
	}
	return stubResponse{body: []byte("img:" + url), status: status, url: url}, nil
}

const mixedBody = `<table><tr><td>
  <img src="https://gallery.mailchimp.com/abc/images/hero.png">
  <img src="https://tracker.example.net/pixel.gif">
  <img src="https://MCUSERCONTENT.com/def/images/photo.JPG">
  <img src="/relative/logo.png">
  <img src="https://gallery.mailchimp.com/abc/images/hero.png">
  <img alt="no source">
</td></tr></table>`

func TestCollectOnlyFetchesAllowListedHosts(t *testing.T) {
	client := &recordingClient{}
	d := NewDownloader(client, Options{}, nil)

	items, err := d.Collect(context.Background(), mixedBody)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(client.urls) != 2 {
		t.Fatalf("expected 2 downloads, got %v", client.urls)
	}
	for _, u := range client.urls {
		if strings.Contains(u, "tracker.example.net") {
			t.Fatalf("third-party image was fetched: %s", u)
		}
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 publish items, got %d", len(items))
	}
	if items[0].Key != "assets/mailchimpGallery/hero.png" || items[0].ContentType != "image/png" {
		t.Fatalf("unexpected first item %#v", items[0])
	}
	if items[1].Key != "assets/mailchimpGallery/photo.JPG" || items[1].ContentType != "image/jpeg" {
		t.Fatalf("unexpected second item %#v", items[1])
	}
	if items[0].Payload.Kind() != domain.PayloadBytes {
		t.Fatalf("image payload should be bytes")
	}
}

func TestCollectFailsOnNonSuccessDownload(t *testing.T) {
	d := NewDownloader(&recordingClient{status: 404}, Options{}, nil)

	if _, err := d.Collect(context.Background(), mixedBody); err == nil {
		t.Fatalf("expected error on failed download")
	}
}

func TestCollectWritesMirrorCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	hostname := host[:strings.LastIndex(host, ":")]
	dir := t.TempDir()
	d := NewDownloader(httpclient.NewRestyClient(0), Options{
		Hosts:     []string{hostname},
		Prefix:    "/assets/gallery/",
		MirrorDir: dir,
	}, nil)

	items, err := d.Collect(context.Background(), `<img src="`+srv.URL+`/x/spinner.gif">`)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 1 || items[0].Key != "assets/gallery/spinner.gif" {
		t.Fatalf("unexpected items %#v", items)
	}
	data, err := os.ReadFile(filepath.Join(dir, "assets", "gallery", "spinner.gif"))
	if err != nil || string(data) != "GIF89a" {
		t.Fatalf("mirror copy %q err=%v", data, err)
	}
}

func TestCollectKeepsDotSegmentsInsidePrefix(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&recordingClient{}, Options{MirrorDir: dir}, nil)

	items, err := d.Collect(context.Background(), `<img src="https://mcusercontent.com/x/.."><img src="https://mcusercontent.com/x/b.png">`)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %#v", items)
	}
	if items[0].Key != "assets/mailchimpGallery/tmp.bin" || items[1].Key != "assets/mailchimpGallery/b.png" {
		t.Fatalf("unexpected keys %q %q", items[0].Key, items[1].Key)
	}
	if info, err := os.Stat(filepath.Join(dir, "assets", "mailchimpGallery")); err != nil || !info.IsDir() {
		t.Fatalf("gallery mirror dir should remain a directory, err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "assets", "mailchimpGallery", "b.png")); err != nil {
		t.Fatalf("second image not mirrored: %v", err)
	}
}

func TestFileNameFallsBackForTrailingSlash(t *testing.T) {
	cases := map[string]string{
		"https://gallery.mailchimp.com/a/b/c.png":  "c.png",
		"https://gallery.mailchimp.com/a/b/":       "tmp.bin",
		"https://gallery.mailchimp.com":            "tmp.bin",
		"https://gallery.mailchimp.com/a.jpeg?x=1": "a.jpeg",
		"https://mcusercontent.com/x/..":           "tmp.bin",
		"https://mcusercontent.com/x/.":            "tmp.bin",
		"https://mcusercontent.com/x/%2e%2e":       "tmp.bin",
		"https://mcusercontent.com/x/..png":        "..png",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentTypeByExtension(t *testing.T) {
	cases := map[string]string{
		"a.png":  "image/png",
		"a.jpg":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.bmp":  "image/bmp",
		"a.gif":  "image/gif",
		"a.webp": "text/plain",
		"tmp":    "text/plain",
	}
	for in, want := range cases {
		if got := ContentType(in); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}
