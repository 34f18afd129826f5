package notifiers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/campaign-mirror/pkg/httpclient"
)

// httpNotifier posts the event as JSON to a webhook.
type httpNotifier struct {
	id     string
	method string
	url    string
	client *resty.Client
}

func newHTTPNotifier(_ context.Context, cfg NotifierConfig, _ Env) (Notifier, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("notifier %q missing http configuration", cfg.ID)
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}

	// Static headers live on the client so every request carries them.
	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeaders(cfg.HTTP.Headers).
		SetHeader("Content-Type", "application/json")

	return &httpNotifier{id: cfg.ID, method: method, url: cfg.HTTP.URL, client: client}, nil
}

func (h *httpNotifier) ID() string   { return h.id }
func (h *httpNotifier) Type() string { return TypeHTTP }

func (h *httpNotifier) Notify(ctx context.Context, evt Event) error {
	resp, err := h.client.R().SetContext(ctx).SetBody(evt).Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", h.method, h.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s: status %d: %s", h.method, h.url, resp.StatusCode(), httpclient.Snippet(resp.Body()))
	}
	return nil
}
