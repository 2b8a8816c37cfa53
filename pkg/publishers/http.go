package publishers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/aoi-inspection-client/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = http.MethodPost
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}

	return &httpPublisher{
		id:      cfg.ID,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyHTTPClient(timeout),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish posts the event as JSON. Any non-2xx reply is a delivery failure.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(evt)

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		h.log.ErrorObj("http publisher request failed", "publisher_http_error", deliveryFields(h.id, evt, err))
		return fmt.Errorf("http request: %w", err)
	}
	if !resp.IsSuccess() {
		statusErr := httpclient.NewStatusError(h.method, h.url, resp.StatusCode(), resp.Body())
		h.log.ErrorObj("http publisher rejected", "publisher_http_error", deliveryFields(h.id, evt, statusErr))
		return statusErr
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", deliveryFields(h.id, evt, nil))
	return nil
}
