package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Logger is the debug surface the transport reports request outcomes to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}

// Options configures a RestyClient.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	UserAgent string
	// Transport replaces the default round tripper (e.g. an otelhttp transport).
	Transport http.RoundTripper
	Logger    Logger
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
	log    Logger
}

// NewRestyClientWithOptions creates a RestyClient bound to a base URL with default headers.
func NewRestyClientWithOptions(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		c.SetBaseURL(base)
	}
	if opts.AuthToken != "" {
		c.SetAuthToken(opts.AuthToken)
	}
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	}

	var log Logger = noopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}
	return &RestyClient{client: c, log: log}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Get performs an HTTP GET against path, failing on transport errors and non-2xx statuses.
func (r *RestyClient) Get(ctx context.Context, path string, req Request) (Response, error) {
	rr := r.client.R().SetContext(ctx)
	if params := compactParams(req.Params); len(params) > 0 {
		rr.SetQueryParams(params)
	}
	if req.ResponseType == JSON {
		rr.SetHeader("Accept", "application/json")
	}
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}

	start := time.Now()
	resp, err := rr.Get(path)
	if err != nil {
		return nil, err
	}

	r.log.DebugObj("aoi request completed", "http_request", map[string]any{
		"path":        path,
		"status":      resp.StatusCode(),
		"bytes":       len(resp.Body()),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if !resp.IsSuccess() {
		return nil, NewStatusError(http.MethodGet, path, resp.StatusCode(), resp.Body())
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// compactParams drops keys whose value is empty so absent filters are never sent as "key=".
func compactParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) ContentType() string { return r.resp.Header().Get("Content-Type") }
