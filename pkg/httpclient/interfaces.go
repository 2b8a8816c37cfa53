package httpclient

import "context"

// ResponseType tells the transport how the caller intends to read the body.
type ResponseType int

const (
	// JSON bodies are requested with an application/json Accept header.
	JSON ResponseType = iota
	// Binary bodies (images) are returned untouched.
	Binary
)

// Request carries the per-call options for a GET.
type Request struct {
	// Params become the query string. Keys with empty values are dropped.
	Params       map[string]string
	Headers      map[string]string
	ResponseType ResponseType
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	ContentType() string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations must return an error for transport failures and for any
// non-2xx status; callers only ever see successful bodies.
type Client interface {
	Get(ctx context.Context, path string, req Request) (Response, error)
}
