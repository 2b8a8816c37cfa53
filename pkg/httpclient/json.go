package httpclient

import (
	"context"
	"encoding/json"
	"errors"
)

var errInvalidJSON = errors.New("body is not valid JSON")

// GetJSON issues a JSON GET and decodes the body into out.
// Decode failures are reported as *DecodeError; transport errors are returned as-is.
func GetJSON(ctx context.Context, c Client, path string, params map[string]string, out any) error {
	resp, err := c.Get(ctx, path, Request{Params: params, ResponseType: JSON})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// GetRawJSON issues a JSON GET and returns the body verbatim once it is known to be valid JSON.
func GetRawJSON(ctx context.Context, c Client, path string, params map[string]string) (json.RawMessage, error) {
	resp, err := c.Get(ctx, path, Request{Params: params, ResponseType: JSON})
	if err != nil {
		return nil, err
	}
	body := resp.Body()
	if !json.Valid(body) {
		return nil, &DecodeError{Path: path, Err: errInvalidJSON}
	}
	return json.RawMessage(body), nil
}
