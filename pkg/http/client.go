package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const errBodyLimit = 4096

// StatusError carries a non-2xx reply. Body is truncated to a few KiB.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, bytes.TrimSpace(e.Body))
}

// Call describes one outbound request. At most one of Form and JSON is sent.
type Call struct {
	Method string
	URL    string
	Query  url.Values
	Form   url.Values
	JSON   any
	Header http.Header
}

// Client is a thin JSON-over-HTTP caller.
type Client struct {
	hc        *http.Client
	userAgent string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// NewClient returns a Client with a 30s overall timeout unless overridden.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{hc: &http.Client{Timeout: 30 * time.Second}, userAgent: "tickpulse"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends call and decodes a 2xx JSON reply into out. A nil out drains the body.
// Non-2xx replies return *StatusError.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	req, err := c.request(ctx, call)
	if err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", call.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &StatusError{Code: resp.StatusCode, Body: body}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s reply: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, call Call) (*http.Request, error) {
	if call.Form != nil && call.JSON != nil {
		return nil, errors.New("call carries both form and json bodies")
	}

	u, err := url.Parse(call.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(call.Query) > 0 {
		q := u.Query()
		for k, vs := range call.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case call.Form != nil:
		body = strings.NewReader(call.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case call.JSON != nil:
		raw, err := json.Marshal(call.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode json body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range call.Header {
		req.Header[k] = vs
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// WithTransport overrides the round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.hc.Transport = rt
	}
}

// WithTimeout bounds a whole exchange. Long-poll callers must exceed their server-side hold time.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header on every call.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}
