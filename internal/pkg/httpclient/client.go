// Package httpclient is the outbound HTTP client shared by the upstream
// adapters. It runs on fasthttp and records per-service upstream metrics.
package httpclient

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
)

// Request describes one outbound call.
type Request struct {
	Method      string
	URL         string
	ContentType string
	Header      map[string]string
	Body        []byte
}

// Response is the status and a copy of the body of an upstream reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client calls one named upstream service.
type Client struct {
	c         *fasthttp.Client
	service   string
	timeout   time.Duration
	userAgent string
}

// New creates a Client for service. timeout bounds every call unless the
// context deadline is earlier.
func New(service string, timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		c: &fasthttp.Client{
			Name:                     userAgent,
			MaxConnsPerHost:          32,
			MaxIdleConnDuration:      30 * time.Second,
			NoDefaultUserAgentHeader: userAgent != "",
		},
		service:   service,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Service returns the upstream name used in errors and metrics.
func (c *Client) Service() string {
	return c.service
}

// Do performs the request. Transport failures are returned as upstream
// errors; any HTTP status is returned to the caller for interpretation.
func (c *Client) Do(ctx context.Context, r Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, domain.UpstreamError(c.service, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	method := r.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	req.Header.SetMethod(method)
	req.SetRequestURI(r.URL)
	if r.ContentType != "" {
		req.Header.SetContentType(r.ContentType)
	}
	if c.userAgent != "" {
		req.Header.SetUserAgent(c.userAgent)
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	if len(r.Body) > 0 {
		req.SetBody(r.Body)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	start := time.Now()
	if err := c.c.DoTimeout(req, resp, timeout); err != nil {
		metrics.ObserveUpstream(c.service, 0, start)
		return Response{}, domain.UpstreamError(c.service, err)
	}
	metrics.ObserveUpstream(c.service, resp.StatusCode(), start)

	return Response{
		Status: resp.StatusCode(),
		Body:   append([]byte(nil), resp.Body()...),
	}, nil
}
