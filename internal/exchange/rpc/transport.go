package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/dto"
	"github.com/Artexxx/hr-services/internal/metrics"
)

const (
	defaultTimeout = 3 * time.Second
	defaultRetries = 1
	defaultBackoff = 100 * time.Millisecond
)

// Doer is the part of *fasthttp.Client the clients rely on.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// NewHTTPClient returns the process-wide client shared by all upstream calls.
func NewHTTPClient(name string) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                name,
		MaxConnsPerHost:     256,
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxIdleConnDuration: 30 * time.Second,
	}
}

type options struct {
	doer    Doer
	timeout time.Duration
	retries int
	backoff time.Duration
	cache   PresenceCache
	metrics *metrics.Recorder
}

type Option func(*options)

func WithDoer(d Doer) Option {
	return func(o *options) {
		if d != nil {
			o.doer = d
		}
	}
}

// WithTimeout bounds a single call. Expiry is reported as Indeterminate.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetries sets how many extra attempts an Indeterminate check gets.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.backoff = d
		}
	}
}

func WithPresenceCache(c PresenceCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		timeout: defaultTimeout,
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.doer == nil {
		o.doer = NewHTTPClient("hr-services-rpc")
	}
	return o
}

type transport struct {
	doer    Doer
	timeout time.Duration
	log     zerolog.Logger
}

// get performs a GET bounded by min(ctx deadline, now+timeout).
func (t transport) get(ctx context.Context, url string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := t.doer.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

// getEnvelope fetches url and decodes the {success, message, data} envelope.
// found is false on HTTP 404. Every other failure wraps ErrUpstreamUnavailable.
func getEnvelope[T any](ctx context.Context, t transport, url string) (data T, found bool, err error) {
	status, body, err := t.get(ctx, url)
	if err != nil {
		return data, false, fmt.Errorf("%w: GET %s: %w", ErrUpstreamUnavailable, url, err)
	}

	if status == fasthttp.StatusNotFound {
		return data, false, nil
	}

	if status < 200 || status >= 300 {
		return data, false, fmt.Errorf("%w: GET %s: %w %d", ErrUpstreamUnavailable, url, ErrUpstreamStatus, status)
	}

	var env dto.ApiResponse[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return data, false, fmt.Errorf("%w: GET %s: %w: %v", ErrUpstreamUnavailable, url, ErrMalformedEnvelope, err)
	}

	if !env.Success {
		return data, false, fmt.Errorf("%w: GET %s: %w: %s", ErrUpstreamUnavailable, url, ErrUnsuccessful, env.Message)
	}

	return env.Data, true, nil
}
