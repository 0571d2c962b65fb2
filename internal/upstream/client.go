// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upstream fetches JSON documents from the content API.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ManuGH/radiopage/internal/cache"
	"github.com/ManuGH/radiopage/internal/document"
	xglog "github.com/ManuGH/radiopage/internal/log"
	"github.com/ManuGH/radiopage/internal/metrics"
	"github.com/ManuGH/radiopage/internal/resilience"
	"github.com/ManuGH/radiopage/internal/telemetry"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
	maxErrorBody   = 256
)

// Response is a successfully fetched document.
type Response struct {
	Doc    document.Value
	Status int
}

// Fetcher is the contract the page-data assembler depends on.
type Fetcher interface {
	Fetch(ctx context.Context, path, pageType string) (Response, error)
}

// Options tunes a Client. Zero values disable the optional layers.
type Options struct {
	Endpoint   string        // label used in logs, metrics and cache keys
	Timeout    time.Duration // per-call timeout
	RatePerSec float64       // outbound pacing; 0 disables
	Burst      int
	Breaker    *resilience.CircuitBreaker
	Cache      cache.Cache
	CacheTTL   time.Duration
	Transport  http.RoundTripper
}

// Client fetches JSON documents relative to a base URL. It never retries.
type Client struct {
	base     string
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	cache    cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group
	logger   zerolog.Logger
}

// New creates a Client for base.
func New(base string, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = "primary"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		base:     strings.TrimRight(base, "/"),
		endpoint: opts.Endpoint,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		breaker:  opts.Breaker,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   xglog.WithComponent("upstream").With().Str("endpoint", opts.Endpoint).Logger(),
	}
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	if c.cache == nil || c.cacheTTL <= 0 {
		c.cache = cache.NoOp{}
	}
	return c
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.http.Timeout }

// Endpoint returns the client's label.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch GETs base+path and parses the body as a document. Non-2xx statuses
// are returned as *Error wrapping ErrNonSuccessStatus with the status set.
//
// Concurrent fetches of the same path share one upstream call. The shared
// call is detached from the callers' cancellation and bounded by the client
// timeout; each caller stops waiting when its own ctx is done.
func (c *Client) Fetch(ctx context.Context, path, pageType string) (Response, error) {
	key := c.endpoint + ":" + path
	if raw, ok := c.cache.Get(ctx, key); ok {
		metrics.RecordUpstreamCache(c.endpoint, true)
		if status, body, ok := decodeCached(raw); ok {
			if doc, err := document.Parse(body); err == nil {
				return Response{Doc: doc, Status: status}, nil
			}
		}
		c.cache.Delete(ctx, key)
	} else if c.cacheTTL > 0 {
		metrics.RecordUpstreamCache(c.endpoint, false)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		res, err := c.fetch(sctx, path, pageType)
		if err != nil {
			return nil, err
		}
		c.cache.Set(sctx, key, encodeCached(res.Status, res.body), c.cacheTTL)
		return res.Response, nil
	})

	select {
	case r := <-ch:
		if r.Shared {
			c.logger.Debug().Str(xglog.FieldPath, path).Msg("collapsed duplicate upstream request")
		}
		if r.Err != nil {
			return Response{}, r.Err
		}
		return r.Val.(Response), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, c.wrap(path, ErrTimeout, 0, "", ctx.Err())
		}
		return Response{}, ctx.Err()
	}
}

// Cache entries are "<status>\n<body>".
func encodeCached(status int, body []byte) []byte {
	out := make([]byte, 0, len(body)+4)
	out = strconv.AppendInt(out, int64(status), 10)
	out = append(out, '\n')
	return append(out, body...)
}

func decodeCached(raw []byte) (int, []byte, bool) {
	i := bytes.IndexByte(raw, '\n')
	if i <= 0 {
		return 0, nil, false
	}
	status, err := strconv.Atoi(string(raw[:i]))
	if err != nil || status < 200 || status > 299 {
		return 0, nil, false
	}
	return status, raw[i+1:], true
}

type fetched struct {
	Response
	body []byte
}

func (c *Client) fetch(ctx context.Context, path, pageType string) (fetched, error) {
	ctx, span := telemetry.Tracer("radiopage/upstream").Start(ctx, "upstream.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.UpstreamEndpointKey, c.endpoint),
		attribute.String(telemetry.PagePathKey, path),
		attribute.String(telemetry.PageTypeKey, pageType),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fetched{}, c.wrap(path, ErrTimeout, 0, "", err)
		}
	}

	var out fetched
	call := func() error {
		var err error
		out, err = c.do(ctx, path, pageType)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = c.wrap(path, ErrTransport, 0, "", err)
		}
	} else {
		err = call()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, StatusOf(err)))
		return fetched{}, err
	}
	span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, out.Status))
	return out, nil
}

func (c *Client) do(ctx context.Context, path, pageType string) (fetched, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fetched{}, c.wrap(path, ErrTransport, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream(c.endpoint, 0, time.Since(start))
		if errors.Is(err, context.Canceled) {
			return fetched{}, err
		}
		sentinel := ErrTransport
		if isTimeout(err) {
			sentinel = ErrTimeout
		}
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "upstream.transport_error").
			Str(xglog.FieldPath, path).
			Str(xglog.FieldPageType, pageType).
			Msg("upstream request failed")
		return fetched{}, c.wrap(path, sentinel, 0, "", err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	metrics.ObserveUpstream(c.endpoint, res.StatusCode, time.Since(start))
	if err != nil {
		return fetched{}, c.wrap(path, ErrTransport, res.StatusCode, "", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Info().
			Str(xglog.FieldEvent, "upstream.non_success").
			Str(xglog.FieldPath, path).
			Str(xglog.FieldPageType, pageType).
			Int(xglog.FieldStatus, res.StatusCode).
			Msg("upstream returned non-success status")
		return fetched{}, c.wrap(path, ErrNonSuccessStatus, res.StatusCode, truncate(string(body)), nil)
	}

	doc, err := document.Parse(body)
	if err != nil {
		return fetched{}, c.wrap(path, ErrBadResponse, res.StatusCode, "", err)
	}

	c.logger.Debug().
		Str(xglog.FieldEvent, "upstream.fetched").
		Str(xglog.FieldPath, path).
		Int(xglog.FieldStatus, res.StatusCode).
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("fetched upstream document")

	return fetched{Response: Response{Doc: doc, Status: res.StatusCode}, body: body}, nil
}

func (c *Client) wrap(path string, sentinel error, status int, body string, cause error) *Error {
	return &Error{Sentinel: sentinel, Endpoint: c.endpoint, Path: path, Status: status, Body: body, Err: cause}
}

// NewBreaker builds a circuit breaker that only counts outages (transport
// failures, timeouts and 5xx) against the upstream.
func NewBreaker(name string, threshold int, reset time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(name, threshold, reset,
		resilience.WithFailurePredicate(countsAsOutage))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// Ping checks reachability of the upstream base URL for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_ = res.Body.Close()
	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: HTTP %d", ErrNonSuccessStatus, res.StatusCode)
	}
	return nil
}
