package backend

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

	"github.com/rs/zerolog"
	"github.com/sangkips/billdesk-api/internal/config"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
	"github.com/sangkips/billdesk-api/pkg/apperror"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Client talks to the billing backend REST API on behalf of the operator
// whose token is in the request context.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	metrics *telemetry.BillingMetrics
	logger  zerolog.Logger
}

// NewClient creates a backend client. httpClient may be nil.
func NewClient(cfg *config.BackendConfig, httpClient *http.Client, metrics *telemetry.BillingMetrics, logger zerolog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		metrics: metrics,
		logger:  logger.With().Str("component", "backend").Logger(),
	}, nil
}

// clientFor returns an HTTP client that attaches the context's bearer token.
func (c *Client) clientFor(ctx context.Context) *http.Client {
	token, ok := AccessToken(ctx)
	if !ok {
		return c.http
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   interface{}
	accept string
}

// do performs the call and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	data, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.NewBadGatewayError("Backend returned an unreadable response", fmt.Errorf("%s: %w", cl.op, err))
	}
	return nil
}

// send performs the call and returns the raw 2xx body.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, transportError(cl.op, err)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	accept := cl.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.clientFor(ctx).Do(req)
	if err != nil {
		c.metrics.ObserveBackend(cl.op, 0, started)
		c.logger.Warn().Err(err).Str("op", cl.op).Str("method", cl.method).Str("path", cl.path).Msg("backend request failed")
		return nil, transportError(cl.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.ObserveBackend(cl.op, resp.StatusCode, started)
	if err != nil {
		return nil, transportError(cl.op, err)
	}

	c.logger.Debug().
		Str("op", cl.op).
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func transportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(err, http.StatusGatewayTimeout, "Backend did not respond in time")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.NewBadGatewayError("Backend is unreachable", fmt.Errorf("%s: %w", op, err))
}

// errorBody is the FastAPI error shape: detail is a message or a list of
// field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

func statusError(status int, body []byte) error {
	message := http.StatusText(status)
	var fields []apperror.FieldError

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && len(eb.Detail) > 0 {
		var text string
		var list []fieldDetail
		switch {
		case json.Unmarshal(eb.Detail, &text) == nil:
			message = text
		case json.Unmarshal(eb.Detail, &list) == nil:
			message = "Validation failed"
			for _, d := range list {
				fields = append(fields, apperror.FieldError{Field: locPath(d.Loc), Message: d.Msg})
			}
		}
	}

	code := status
	if status >= 500 {
		code = http.StatusBadGateway
		message = "Backend error: " + message
	}
	return &apperror.AppError{Code: code, Message: message, Errors: fields}
}

func locPath(loc []interface{}) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		if i == 0 && p == "body" {
			continue
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

// isNotFound reports whether err is a backend 404
func isNotFound(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}
