// Package adminapi talks to the remote event admin API. Every call is a
// single attempt; failures come back as status.NetworkError or
// status.APIError and are never retried here.
package adminapi

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

	"event-admin/internal/status"
	"event-admin/monitoring"
	"event-admin/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 10 << 20
	breakerName      = "admin-api"
)

var errMissingData = errors.New("response has no data")

type Config struct {
	// BaseURL is the API origin, e.g. https://api.example.com.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// FailureRatio opens the circuit breaker; 0 keeps the default.
	FailureRatio float64
}

type Client struct {
	// baseURL is the API origin without a trailing slash.
	baseURL string

	// token authenticates the dashboard against the API.
	token string

	// hc is the http client.
	hc *http.Client

	// breaker fails calls fast while the API keeps failing.
	breaker *utils.CircuitBreaker

	log *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithBreaker(cb *utils.CircuitBreaker) Option {
	return func(c *Client) {
		if cb != nil {
			c.breaker = cb
		}
	}
}

// New creates an admin API client. A missing or unusable base URL is a
// configuration error (status.ErrNotConfigured).
func New(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, status.ErrNotConfigured
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", status.ErrNotConfigured, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		hc:      &http.Client{Timeout: timeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.breaker == nil {
		log := c.log
		c.breaker = utils.NewCircuitBreaker(breakerName,
			utils.WithMaxRequests(20),
			utils.WithFailureRatio(cfg.FailureRatio),
			utils.WithTimeout(30*time.Second),
			utils.WithIsSuccessful(countsAsHealthy),
			utils.WithStateChange(func(name string, from, to utils.State) {
				log.Warn("admin api breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				monitoring.SetBreakerState(name, int(to))
			}),
		)
	}
	return c, nil
}

// countsAsHealthy keeps answers the API gave on purpose (4xx, success=false)
// from tripping the breaker. Only transport failures and 5xx count.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *status.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// request describes one call against the API.
type request struct {
	resource  string
	operation string
	method    string
	path      string
	body      any

	// fallback is the message shown when the API gives none.
	fallback string
}

func (r request) op() string {
	return r.operation + " " + r.resource
}

// envelope is the JSON wrapper every endpoint answers with.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	TicketCode string          `json:"ticket_code"`
}

func (e *envelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// call sends r and hands the accepted envelope to decode. Logging and
// metrics cover the whole exchange including decoding.
func call[T any](ctx context.Context, c *Client, r request, decode func(*envelope) (T, error)) (T, error) {
	var zero T

	requestID := uuid.NewString()
	start := time.Now()

	env, err := c.send(ctx, r, requestID)
	var out T
	if err == nil {
		out, err = decode(env)
	}

	duration := time.Since(start)
	fields := []zap.Field{
		zap.String("resource", r.resource),
		zap.String("operation", r.operation),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	}

	if err != nil {
		monitoring.TrackAPIRequest(r.resource, r.operation, outcomeOf(err), duration)
		c.log.Warn("admin api request failed", append(fields, zap.Error(err))...)
		return zero, err
	}

	monitoring.TrackAPIRequest(r.resource, r.operation, monitoring.OutcomeSuccess, duration)
	c.log.Debug("admin api request", fields...)
	return out, nil
}

func outcomeOf(err error) string {
	var netErr *status.NetworkError
	if errors.As(err, &netErr) {
		return monitoring.OutcomeNetwork
	}
	return monitoring.OutcomeAPIError
}

// send performs the HTTP exchange through the circuit breaker and returns
// the envelope of an accepted response.
func (c *Client) send(ctx context.Context, r request, requestID string) (*envelope, error) {
	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", r.op(), err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: http.NewRequest: %w", r.op(), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	result, err := c.breaker.Execute(ctx, func() (any, error) {
		return c.exchange(req, r)
	})
	if err != nil {
		var apiErr *status.APIError
		var netErr *status.NetworkError
		if errors.As(err, &apiErr) || errors.As(err, &netErr) {
			return nil, err
		}
		// breaker rejections and a context that ended before sending
		return nil, &status.NetworkError{Op: r.op(), Err: err}
	}
	return result.(*envelope), nil
}

func (c *Client) exchange(req *http.Request, r request) (*envelope, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &status.NetworkError{Op: r.op(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &status.NetworkError{Op: r.op(), Err: fmt.Errorf("read body: %w", err)}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &status.APIError{
			Op:         r.op(),
			StatusCode: resp.StatusCode,
			Message:    r.fallback,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	if !ok {
		return nil, &status.APIError{
			Op:         r.op(),
			StatusCode: resp.StatusCode,
			Message:    firstNonEmpty(env.Error, r.fallback),
		}
	}

	if env.Success != nil && !*env.Success {
		return nil, &status.APIError{
			Op:         r.op(),
			StatusCode: resp.StatusCode,
			Message:    firstNonEmpty(env.Error, env.Message, r.fallback),
		}
	}
	return &env, nil
}

// decodeData requires a data field and decodes it into T.
func decodeData[T any](r request) func(*envelope) (T, error) {
	return func(env *envelope) (T, error) {
		var out T
		if !env.hasData() {
			return out, &status.APIError{Op: r.op(), Message: r.fallback, Err: errMissingData}
		}
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, &status.APIError{Op: r.op(), Message: r.fallback, Err: fmt.Errorf("decode data: %w", err)}
		}
		return out, nil
	}
}

// requireSuccess accepts only envelopes that state success=true.
func requireSuccess(r request, env *envelope) error {
	if env.Success == nil || !*env.Success {
		return &status.APIError{Op: r.op(), Message: firstNonEmpty(env.Error, r.fallback)}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// segment escapes a user-supplied code for use as one path segment.
func segment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
