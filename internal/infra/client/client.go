// Package client is the live adapter for the upstream backoffice REST API.
// Every call goes through a bulkhead, a circuit breaker and retry with
// backoff, and is traced.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

const serviceName = "backoffice-api"

// StatusError is a non-2xx response from the backoffice API. Its text always
// carries the HTTP status text ("Bad Request", "Unauthorized", ...).
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s returned %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// BackofficeClient implements port.BackofficeAPI over HTTP.
type BackofficeClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewBackofficeClient creates a new BackofficeClient. token, when set, is
// sent as a bearer token on every request.
func NewBackofficeClient(httpClient *http.Client, baseURL, token string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *BackofficeClient {
	return &BackofficeClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
	}
}

// Ping checks that the API answers its health endpoint.
func (c *BackofficeClient) Ping(ctx context.Context) error {
	return c.do(ctx, "Ping", http.MethodGet, "/health", nil, nil, nil)
}

// do performs one API call with bulkhead, circuit breaker, retry and
// tracing. 4xx responses are not retried and do not trip the breaker.
func (c *BackofficeClient) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	ctx, span := tracer.Start(ctx, "BackofficeClient."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("backoffice.path", path),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: op}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.roundTrip(ctx, method, path, query, in, out)
		})
		if isClientError(innerErr) {
			return nil, resilience.Permanent(innerErr)
		}
		return nil, innerErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return wrapError(op, err)
	}
	return nil
}

func (c *BackofficeClient) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resilience.Permanent(&domain.ErrNotFound{Resource: resourceOf(path), ID: path})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
		if resp.StatusCode < 500 {
			return resilience.Permanent(serr)
		}
		return serr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

// wrapError maps transport failures to domain errors.
func wrapError(op string, err error) error {
	var perm *resilience.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: serviceName}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: op}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.ErrTimeout{Operation: op}
	}
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500
	}
	return false
}

// readMessage extracts {"message": "..."} or {"error": "..."} from an error
// body, falling back to the trimmed raw text.
func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(b))
}

// resourceOf names the resource addressed by path ("/users/u1/wallets" ->
// "wallets").
func resourceOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if p := parts[i]; p != "" && !looksLikeID(p) {
			return p
		}
	}
	return "resource"
}

func looksLikeID(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}
