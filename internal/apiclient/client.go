// Package apiclient is the authenticated HTTP client for the library service.
//
// Every call attaches the session's bearer token, runs under a fixed deadline,
// and returns failures as *errors.Error with a message a page can show as is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/ratelimit"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

const (
	defaultTimeout   = 8 * time.Second
	defaultUserAgent = "LibraryHub-Web/1.0"

	// maxBodySize caps how much of a response we read.
	maxBodySize = 4 << 20
	// maxMessageLen caps plain-text error bodies shown to users.
	maxMessageLen = 300

	anonymousKey = "anonymous"
)

// User-facing transport messages.
const (
	msgUnreachable = "Could not reach the library service. Check your connection and try again."
	msgTimeout     = "The library service did not respond in time. Please try again."
	msgBadResponse = "The library service sent a response we could not read."
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond and Burst pace calls per session. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client calls the library service.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		http:      &http.Client{},
		tracer:    otel.Tracer("libraryhub/apiclient"),
		logger:    logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		c.limiter = ratelimit.New(cfg.RequestsPerSecond, burst)
	}
	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

type tokenKey struct{}

// WithToken binds a bearer token to ctx. It takes precedence over the
// session in ctx; an empty token sends no Authorization header.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	if s := session.FromContext(ctx); s != nil {
		return s.Token
	}
	return ""
}

func limiterKey(ctx context.Context) string {
	if s := session.FromContext(ctx); s != nil && s.ID != "" {
		return s.ID
	}
	return anonymousKey
}

// Do sends body as JSON to path and decodes a JSON response into out.
// The returned error is always an *errors.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.do(ctx, method, path, body, out)
	return err
}

// do is Do that also returns the trimmed response text, which the service
// uses for the outcome message of most mutating calls.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "apiclient.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	text, status, err := c.roundTrip(ctx, method, path, body, out)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Message(err))
		c.logger.WarnContext(ctx, "library service call failed",
			"method", method,
			"path", path,
			"status", status,
			"error", err,
		)
		return "", err
	}
	return text, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) (string, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, limiterKey(ctx)); err != nil {
			return "", 0, transportError(err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", 0, errors.Wrap(err, errors.CodeInternal, "could not encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", 0, errors.Wrap(err, errors.CodeInternal, "could not build request")
	}

	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", resp.StatusCode, transportError(err)
	}

	c.logger.DebugContext(ctx, "library service call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, errors.Business(resp.StatusCode, errorMessage(data))
	}

	if out != nil && looksLikeJSON(resp.Header.Get("Content-Type"), data) {
		if err := json.Unmarshal(data, out); err != nil {
			return "", resp.StatusCode, errors.Wrap(err, errors.CodeInternal, msgBadResponse)
		}
		return "", resp.StatusCode, nil
	}

	return strings.TrimSpace(string(data)), resp.StatusCode, nil
}

// transportError classifies a failed round trip. Deadline expiry becomes
// TIMEOUT, everything else UNAVAILABLE.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(err, msgTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Timeout(err, msgTimeout)
	}
	return errors.Transport(err, msgUnreachable)
}

// errorMessage extracts a displayable message from an error body: the JSON
// "error" field, then "message", then the body itself when it is plain text.
// A body that parses as JSON never comes back raw.
func errorMessage(data []byte) string {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return ""
	}

	var payload any
	if json.Unmarshal(data, &payload) == nil {
		switch v := payload.(type) {
		case map[string]any:
			for _, key := range []string{"error", "message"} {
				if m, ok := v[key].(string); ok && strings.TrimSpace(m) != "" {
					return truncate(strings.TrimSpace(m), maxMessageLen)
				}
			}
		case string:
			return truncate(strings.TrimSpace(v), maxMessageLen)
		}
		return ""
	}

	// HTML error pages from proxies are not worth showing.
	if strings.HasPrefix(text, "<") || !utf8.ValidString(text) {
		return ""
	}
	return truncate(text, maxMessageLen)
}

func looksLikeJSON(contentType string, data []byte) bool {
	if strings.Contains(contentType, "json") {
		return len(bytes.TrimSpace(data)) > 0
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
