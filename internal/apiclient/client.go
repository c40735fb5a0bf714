// Package apiclient is the HTTP transport shared by every backend client.
// It sends JSON with cookie credentials and turns transport failures and
// non-2xx responses into typed errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "blog-web-app-client"
	maxErrorBody     = 64 << 10
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api". Required.
	BaseURL string

	// HTTPClient is used for all requests. When nil a client with Jar and
	// Timeout is built.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil. Defaults to 10s.
	Timeout time.Duration

	// Jar stores the session cookie. Defaults to an empty in-memory jar.
	Jar http.CookieJar

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	UserAgent string
}

// Client sends requests to the blog backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar := cfg.Jar
		if jar == nil {
			jar, err = cookiejar.New(nil)
			if err != nil {
				return nil, fmt.Errorf("apiclient: creating cookie jar: %w", err)
			}
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Jar: jar, Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get sends a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do executes one request. body is JSON-encoded when non-nil; a 2xx response
// body is decoded into out when out is non-nil and the body is not empty.
//
// Errors:
//   - the context error when ctx is done,
//   - a NETWORK_ERROR AppError when no response was received,
//   - *StatusError for non-2xx responses.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (err error) {
	route := routeTemplate(path)
	record := observability.TrackRequest(method, route)
	ctx, span := observability.StartClientSpan(ctx, method, route)
	status := 0
	defer func() {
		record(status)
		observability.EndSpan(span, status, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("apiclient: encoding %s %s body: %w", method, route, marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("apiclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := observability.ExtractRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	observability.InjectHeaders(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.WarnContext(ctx, "backend unreachable",
			slog.String("method", method),
			slog.String("route", route),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return models.NewNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	if status < 200 || status >= 300 {
		statusErr := newStatusError(resp)
		c.logger.DebugContext(ctx, "backend rejected request",
			slog.String("method", method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.String("request_id", requestID),
			slog.String("message", statusErr.Message),
		)
		return statusErr
	}

	if out == nil || status == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return models.NewNetworkError(fmt.Errorf("reading response body: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return models.NewFetchError(status, fmt.Sprintf("malformed response: %v", err))
	}
	return nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

// Cookies returns the cookies the jar would send to the backend.
func (c *Client) Cookies() []*http.Cookie {
	if c.httpClient.Jar == nil {
		return nil
	}
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// SetCookies restores previously saved session cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if c.httpClient.Jar == nil || len(cookies) == 0 {
		return
	}
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies expires every cookie held for the backend.
func (c *Client) ClearCookies() {
	current := c.Cookies()
	if len(current) == 0 {
		return
	}
	expired := make([]*http.Cookie, 0, len(current))
	for _, ck := range current {
		expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
	}
	c.httpClient.Jar.SetCookies(c.baseURL, expired)
}

var idSegment = regexp.MustCompile(`^(\d+|[0-9a-fA-F-]{32,36})$`)

// routeTemplate replaces id-like path segments so metric labels stay bounded.
func routeTemplate(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if idSegment.MatchString(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
