package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every call to the target API.
const DefaultTimeout = 30 * time.Second

// Auth schemes for the target API.
const (
	AuthSchemeBearer = "bearer" // Authorization: Bearer <key>
	AuthSchemeHeader = "header" // X-API-Key: <key>
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, replacing the default transport
// and timeout entirely.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout used by the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithAuth attaches an API key under the given scheme to every call.
func WithAuth(scheme, apiKey string) Option {
	return func(c *Client) {
		c.authScheme = scheme
		c.apiKey = apiKey
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client invokes operations on the target API. Parameters are routed by
// method: path placeholders are substituted first and the keys they consume
// removed, remaining keys go to the query string for GET and to a JSON body
// for everything else.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	apiKey     string
	authScheme string
	logger     *slog.Logger
}

// New creates a client for the target API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c
}

// Result is the outcome of a completed call, whatever the status code. Body
// holds the JSON-decoded response when the payload is valid JSON, otherwise
// the raw text.
type Result struct {
	StatusCode int
	Body       any
	RawBody    []byte
}

// Success reports whether the response status is 2xx.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Call performs one request against the path template. Every {name}
// placeholder must have a matching key in params; a missing one is a
// pre-flight error and no network attempt is made.
func (c *Client) Call(ctx context.Context, pathTemplate, method string, params map[string]any) (*Result, error) {
	remaining := make(map[string]any, len(params))
	for k, v := range params {
		remaining[k] = v
	}

	path := pathTemplate
	for _, match := range placeholderPattern.FindAllStringSubmatch(pathTemplate, -1) {
		name := match[1]
		value, ok := remaining[name]
		if !ok {
			return nil, &CallError{Kind: KindMissingPathParam, Param: name}
		}
		path = strings.ReplaceAll(path, match[0], url.PathEscape(paramString(value)))
		delete(remaining, name)
	}

	method = strings.ToUpper(method)

	var body io.Reader
	if method != http.MethodGet {
		payload, err := json.Marshal(remaining)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if method == http.MethodGet && len(remaining) > 0 {
		query := url.Values{}
		for k, v := range remaining {
			query.Set(k, paramString(v))
		}
		req.URL.RawQuery = query.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	c.logger.Debug("calling target api", slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &CallError{Kind: KindTimeout, Err: err}
		}
		return nil, &CallError{Kind: KindConnection, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Kind: KindConnection, Err: err}
	}

	result := &Result{StatusCode: resp.StatusCode, RawBody: raw}
	if len(raw) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			result.Body = decoded
		} else {
			result.Body = string(raw)
		}
	}
	return result, nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	switch c.authScheme {
	case AuthSchemeHeader:
		req.Header.Set("X-API-Key", c.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// paramString renders a parameter value for a path segment or query string.
// Structured values are rendered as JSON.
func paramString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]any, []any:
		if b, err := json.Marshal(s); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
