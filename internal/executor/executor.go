package executor

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/types"
)

const (
	// HTTP client configuration timeouts
	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second

	// DefaultRequestTimeout bounds a single request end to end
	DefaultRequestTimeout = 30 * time.Second
)

// URLError reports a URL that cannot be turned into a request
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }

// TransportError reports a connect, timeout or protocol failure
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response whose status is not 200. The response
// is still attached so headers can be inspected.
type StatusError struct {
	URL    string
	Code   int
	Result *types.RequestResult
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-200 response from %s: %d", e.URL, e.Code)
}

// Options configures a Client
type Options struct {
	Timeout  time.Duration
	MaxConns int
	Logger   *zap.Logger
}

// Client issues GET requests against the target over one pooled transport
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client with connection pooling sized to MaxConns
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 512
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	transport := &http.Transport{
		MaxIdleConns:        opts.MaxConns,
		MaxIdleConnsPerHost: opts.MaxConns,
		IdleConnTimeout:     IdleConnTimeout,
		// Size headers must reach the validator exactly as sent
		DisableCompression: true,
		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,
		ResponseHeaderTimeout: opts.Timeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: opts.Logger,
	}
}

// ValidateURL checks that rawURL is an absolute http(s) URL
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &URLError{URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &URLError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &URLError{URL: rawURL, Err: fmt.Errorf("missing host")}
	}
	return nil
}

// Fetch performs a GET and returns status, headers and body.
// Errors are *URLError, *TransportError or *StatusError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*types.RequestResult, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	c.logger.Debug("Accessing URL", zap.String("url", rawURL))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &URLError{URL: rawURL, Err: err}
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	result := &types.RequestResult{
		URL:          rawURL,
		Status:       resp.StatusCode,
		StatusText:   resp.Status,
		Headers:      responseHeaders(resp),
		Body:         string(bodyBytes),
		Duration:     duration,
		ResponseSize: len(bodyBytes),
	}

	if resp.StatusCode != http.StatusOK {
		return result, &StatusError{URL: rawURL, Code: resp.StatusCode, Result: result}
	}
	return result, nil
}

// Status performs a GET, discards the body and returns the status code
func (c *Client) Status(ctx context.Context, rawURL string) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &URLError{URL: rawURL, Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return resp.StatusCode, &TransportError{URL: rawURL, Err: err}
	}
	return resp.StatusCode, nil
}

// CloseIdleConnections releases pooled connections
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// responseHeaders flattens resp.Header and restores the framing headers
// net/http moves out of the map.
func responseHeaders(resp *http.Response) types.Headers {
	headers := make(types.Headers, len(resp.Header)+1)
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}
	if len(resp.TransferEncoding) > 0 {
		headers["Transfer-Encoding"] = strings.Join(resp.TransferEncoding, ", ")
	} else if _, ok := headers["Content-Length"]; !ok && resp.ContentLength >= 0 && !resp.Uncompressed {
		headers["Content-Length"] = strconv.FormatInt(resp.ContentLength, 10)
	}
	return headers
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
