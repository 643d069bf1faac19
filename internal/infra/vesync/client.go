package vesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"vesync/internal/infra"
)

const (
	// DefaultBaseURL is the VeSync cloud API host.
	DefaultBaseURL = "https://smartapi.vesync.com"

	// DefaultSwitchType is the device-type segment used in power commands.
	DefaultSwitchType = "wifi-switch-1.3"

	DefaultTimeout = 15 * time.Second

	headerToken     = "tk"
	headerAccountID = "accountid"
	headerRequestID = "X-Request-ID"
)

// Client talks to the VeSync cloud. It holds no account state; every
// authenticated call takes the *Session returned by Login.
type Client struct {
	baseURL    string
	switchType string
	httpClient *http.Client
	retry      infra.RetryConfig
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of each HTTP exchange, connect and read included.
// A client passed with WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		var hc http.Client
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithRetry retries transport failures and retryable status codes with
// backoff. Without it every request is attempted exactly once.
func WithRetry(cfg infra.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSwitchType overrides the device-type segment of the power command path.
// The same segment is used for every device regardless of its reported type.
func WithSwitchType(switchType string) Option {
	return func(c *Client) {
		if switchType != "" {
			c.switchType = switchType
		}
	}
}

func NewClient(opts ...Option) *Client {
	return NewClientWithURL(DefaultBaseURL, opts...)
}

func NewClientWithURL(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		switchType: DefaultSwitchType,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retry:      infra.NoRetry(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// buildURL joins the base host and a path that starts with "/".
func (c *Client) buildURL(path string) string {
	return c.baseURL + path
}

// doRequest performs one logical API call and returns the 2xx response body.
// session may be nil for unauthenticated calls.
func (c *Client) doRequest(ctx context.Context, method, path string, session *Session, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		payload = data
	}

	requestID := uuid.NewString()

	var (
		respBody []byte
		status   int
	)
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set(headerRequestID, requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if session != nil {
			req.Header.Set(headerToken, session.Token)
			req.Header.Set(headerAccountID, session.AccountID)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "vesync request failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("request_id", requestID),
				slog.Duration("duration", time.Since(start)),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		status = resp.StatusCode

		c.logger.LogAttrs(ctx, slog.LevelDebug, "vesync request",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)

		if err != nil {
			return fmt.Errorf("%w: reading response: %w", ErrTransport, err)
		}

		if infra.IsRetryableHTTPStatus(status) {
			return newAPIError(status, respBody)
		}

		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	if status < 200 || status >= 300 {
		return nil, newAPIError(status, respBody)
	}

	return respBody, nil
}

// decodeRecord unmarshals one JSON object into v after checking that every
// required field is present and non-null. Unknown fields are ignored.
func decodeRecord(data []byte, v any, required []string) error {
	if len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		for _, name := range required {
			raw, ok := fields[name]
			if !ok || string(raw) == "null" {
				return fmt.Errorf("%w: missing field %q", ErrDecode, name)
			}
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return nil
}
