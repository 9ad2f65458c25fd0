package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxErrorBody = 4 << 10

var ErrNoToken = errors.New("no session token")

// Request is a single GraphQL operation.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Error is one entry of a GraphQL "errors" array.
type Error struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
	Path      []any  `json:"path,omitempty"`
}

// Errors is returned when the response carries any GraphQL errors.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, x := range e {
		if x.ErrorType != "" {
			msgs = append(msgs, x.ErrorType+": "+x.Message)
		} else {
			msgs = append(msgs, x.Message)
		}
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql: http %d: %s", e.StatusCode, e.Body)
}

// Authorizer decorates outgoing requests with credentials.
type Authorizer interface {
	Authorize(req *http.Request) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(req *http.Request) error

func (f AuthorizerFunc) Authorize(req *http.Request) error { return f(req) }

// APIKey sends the key in the x-api-key header.
func APIKey(key string) Authorizer {
	return AuthorizerFunc(func(req *http.Request) error {
		req.Header.Set("x-api-key", key)
		return nil
	})
}

// UserPoolToken sends the token returned by token as the raw
// Authorization header value.
func UserPoolToken(token func() string) Authorizer {
	return AuthorizerFunc(func(req *http.Request) error {
		t := token()
		if t == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", t)
		return nil
	})
}

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	auth       Authorizer
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}
func WithAuthorizer(a Authorizer) Option  { return func(c *Client) { c.auth = a } }
func WithLogger(l *slog.Logger) Option    { return func(c *Client) { c.logger = l } }

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do executes req and decodes the "data" member into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if c.auth != nil {
		if err := c.auth.Authorize(httpReq); err != nil {
			return fmt.Errorf("authorize: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", req.OperationName, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("graphql request",
		"operation", req.OperationName,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors Errors          `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
