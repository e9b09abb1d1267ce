package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
)

type Client struct {
	endpoint string
	http     *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

func (e graphQLError) classification() string {
	for _, key := range []string{"classification", "code", "errorType"} {
		if v, ok := e.Extensions[key].(string); ok && v != "" {
			return strings.ToUpper(v)
		}
	}
	return ""
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphQLError             `json:"errors"`
}

// authorize returns the bearer token for s, or ErrUnauthenticated. It runs
// before any request is built.
func authorize(s *session.Session) (string, error) {
	token, ok := s.BearerToken()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

// do runs one operation and decodes data[operation] into out. A null result
// is reported as NOT_FOUND. token may be empty for anonymous operations.
func (c *Client) do(ctx context.Context, token, operation, query string, vars map[string]any, out any) error {
	payload, err := c.exec(ctx, token, operation, query, vars)
	if err != nil {
		return err
	}
	if isNull(payload) {
		return &domain.RemoteRejectedError{Operation: operation, Message: "no result returned", Classification: "NOT_FOUND"}
	}
	return decode(operation, payload, out)
}

// doList is do for list operations, where a null result means an empty list.
func (c *Client) doList(ctx context.Context, token, operation, query string, out any) error {
	payload, err := c.exec(ctx, token, operation, query, nil)
	if err != nil || isNull(payload) {
		return err
	}
	return decode(operation, payload, out)
}

func (c *Client) exec(ctx context.Context, token, operation, query string, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Operation: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Operation: operation, Err: err}
	}

	var decoded graphQLResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &domain.RemoteRejectedError{Operation: operation, Message: "credential rejected", Classification: "UNAUTHORIZED"}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &domain.RemoteRejectedError{Operation: operation, Message: "access denied", Classification: "FORBIDDEN"}
	case decodeErr != nil || resp.StatusCode >= http.StatusInternalServerError:
		if decodeErr == nil {
			decodeErr = errors.New(resp.Status)
		}
		return nil, &domain.TransportError{Operation: operation, Err: fmt.Errorf("status %d: %w", resp.StatusCode, decodeErr)}
	}

	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		log.Printf("[gateway] %s rejected: %s", operation, first.Message)
		return nil, &domain.RemoteRejectedError{
			Operation:      operation,
			Message:        first.Message,
			Classification: first.classification(),
		}
	}
	return decoded.Data[operation], nil
}

func isNull(payload json.RawMessage) bool {
	return len(payload) == 0 || string(payload) == "null"
}

func decode(operation string, payload json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.TransportError{Operation: operation, Err: fmt.Errorf("decode %s: %w", operation, err)}
	}
	return nil
}
