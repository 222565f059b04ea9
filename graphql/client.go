package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TokenSource returns the current access token, empty when signed out.
// It is read synchronously on every outbound request and connection attempt.
type TokenSource func() string

// Request is a GraphQL operation to execute.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Config holds construction parameters for a Client.
type Config struct {
	// HTTPURL serves queries and mutations.
	HTTPURL string
	// WSURL serves subscriptions over graphql-transport-ws.
	WSURL string
	// Timeout applied to queries and mutations.
	Timeout time.Duration
	// Logger for transport events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client executes GraphQL operations against a dual-transport backend: HTTP
// for queries and mutations, a single shared persistent WebSocket for
// subscriptions. One Client is meant to live for the whole process.
type Client struct {
	httpURL    string
	wsURL      string
	httpClient *http.Client
	token      TokenSource
	log        *slog.Logger

	mu   sync.Mutex
	sock *socket
}

// NewClient builds a client. The token source is consulted on every request.
func NewClient(config Config, token TokenSource) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpURL:    config.HTTPURL,
		wsURL:      config.WSURL,
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		log:        log,
	}
}

// Do executes a query or mutation over HTTP and unmarshals the "data" field
// into out. Subscriptions must go through Subscribe.
func (c *Client) Do(ctx context.Context, request Request, out any) error {
	if DetectKind(request.Query) == KindSubscription {
		return errors.New("subscriptions must use Subscribe")
	}

	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "marshaling request")
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building http request")
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return errors.Wrap(err, "executing http request")
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 512))
		return errors.Errorf("unexpected status %d: %s", httpResponse.StatusCode, string(snippet))
	}

	response := struct {
		Data   json.RawMessage `json:"data"`
		Errors Errors          `json:"errors"`
	}{}
	if err := json.NewDecoder(httpResponse.Body).Decode(&response); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	if len(response.Errors) > 0 {
		return response.Errors
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(response.Data, out); err != nil {
		return errors.Wrap(err, "unmarshaling data")
	}
	return nil
}

// Subscribe opens a live subscription over the shared WebSocket, dialing it
// lazily on first use. The returned subscription delivers raw "next" payloads
// until Close is called.
func (c *Client) Subscribe(ctx context.Context, request Request) (*Subscription, error) {
	if DetectKind(request.Query) != KindSubscription {
		return nil, errors.Errorf("cannot subscribe to a %s operation", DetectKind(request.Query))
	}

	c.mu.Lock()
	if c.sock == nil {
		c.sock = newSocket(c.wsURL, c.token, c.log)
	}
	sock := c.sock
	c.mu.Unlock()

	return sock.subscribe(ctx, request)
}

// Connected reports whether the subscription socket is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock != nil && c.sock.isConnected()
}

// Close tears down the subscription socket. Safe to call with live
// subscriptions; their channels are closed.
func (c *Client) Close() error {
	c.mu.Lock()
	sock := c.sock
	c.sock = nil
	c.mu.Unlock()
	if sock != nil {
		sock.close()
	}
	return nil
}

func (c *Client) String() string {
	return fmt.Sprintf("graphql.Client(%s)", c.httpURL)
}
