package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// APIError is an error response from the auth provider. Its message is shown
// to the user verbatim.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Client wraps the hosted identity provider's email+password REST API and
// holds the current session. It is safe for concurrent use; the GraphQL
// transport reads the access token on every request.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	sessionFile string
	persist     bool

	mu      sync.RWMutex
	session *Session
}

// NewClient builds an auth client. sessionFile is where the session is
// persisted across runs; SetPersist(false) disables that.
func NewClient(baseURL, sessionFile string) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		sessionFile: sessionFile,
		persist:     true,
	}
}

// SetPersist controls whether sessions are written to disk.
func (c *Client) SetPersist(persist bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persist = persist
}

// LoadSession resolves the initial session state: it reads the persisted
// session and refreshes the access token. A missing or expired session leaves
// the client unauthenticated without error beyond the provider's own message.
func (c *Client) LoadSession(ctx context.Context) error {
	session, err := readSessionFile(c.sessionFile)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if _, err := c.Refresh(ctx); err != nil {
		// Stale refresh token. Drop the session and start signed out.
		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
		_ = removeSessionFile(c.sessionFile)
		return errors.Wrap(err, "refreshing persisted session")
	}
	return nil
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	response := struct {
		Session *Session `json:"session"`
	}{}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/signin/email-password", body, &response); err != nil {
		return nil, err
	}
	if response.Session == nil {
		return nil, errors.New("no session returned")
	}
	c.adoptSession(response.Session)
	return response.Session, nil
}

// SignUp registers a new account. The returned session is nil when the
// provider requires email verification before the first sign-in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	response := struct {
		Session *Session `json:"session"`
	}{}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/signup/email-password", body, &response); err != nil {
		return nil, err
	}
	if response.Session != nil {
		c.adoptSession(response.Session)
	}
	return response.Session, nil
}

// SignOut terminates the session. Subsequent requests carry no credential.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()
	_ = removeSessionFile(c.sessionFile)

	if session == nil {
		return nil
	}
	return c.post(ctx, "/signout", map[string]string{"refreshToken": session.RefreshToken}, nil)
}

// Refresh exchanges the refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return nil, errors.New("not signed in")
	}

	refreshed := &Session{}
	body := map[string]string{"refreshToken": session.RefreshToken}
	if err := c.post(ctx, "/token", body, refreshed); err != nil {
		return nil, err
	}
	if refreshed.User.ID == "" {
		refreshed.User = session.User
	}
	c.adoptSession(refreshed)
	return refreshed, nil
}

// Session returns the current session, nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// IsAuthenticated reports whether a session is held.
func (c *Client) IsAuthenticated() bool {
	return c.Session() != nil
}

// AccessToken returns the current bearer credential, empty when signed out.
// It satisfies the GraphQL transport's token source contract.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) adoptSession(session *Session) {
	c.mu.Lock()
	c.session = session
	persist := c.persist
	c.mu.Unlock()
	if persist {
		_ = writeSessionFile(c.sessionFile, session)
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshaling request")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(err, "executing request")
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		apiError := &APIError{}
		bytes, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		if err := json.Unmarshal(bytes, apiError); err != nil || apiError.Error() == "" {
			return errors.Errorf("auth request failed with status %d", response.StatusCode)
		}
		return apiError
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}
