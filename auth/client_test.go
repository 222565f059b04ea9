package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAuthServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/signin/email-password":
			if body["password"] != "hunter22" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"status":  401,
					"message": "Incorrect email or password",
					"error":   "invalid-email-password",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"session": Session{
					AccessToken:  "access-1",
					RefreshToken: "refresh-1",
					User:         User{ID: "u1", Email: body["email"]},
				},
			})
		case "/signup/email-password":
			// Verification required: no session yet.
			json.NewEncoder(w).Encode(map[string]any{"session": nil})
		case "/token":
			if body["refreshToken"] != "refresh-1" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"status":  401,
					"message": "Invalid refresh token",
					"error":   "invalid-refresh-token",
				})
				return
			}
			json.NewEncoder(w).Encode(Session{
				AccessToken:  "access-2",
				RefreshToken: "refresh-1",
				User:         User{ID: "u1", Email: "a@b.co"},
			})
		case "/signout":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSignInTransitionsToAuthenticated(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()

	client := NewClient(server.URL, filepath.Join(t.TempDir(), "session.json"))
	assert.False(t, client.IsAuthenticated())
	assert.Empty(t, client.AccessToken())

	session, err := client.SignIn(context.Background(), "a@b.co", "hunter22")
	require.NoError(t, err)
	assert.True(t, client.IsAuthenticated())
	assert.Equal(t, "access-1", client.AccessToken())
	assert.Equal(t, "a@b.co", session.User.Email)
}

func TestSignInFailureSurfacesProviderMessage(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()

	client := NewClient(server.URL, filepath.Join(t.TempDir(), "session.json"))
	_, err := client.SignIn(context.Background(), "a@b.co", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect email or password")
	assert.False(t, client.IsAuthenticated())
}

func TestSessionPersistsAcrossClients(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	first := NewClient(server.URL, sessionFile)
	_, err := first.SignIn(context.Background(), "a@b.co", "hunter22")
	require.NoError(t, err)

	second := NewClient(server.URL, sessionFile)
	require.NoError(t, second.LoadSession(context.Background()))
	assert.True(t, second.IsAuthenticated())
	// LoadSession refreshes the access token.
	assert.Equal(t, "access-2", second.AccessToken())
}

func TestLoadSessionDropsStaleSession(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, writeSessionFile(sessionFile, &Session{
		AccessToken:  "old",
		RefreshToken: "stale",
		User:         User{ID: "u1", Email: "a@b.co"},
	}))

	client := NewClient(server.URL, sessionFile)
	err := client.LoadSession(context.Background())
	require.Error(t, err)
	assert.False(t, client.IsAuthenticated())

	// The stale session file is gone.
	_, statErr := os.Stat(sessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSignOutClearsCredential(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()
	sessionFile := filepath.Join(t.TempDir(), "session.json")

	client := NewClient(server.URL, sessionFile)
	_, err := client.SignIn(context.Background(), "a@b.co", "hunter22")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))
	assert.False(t, client.IsAuthenticated())
	assert.Empty(t, client.AccessToken())
	_, statErr := os.Stat(sessionFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSignUpPendingVerification(t *testing.T) {
	server := newFakeAuthServer(t)
	defer server.Close()

	client := NewClient(server.URL, filepath.Join(t.TempDir(), "session.json"))
	session, err := client.SignUp(context.Background(), "new@b.co", "hunter22")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.False(t, client.IsAuthenticated())
}
