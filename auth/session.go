package auth

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// User is the identity record owned by the auth provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session as returned by the auth API.
type Session struct {
	AccessToken          string `json:"accessToken"`
	AccessTokenExpiresIn int64  `json:"accessTokenExpiresIn"`
	RefreshToken         string `json:"refreshToken"`
	User                 User   `json:"user"`
}

// readSessionFile loads a persisted session, returning nil when none exists.
func readSessionFile(path string) (*Session, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading session file")
	}
	session := &Session{}
	if err := json.Unmarshal(bytes, session); err != nil {
		return nil, errors.Wrap(err, "unmarshaling session")
	}
	if session.RefreshToken == "" {
		return nil, nil
	}
	return session, nil
}

// writeSessionFile persists a session with owner-only permissions.
func writeSessionFile(path string, session *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating session directory")
	}
	bytes, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling session")
	}
	if err := os.WriteFile(path, bytes, 0600); err != nil {
		return errors.Wrap(err, "writing session file")
	}
	return nil
}

// removeSessionFile deletes the persisted session if present.
func removeSessionFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
