package auth

import (
	"encoding/json"
	"os"

	"golang.org/x/oauth2"
)

// SavedSession is the on-disk form of a signed-in session.
type SavedSession struct {
	UserID string        `json:"user_id"`
	Email  string        `json:"email,omitempty"`
	Token  *oauth2.Token `json:"token"`
}

// SaveSession writes a session file with mode 0600.
func SaveSession(path string, saved SavedSession) error {
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadSession reads a previously saved session file.
func LoadSession(path string) (SavedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SavedSession{}, err
	}
	var saved SavedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return SavedSession{}, err
	}
	return saved, nil
}

// Credentials converts the saved form back to provider credentials.
func (s SavedSession) Credentials() Credentials {
	return Credentials{UserID: s.UserID, Email: s.Email, Token: s.Token}
}
