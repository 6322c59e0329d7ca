package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Session is the saved login state under ~/.roost/session.json.
type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles,omitempty"`
	ServerURL string    `json:"server_url"`
}

// SessionManager handles session storage and retrieval
type SessionManager struct {
	sessionPath string
}

// NewSessionManager creates a session manager over an explicit path, so
// commands and tests decide where the session lives.
func NewSessionManager(path string) *SessionManager {
	return &SessionManager{sessionPath: path}
}

// SaveSession saves a session to disk, readable only by the owner.
func (sm *SessionManager) SaveSession(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(sm.sessionPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sm.sessionPath, data, 0o600)
}

// LoadSession loads a session from disk. A missing, unreadable or
// expired session comes back as nil without an error; an expired file
// is removed on the way.
func (sm *SessionManager) LoadSession() (*Session, error) {
	data, err := os.ReadFile(sm.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = sm.ClearSession()
		return nil, nil
	}
	return &session, nil
}

// ClearSession removes the session file.
func (sm *SessionManager) ClearSession() error {
	if err := os.Remove(sm.sessionPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsLoggedIn checks if there's a valid session
func (sm *SessionManager) IsLoggedIn() bool {
	session, err := sm.LoadSession()
	return err == nil && session != nil
}

// GetSessionPath returns the path to the session file
func (sm *SessionManager) GetSessionPath() string {
	return sm.sessionPath
}
