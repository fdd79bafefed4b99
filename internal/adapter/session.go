package adapter

import "sync"

// Session holds the logged-in user's credentials for the process lifetime.
// It implements domain.Identity and the API client's TokenSource.
type Session struct {
	mu     sync.RWMutex
	token  string
	userID string
	email  string
}

// NewSession creates a session from stored credentials
func NewSession(token, userID, email string) *Session {
	return &Session{token: token, userID: userID, email: email}
}

// NewSessionFromConfig creates a session from the server section of the config
func NewSessionFromConfig(cfg *Config) *Session {
	return NewSession(cfg.Server.Token, cfg.Server.UserID, cfg.Server.Email)
}

// UserID returns the current user id, ok=false when logged out
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// Token returns the bearer token, "" when logged out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Email returns the display email
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// LoggedIn returns true if a token is held
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Clear forgets the credentials
func (s *Session) Clear() {
	s.mu.Lock()
	s.token, s.userID, s.email = "", "", ""
	s.mu.Unlock()
}
