package service

import (
	"errors"
	"log/slog"

	"github.com/mmcdole/laptophub/internal/adapter"
)

// SessionService manages user session operations
type SessionService struct {
	session *adapter.Session
	cart    *CartService
	logger  *slog.Logger

	// persist forgets stored credentials; replaced in tests
	persist func() error
}

// NewSessionService creates a new SessionService
func NewSessionService(session *adapter.Session, cart *CartService, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		session: session,
		cart:    cart,
		logger:  logger,
		persist: adapter.ClearSession,
	}
}

// LoggedIn reports whether a user is logged in
func (s *SessionService) LoggedIn() bool {
	return s.session.LoggedIn()
}

// Email returns the logged-in user's email for display
func (s *SessionService) Email() string {
	return s.session.Email()
}

// Logout forgets credentials and drops the cached cart and ledger.
// Consumers get a Refresh and will now see an empty cart.
func (s *SessionService) Logout() error {
	s.session.Clear()
	resetErr := s.cart.Reset()

	if err := errors.Join(resetErr, s.persist()); err != nil {
		return err
	}

	s.logger.Info("logged out")
	return nil
}
