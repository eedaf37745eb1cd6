package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/common"
	"expensetracker/internal/models"
)

// Store is the persistence the auth flow needs.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	ValidateSessionWithInfo(ctx context.Context, token string) (*models.SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// Session is an established login: the server-side token and the signed
// cookie value handed to the browser.
type Session struct {
	User      *models.User
	Token     string
	Cookie    string
	ExpiresAt time.Time
}

// Service implements registration, login, session checks and logout.
type Service struct {
	store           Store
	secret          []byte
	sessionDuration time.Duration
	now             func() time.Time
}

// NewService creates a Service. secret signs session cookies.
func NewService(store Store, secret []byte, sessionDuration time.Duration) *Service {
	dummyHash()
	return &Service{
		store:           store,
		secret:          secret,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

// SessionDuration returns how long a fresh or renewed session lasts.
func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Register creates a user. An existing username yields common.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}
	if len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrInvalidInput, MaxPasswordLength)
	}

	if _, err := s.store.GetUser(ctx, username); err == nil {
		return nil, common.ErrUsernameTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if errors.Is(err, common.ErrDuplicateUser) {
		// lost a race with a concurrent registration
		return nil, common.ErrUsernameTaken
	}
	return user, err
}

// Login checks credentials and opens a session. Unknown users and wrong
// passwords both return common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.GetUser(ctx, username)
	switch {
	case errors.Is(err, common.ErrNotFound):
		CheckPassword(password, dummyHash())
		return nil, common.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := s.now().Add(s.sessionDuration)
	if err := s.store.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return nil, err
	}

	cookie, err := SignSession(s.secret, token, user.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{User: user, Token: token, Cookie: cookie, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a cookie value to a live session.
func (s *Service) Authenticate(ctx context.Context, cookie string) (*models.SessionInfo, error) {
	claims, err := ParseSession(s.secret, cookie)
	if err != nil {
		return nil, common.ErrInvalidCredentials
	}

	info, err := s.store.ValidateSessionWithInfo(ctx, claims.SessionToken)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil, common.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if info.User.ID != claims.UserID {
		return nil, common.ErrInvalidCredentials
	}
	return info, nil
}

// Renew extends a session that is past the halfway point of its lifetime.
// It returns nil when no renewal was needed.
func (s *Service) Renew(ctx context.Context, info *models.SessionInfo) (*Session, error) {
	now := s.now()
	if info.ExpiresAt.Sub(now) >= s.sessionDuration/2 {
		return nil, nil
	}

	expiresAt := now.Add(s.sessionDuration)
	if err := s.store.RenewSession(ctx, info.Token, expiresAt); err != nil {
		return nil, err
	}
	cookie, err := SignSession(s.secret, info.Token, info.User.ID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &Session{User: info.User, Token: info.Token, Cookie: cookie, ExpiresAt: expiresAt}, nil
}

// Logout deletes the server-side session behind cookie. Unverifiable cookies
// have nothing to delete and are ignored.
func (s *Service) Logout(ctx context.Context, cookie string) error {
	claims, err := ParseSession(s.secret, cookie)
	if err != nil {
		return nil
	}
	return s.store.DeleteSession(ctx, claims.SessionToken)
}
