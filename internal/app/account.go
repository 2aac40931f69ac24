package service

import (
	"context"
	"time"

	"github.com/okian/trendscope/internal/domain/model"
)

const (
	formLogin    = "auth.login"
	formRegister = "auth.register"
	formRefresh  = "auth.refresh"
	formReset    = "auth.reset_password"
	formProfile  = "auth.profile"
)

// SessionStatus describes the current session for display.
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Login authenticates and stores the session.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	return guarded(ctx, s, formLogin, func() (*model.User, error) {
		return s.session.Login(ctx, creds)
	})
}

// Register creates an account and stores the session.
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	return guarded(ctx, s, formRegister, func() (*model.User, error) {
		return s.session.Register(ctx, reg)
	})
}

// Refresh renews the access token.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := guarded(ctx, s, formRefresh, func() (struct{}, error) {
		return struct{}{}, s.session.Refresh(ctx)
	})
	return err
}

// ResetPassword requests a password reset mail.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	_, err := guarded(ctx, s, formReset, func() (struct{}, error) {
		return struct{}{}, s.session.ResetPassword(ctx, email)
	})
	return err
}

// UpdateProfile changes the logged-in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (*model.User, error) {
	return guarded(ctx, s, formProfile, func() (*model.User, error) {
		return s.session.UpdateProfile(ctx, p)
	})
}

// Logout clears the session and every cached response.
func (s *Service) Logout(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.session.Logout(ctx) //nolint:wrapcheck // session errors carry their own context
}

// Status reports whether a live session is held.
func (s *Service) Status(ctx context.Context) SessionStatus {
	st := SessionStatus{Authenticated: s.session.IsAuthenticated(ctx)}
	if !st.Authenticated {
		return st
	}
	st.Username = s.session.Username()
	if exp, ok := s.session.ExpiresAt(); ok {
		st.ExpiresAt = &exp
	}
	return st
}
