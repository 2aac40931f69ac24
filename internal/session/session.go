// Package session owns the authenticated state: the stored token pair, its
// client-side expiry check and the auth endpoint calls that change it.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/trendscope/internal/adapters/http/client"
	"github.com/okian/trendscope/internal/adapters/repository"
	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/pkg/logger"
	"github.com/okian/trendscope/pkg/metrics"
)

// AuthClient is the subset of the API client the session needs.
type AuthClient interface {
	Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (model.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (model.AuthResult, error)
	ResetPassword(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, p model.ProfileUpdate) (model.User, error)
}

// Session event labels.
const (
	eventLogin    = "login"
	eventRegister = "register"
	eventRefresh  = "refresh"
	eventLogout   = "logout"
	eventExpired  = "expired"
	eventRestored = "restored"
)

// Manager tracks the current session. The token store is the source of
// truth; Manager caches what it last read or wrote.
type Manager struct {
	api    AuthClient
	store  repository.TokenStore
	log    logger.Logger
	now    func() time.Time
	leeway time.Duration

	mu    sync.RWMutex
	token *repository.Token
	user  *model.User
}

// New creates a Manager. Call Init before use.
func New(api AuthClient, store repository.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		log:   logger.Get(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("session")
	return m
}

// Init reads the stored token. An absent token is not an error; a malformed
// one is cleared and an expired one is dropped as IsAuthenticated describes.
func (m *Manager) Init(ctx context.Context) error {
	t, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case errors.Is(err, repository.ErrInvalidToken):
		m.log.Warn(ctx, "discarding unreadable token", logger.Error(err))
		return m.clear(ctx, eventExpired)
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	m.mu.Lock()
	m.token = &t
	m.mu.Unlock()

	if !m.IsAuthenticated(ctx) {
		return nil
	}
	metrics.RecordSessionEvent(eventRestored)
	m.log.Debug(ctx, "session restored", logger.String("username", t.Username))
	return nil
}

// IsAuthenticated reports whether a usable access token is held. A token
// without an exp claim counts as valid. As a side effect a malformed token
// clears the stored credentials, and an expired one is dropped from the
// store while its refresh token, if any, is kept for Refresh.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	m.mu.RLock()
	t := m.token
	m.mu.RUnlock()
	if t == nil || t.AccessToken == "" {
		return false
	}

	exp, err := Expiry(t.AccessToken)
	if err != nil {
		m.log.Warn(ctx, "clearing malformed token", logger.Error(err))
		_ = m.clear(ctx, eventExpired)
		return false
	}
	if !exp.IsZero() && !m.now().Add(m.leeway).Before(exp) {
		m.log.Info(ctx, "session expired", logger.String("expired_at", exp.Format(time.RFC3339)))
		_ = m.expire(ctx, *t)
		return false
	}
	return true
}

// AccessToken returns the current token or ErrNotAuthenticated.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if !m.IsAuthenticated(ctx) {
		return "", ErrNotAuthenticated
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token.AccessToken, nil
}

// Username returns the logged-in user's name, or "" when unknown.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user != nil && m.user.Username != "" {
		return m.user.Username
	}
	if m.token != nil {
		return m.token.Username
	}
	return ""
}

// User returns the profile returned by the last auth call, if any.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// ExpiresAt returns the access token's exp claim. ok is false when there is
// no token or it carries no expiry.
func (m *Manager) ExpiresAt() (exp time.Time, ok bool) {
	m.mu.RLock()
	t := m.token
	m.mu.RUnlock()
	if t == nil {
		return time.Time{}, false
	}
	exp, err := Expiry(t.AccessToken)
	if err != nil || exp.IsZero() {
		return time.Time{}, false
	}
	return exp, true
}

// Login authenticates and persists the returned tokens.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", model.ErrInvalidProfile)
	}
	res, err := m.api.Login(ctx, creds)
	if err != nil {
		return nil, err //nolint:wrapcheck // client errors carry their own context
	}
	if err := m.persist(ctx, res, creds.Username, eventLogin); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// Register creates the account and persists the returned tokens.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // already wraps ErrInvalidProfile
	}
	res, err := m.api.Register(ctx, reg)
	if err != nil {
		return nil, err //nolint:wrapcheck // client errors carry their own context
	}
	if err := m.persist(ctx, res, reg.Username, eventRegister); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// Refresh trades the stored refresh token for a new access token. It works
// after the access token has expired. The refresh token is kept when the
// server does not rotate it, and cleared when the server rejects it.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	t := m.token
	m.mu.RUnlock()
	if t == nil || t.RefreshToken == "" {
		return ErrNotAuthenticated
	}

	res, err := m.api.Refresh(ctx, t.RefreshToken)
	if errors.Is(err, client.ErrUnauthorized) {
		m.log.Info(ctx, "refresh token rejected")
		if cerr := m.clear(ctx, eventExpired); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err //nolint:wrapcheck // client errors carry their own context
	}
	if err != nil {
		return err //nolint:wrapcheck // client errors carry their own context
	}
	if res.RefreshToken == "" {
		res.RefreshToken = t.RefreshToken
	}
	return m.persist(ctx, res, t.Username, eventRefresh)
}

// ResetPassword requests a password reset mail. It needs no session.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", model.ErrInvalidProfile, email)
	}
	return m.api.ResetPassword(ctx, email) //nolint:wrapcheck // client errors carry their own context
}

// UpdateProfile changes the profile of the logged-in user.
func (m *Manager) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (*model.User, error) {
	if !m.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	if err := p.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // already wraps ErrInvalidProfile
	}
	u, err := m.api.UpdateProfile(ctx, p)
	if err != nil {
		return nil, err //nolint:wrapcheck // client errors carry their own context
	}
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return m.User(), nil
}

// Logout clears the stored credentials.
func (m *Manager) Logout(ctx context.Context) error {
	return m.clear(ctx, eventLogout)
}

func (m *Manager) persist(ctx context.Context, res model.AuthResult, username, event string) error {
	if _, err := Expiry(res.AccessToken); err != nil {
		return err
	}
	if res.User != nil && res.User.Username != "" {
		username = res.User.Username
	}
	t := repository.Token{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Username:     username,
		SavedAt:      m.now(),
	}
	if err := m.store.Save(ctx, t); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.token = &t
	if res.User != nil {
		u := *res.User
		m.user = &u
	}
	m.mu.Unlock()

	metrics.RecordSessionEvent(event)
	m.log.Info(ctx, "session stored", logger.String("event", event), logger.String("username", username))
	return nil
}

// expire drops the access token of t. Without a refresh token nothing is
// left to keep and the store is cleared.
func (m *Manager) expire(ctx context.Context, t repository.Token) error {
	if t.RefreshToken == "" {
		return m.clear(ctx, eventExpired)
	}
	t.AccessToken = ""
	m.mu.Lock()
	m.token = &t
	m.mu.Unlock()

	if err := m.store.Save(ctx, t); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	metrics.RecordSessionEvent(eventExpired)
	return nil
}

func (m *Manager) clear(ctx context.Context, event string) error {
	m.mu.Lock()
	m.token = nil
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	metrics.RecordSessionEvent(event)
	return nil
}

// Expiry returns the exp claim of a JWT without verifying its signature.
// The zero time means the token has no expiry.
func Expiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedToken)
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
