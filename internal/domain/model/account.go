package model

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/okian/trendscope/internal/domain/types"
)

// User is the account profile returned by the auth endpoints.
type User struct {
	ID               int64           `json:"id"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	CreatedAt        Time            `json:"created_at"`
	DefaultGeo       types.Geo       `json:"default_geo"`
	DefaultTimeframe types.Timeframe `json:"default_timeframe"`
	IsPremium        bool            `json:"is_premium,omitempty"`
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the fields locally before the request is sent.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidProfile)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, r.Email)
	}
	if len(r.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidProfile, minPasswordLength)
	}
	return nil
}

const minPasswordLength = 8

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// ProfileUpdate is the body of PUT /auth/profile. Empty fields are left unchanged.
type ProfileUpdate struct {
	Email            string          `json:"email,omitempty"`
	DefaultGeo       *types.Geo      `json:"default_geo,omitempty"`
	DefaultTimeframe types.Timeframe `json:"default_timeframe,omitempty"`
}

// Validate checks the optional fields that are set.
func (p ProfileUpdate) Validate() error {
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, p.Email)
		}
	}
	if p.DefaultGeo != nil && !p.DefaultGeo.Valid() {
		return fmt.Errorf("%w: default_geo %q is not valid", ErrInvalidProfile, *p.DefaultGeo)
	}
	if p.DefaultTimeframe != "" && !p.DefaultTimeframe.Valid() {
		return fmt.Errorf("%w: default_timeframe %q is not valid", ErrInvalidProfile, p.DefaultTimeframe)
	}
	if p.Email == "" && p.DefaultGeo == nil && p.DefaultTimeframe == "" {
		return fmt.Errorf("%w: nothing to update", ErrInvalidProfile)
	}
	return nil
}

// AuthResult is the payload of login, register and refresh.
type AuthResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// MLStatus is the payload of GET /ml/models/status.
type MLStatus struct {
	ModelsAvailable bool     `json:"models_available"`
	ModelCount      int      `json:"model_count"`
	ModelNames      []string `json:"model_names,omitempty"`
	Categories      []string `json:"categories,omitempty"`
}

// TrainResult summarizes POST /ml/models/train.
type TrainResult struct {
	Message        string  `json:"message"`
	TrainingTimeMS float64 `json:"training_time_ms"`
}

// DashboardCounts are the per-user totals on the dashboard.
type DashboardCounts struct {
	Watchlists int `json:"watchlists"`
	Analyses   int `json:"analyses"`
	Alerts     int `json:"alerts"`
}

// DashboardStats is the payload of GET /stats/dashboard.
type DashboardStats struct {
	Counts         DashboardCounts `json:"counts"`
	RecentAnalyses []Analysis      `json:"recent_analyses"`
	MLStatus       MLStatus        `json:"ml_status"`
}
