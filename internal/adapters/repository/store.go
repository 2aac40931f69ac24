// Package repository defines the token store interface and its implementations.
package repository

import (
	"context"
	"time"
)

// Token is the persisted session credential pair. AccessToken is empty
// once it has expired while the refresh token is kept for a later refresh.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Username     string    `json:"username,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// TokenStore provides read/write access to the session token.
type TokenStore interface {
	// Load returns the stored token.
	// Returns ErrNotFound when nothing is stored.
	Load(ctx context.Context) (Token, error)

	// Save replaces the stored token. A token with neither an access nor a
	// refresh token is rejected.
	Save(ctx context.Context, token Token) error

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Empty reports whether t carries no usable credential.
func (t Token) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}
