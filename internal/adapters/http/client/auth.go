package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/trendscope/internal/domain/model"
)

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	return fetch[model.AuthResult](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"auth", "login"},
		body:     creds,
	})
}

// Register creates an account and returns its first tokens.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.AuthResult, error) {
	return fetch[model.AuthResult](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"auth", "register"},
		body:     reg,
	})
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (model.AuthResult, error) {
	return fetch[model.AuthResult](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"auth", "refresh"},
		body:     model.RefreshRequest{RefreshToken: refreshToken},
	})
}

// ResetPassword asks the server to mail a reset link. The response carries no data.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	_, err := send[json.RawMessage](ctx, c, call{
		method:   http.MethodPost,
		segments: []string{"auth", "reset-password"},
		body:     model.ResetPasswordRequest{Email: email},
	})
	return err
}

// UpdateProfile changes the set profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (model.User, error) {
	return fetch[model.User](ctx, c, call{
		method:   http.MethodPut,
		segments: []string{"auth", "profile"},
		body:     p,
	})
}
