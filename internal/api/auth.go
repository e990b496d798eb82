package api

import (
	"context"

	"github.com/quickplate/ordering-client/internal/session"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// RegisterResponse is the sign-up result.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the sign-in result: the bearer token plus the profile.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    session.User `json:"user"`
}

// Register creates a new account. No token is attached; the endpoint is
// anonymous by definition.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return RegisterResponse{}, err
	}
	return resp, nil
}

// Login authenticates and returns the token and user profile. Persisting
// them is the caller's job.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}
