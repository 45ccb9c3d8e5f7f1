package backend

import (
	"context"
	"net/http"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

type credentials struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

type authEnvelope struct {
	Message string         `json:"message"`
	User    *types.User    `json:"user"`
	Session *types.Session `json:"session"`
}

// Register creates a backend account.
func (c *Client) Register(ctx context.Context, email, password, walletAddress string) (*types.User, error) {
	if email == "" || password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	var env authEnvelope
	rb := c.builder("/auth/register").
		Method(http.MethodPost).
		BodyJSON(credentials{Email: email, Password: password, WalletAddress: walletAddress})
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// Login authenticates and stores the session token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*types.User, *types.Session, error) {
	if email == "" || password == "" {
		return nil, nil, apperror.Validation("Email and password are required")
	}
	var env authEnvelope
	rb := c.builder("/auth/login").
		Method(http.MethodPost).
		BodyJSON(credentials{Email: email, Password: password})
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, nil, err
	}
	if env.Session == nil || env.Session.AccessToken == "" {
		return nil, nil, apperror.New(apperror.CodeBackendError,
			apperror.WithMessage("login response did not include a session"))
	}
	c.SetToken(env.Session.AccessToken)
	return env.User, env.Session, nil
}

// Logout ends the current session and clears the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, c.builder("/auth/logout").Method(http.MethodPost), nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context) (*types.User, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var env authEnvelope
	if err := c.do(ctx, c.builder("/auth/profile"), &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// UpdateProfile sets the wallet address linked to the account.
func (c *Client) UpdateProfile(ctx context.Context, walletAddress string) (*types.User, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var env authEnvelope
	rb := c.builder("/auth/profile").
		Method(http.MethodPut).
		BodyJSON(map[string]string{"wallet_address": walletAddress})
	if err := c.do(ctx, rb, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// ResetPassword asks the backend to start a password reset.
func (c *Client) ResetPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperror.Validation("Email is required")
	}
	var env authEnvelope
	rb := c.builder("/auth/reset-password").
		Method(http.MethodPost).
		BodyJSON(map[string]string{"email": email})
	if err := c.do(ctx, rb, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}
