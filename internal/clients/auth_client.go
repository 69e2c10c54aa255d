package clients

import (
	"context"
	"net/http"

	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

type AuthClient interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	DeleteAccount(ctx context.Context) error
	Health(ctx context.Context) error
}

type authHTTPClient struct {
	api Sender
	log *logrus.Logger
}

func NewAuthHTTPClient(api Sender, logger *logrus.Logger) AuthClient {
	return &authHTTPClient{
		api: api,
		log: logger,
	}
}

func (c *authHTTPClient) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	c.log.Debugf("AuthClient: Calling Register for username: %s", req.Username)
	var resp domain.AuthResponse
	if err := c.api.Send(ctx, http.MethodPost, "/register", req, &resp, "Registration failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authHTTPClient) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	c.log.Debugf("AuthClient: Calling Login for username: %s email: %s", creds.Username, creds.Email)
	var resp domain.AuthResponse
	if err := c.api.Send(ctx, http.MethodPost, "/login", creds, &resp, "Login failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authHTTPClient) Logout(ctx context.Context) error {
	c.log.Debug("AuthClient: Calling Logout")
	return c.api.Send(ctx, http.MethodPost, "/logout", nil, nil, "Logout failed")
}

func (c *authHTTPClient) GetProfile(ctx context.Context) (*domain.User, error) {
	c.log.Debug("AuthClient: Calling GetProfile")
	var user domain.User
	if err := c.api.Send(ctx, http.MethodGet, "/profile", nil, &user, "Failed to fetch profile"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authHTTPClient) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	c.log.Debug("AuthClient: Calling UpdateProfile")
	var user domain.User
	if err := c.api.Send(ctx, http.MethodPut, "/profile", patch, &user, "Failed to update profile"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *authHTTPClient) ChangePassword(ctx context.Context, current, next string) error {
	c.log.Debug("AuthClient: Calling ChangePassword")
	body := domain.PasswordChange{CurrentPassword: current, NewPassword: next}
	return c.api.Send(ctx, http.MethodPut, "/profile/password", body, nil, "Failed to change password")
}

func (c *authHTTPClient) DeleteAccount(ctx context.Context) error {
	c.log.Debug("AuthClient: Calling DeleteAccount")
	return c.api.Send(ctx, http.MethodDelete, "/profile", nil, nil, "Failed to delete account")
}

func (c *authHTTPClient) Health(ctx context.Context) error {
	return c.api.Send(ctx, http.MethodGet, "/health", nil, nil, "Health check failed")
}
