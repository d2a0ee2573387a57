package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

// MinPasswordLength is the shortest password accepted at registration and reset.
const MinPasswordLength = 6

// Registration is the sign-up form.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate runs the checks that happen before any request is made.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrMissingArgument)
	}
	return ValidatePassword(r.Password, r.ConfirmPassword)
}

// ValidatePassword checks that password matches its confirmation and meets [MinPasswordLength].
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return shared.ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return shared.ErrPasswordTooShort
	}
	return nil
}

type registerRequest struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

// Register creates an account. It does not log in; see [Client.SignUp].
func (c *Client) Register(ctx context.Context, r Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}

	body := registerRequest{Username: strings.TrimSpace(r.Username), Password: r.Password}
	if email := strings.TrimSpace(r.Email); email != "" {
		body.Email = &email
	}
	return c.doPlain(ctx, http.MethodPost, "/register", body, nil, "Registration failed. Please try again.")
}

// SignUp registers and then logs in with the same credentials.
func (c *Client) SignUp(ctx context.Context, r Registration) (*models.TokenPair, error) {
	if err := c.Register(ctx, r); err != nil {
		return nil, err
	}
	return c.Login(ctx, strings.TrimSpace(r.Username), r.Password)
}

func (c *Client) oauthConfig(tokenPath string) *oauth2.Config {
	return &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.url(tokenPath, nil),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// oauthContext routes oauth2 token calls through the unauthenticated client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.plain)
}

// oauthError converts an oauth2 failure into an [*APIError] when the server answered.
func oauthError(err error, fallback string) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return NewAPIError(status, re.Body, fallback)
	}
	return err
}

// Login exchanges credentials for a token pair with the password grant and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	tok, err := c.oauthConfig("/token").PasswordCredentialsToken(c.oauthContext(ctx), username, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, oauthError(err, "Login failed. Please check your credentials."))
	}

	pair := &models.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if err := c.session.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}

	c.logger.Info("logged in", "username", username)
	return pair, nil
}

// RefreshAccessToken implements [Refresher] with the oauth2 refresh grant against POST /refresh.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	src := c.oauthConfig("/refresh").TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, oauthError(err, "Invalid refresh token"))
	}
	return tok.AccessToken, nil
}

// Refresh renews the session's access token without waiting for a 401.
func (c *Client) Refresh(ctx context.Context) error {
	token, err := c.RefreshAccessToken(ctx, c.session.RefreshToken())
	if err != nil {
		return err
	}
	return c.session.SetAccessToken(token)
}

// Logout ends the session locally. The backend keeps no logout endpoint.
func (c *Client) Logout() error {
	return c.session.End(nil)
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user, "Failed to load account"); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset asks the backend to e-mail a reset link. The response never reveals whether the
// address exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrMissingArgument)
	}
	return c.doPlain(ctx, http.MethodPost, "/forgot-password", map[string]string{"email": email}, nil,
		"Failed to send reset email. Please try again.")
}

// VerifyResetToken checks a reset token before the new password is collected.
func (c *Client) VerifyResetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: no reset token provided", shared.ErrMissingArgument)
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, "/reset-password/verify", url.Values{"token": {token}}, nil)
	if err != nil {
		return err
	}
	return c.send(c.plain, req, nil, "This reset link is invalid or has expired.")
}

// ResetPassword sets a new password with a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if token == "" {
		return fmt.Errorf("%w: no reset token provided", shared.ErrMissingArgument)
	}
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}

	body := map[string]string{"token": token, "new_password": password}
	return c.doPlain(ctx, http.MethodPost, "/reset-password", body, nil, "Failed to reset password. Please try again.")
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.doPlain(ctx, http.MethodGet, "/health", nil, &status, "Backend unavailable"); err != nil {
		return err
	}
	if status.Status != "ok" {
		return fmt.Errorf("%w: health status %q", shared.ErrServiceUnavailable, status.Status)
	}
	return nil
}
