package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// promptUsername returns the --username flag or asks for it.
func (r *Runner) promptUsername(cmd *cli.Command) (string, error) {
	if u := strings.TrimSpace(cmd.String("username")); u != "" {
		return u, nil
	}
	return r.readLine("Username: ")
}

// promptNewPassword reads a password and its confirmation.
func (r *Runner) promptNewPassword(label string) (string, string, error) {
	password, err := r.readSecret(label + ": ")
	if err != nil {
		return "", "", err
	}
	confirm, err := r.readSecret("Confirm " + strings.ToLower(label) + ": ")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}

// AuthRegister creates an account and logs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, err := r.promptUsername(cmd)
	if err != nil {
		return err
	}
	password, confirm, err := r.promptNewPassword("Password")
	if err != nil {
		return err
	}

	reg := services.Registration{
		Username:        username,
		Email:           cmd.String("email"),
		Password:        password,
		ConfirmPassword: confirm,
	}
	if _, err := r.client.SignUp(ctx, reg); err != nil {
		return err
	}

	r.logger.Info("registered", "username", username)
	return r.writePlain("✓ Account created, logged in as %s\n", username)
}

// AuthLogin exchanges username and password for tokens stored in the local database.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, err := r.promptUsername(cmd)
	if err != nil {
		return err
	}
	password := cmd.String("password")
	if password == "" {
		if password, err = r.readSecret("Password: "); err != nil {
			return err
		}
	}

	if _, err := r.client.Login(ctx, username, password); err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s\n", username)
}

// AuthLogout clears the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.client.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus checks backend health and reports the local session mode.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status", "api", r.client.BaseURL())

	if err := r.client.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Service is healthy\n")
	r.writePlain("API: %s\n", r.client.BaseURL())
	if r.session.Mode() == session.Authenticated {
		return r.writePlain("Authentication: ✓ Authenticated\n")
	}
	return r.writePlain("Authentication: ✗ Not authenticated\n")
}

// AuthWhoami prints the signed-in account.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	user, err := r.client.Me(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Username: %s\n", user.Username)
	email := user.Email
	if email == "" {
		email = "(none)"
	}
	return r.writePlain("Email: %s\n", email)
}

// AuthForgot requests a password reset email.
func (r *Runner) AuthForgot(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	if err := r.client.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	return r.writePlain("If an account exists for %s, a reset link has been sent.\n", email)
}

// AuthReset verifies a reset token, then asks for the new password.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")
	if err := r.client.VerifyResetToken(ctx, token); err != nil {
		return err
	}

	password, confirm, err := r.promptNewPassword("New password")
	if err != nil {
		return err
	}
	if err := r.client.ResetPassword(ctx, token, password, confirm); err != nil {
		return err
	}
	return r.writePlain("✓ Password reset, you can log in now\n")
}
