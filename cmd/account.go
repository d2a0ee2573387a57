package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/scribe/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// AccountPassword changes the password of the signed-in account.
func (r *Runner) AccountPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	current, err := r.readSecret("Current password: ")
	if err != nil {
		return err
	}
	password, confirm, err := r.promptNewPassword("New password")
	if err != nil {
		return err
	}
	if err := r.client.ChangePassword(ctx, current, password, confirm); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed\n")
}

// AccountEmail changes the email address. The current password is required.
func (r *Runner) AccountEmail(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	password, err := r.readSecret("Password: ")
	if err != nil {
		return err
	}
	if err := r.client.ChangeEmail(ctx, email, password); err != nil {
		return err
	}
	return r.writePlain("✓ Email changed to %s\n", email)
}

// AccountExport downloads all account data to a JSON file.
func (r *Runner) AccountExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	data, err := r.client.ExportAccount(ctx)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return r.writePlain("✓ Account data (%s) saved to %s\n", humanize.Bytes(uint64(len(data))), path)
}

// AccountDelete removes the account after confirmation and forgets the session.
func (r *Runner) AccountDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	ok, err := r.confirmer(cmd.Bool("yes")).Confirm(ctx, "Delete your account and every transcript? This cannot be undone.")
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("Cancelled\n")
	}
	if err := r.client.DeleteAccount(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Account deleted\n")
}
