// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"context"
	"fmt"
	"net/url"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/logger"
)

// User account endpoints beyond plain CRUD.
const (
	UserBulkDeletePath = "/users/bulk-delete"

	MsgActivated      = "User activated successfully"
	MsgDeactivated    = "User deactivated successfully"
	MsgPasswordReset  = "Password reset successfully"
	MsgUsersDeleted   = "Users deleted successfully"
	MsgPasswordChange = "Password changed successfully"
)

// Mutator issues the account calls.
type Mutator interface {
	Poster
	Put(ctx context.Context, path string, body any, opts ...client.Option) (*client.Response, error)
}

// UserActions runs the account operations of the users resource. Every
// successful call bumps the refresh token.
type UserActions struct {
	api      Mutator
	refresh  Bumper
	readOnly bool
}

// NewUserActions returns the account actions.
func NewUserActions(api Mutator, refresh Bumper, readOnly bool) *UserActions {
	return &UserActions{api: api, refresh: refresh, readOnly: readOnly}
}

// Activate enables the account.
func (u *UserActions) Activate(ctx context.Context, id string) error {
	return u.put(ctx, userPath(id, "activate"), MsgActivated)
}

// Deactivate disables the account.
func (u *UserActions) Deactivate(ctx context.Context, id string) error {
	return u.put(ctx, userPath(id, "deactivate"), MsgDeactivated)
}

// Toggle activates an inactive account and deactivates an active one.
func (u *UserActions) Toggle(ctx context.Context, row grid.Row) error {
	id := grid.Stringify(row["id"])
	if id == "" {
		return crud.ErrNoID
	}
	if grid.Stringify(row["status"]) == "active" {
		return u.Deactivate(ctx, id)
	}
	return u.Activate(ctx, id)
}

// ResetPassword asks the API to mail a fresh password.
func (u *UserActions) ResetPassword(ctx context.Context, id string) error {
	return u.post(ctx, userPath(id, "reset-password"), map[string]any{}, MsgPasswordReset)
}

// ChangePassword sets a new password for the account.
func (u *UserActions) ChangePassword(ctx context.Context, id, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return u.post(ctx, userPath(id, "change-password"), body, MsgPasswordChange)
}

// BulkDelete removes several accounts in one call.
func (u *UserActions) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return crud.ErrNoSelection
	}
	return u.post(ctx, UserBulkDeletePath, map[string]any{"ids": ids}, MsgUsersDeleted)
}

// ResetMessage is the reset password confirmation text.
func ResetMessage(name string) string {
	return fmt.Sprintf("Are you sure you want to reset password for user %q? A new password will be generated and sent to their email.", name)
}

func (u *UserActions) put(ctx context.Context, path, msg string) error {
	if u.readOnly {
		return ErrReadOnly
	}
	ctx = logger.WithResource(ctx, Users)
	if _, err := u.api.Put(ctx, path, map[string]any{}, client.WithSuccessMessage(msg)); err != nil {
		return err
	}
	u.bump()

	return nil
}

func (u *UserActions) post(ctx context.Context, path string, body any, msg string) error {
	if u.readOnly {
		return ErrReadOnly
	}
	ctx = logger.WithResource(ctx, Users)
	if _, err := u.api.Post(ctx, path, body, client.WithSuccessMessage(msg)); err != nil {
		return err
	}
	u.bump()

	return nil
}

func (u *UserActions) bump() {
	if u.refresh != nil {
		u.refresh.Bump()
	}
}

func userPath(id, action string) string {
	return "/users/" + url.PathEscape(id) + "/" + action
}
