// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/ui"
)

const bulkDeleteFmt = "Are you sure you want to delete %d users? This action cannot be undone."

// registerUserActions adds the account operations of the users list. marked
// returns the keys of the rows picked for bulk deletion.
func registerUserActions(reg *ui.ActionRegistry, app *App, wf *crud.Workflow, marked func() []string) {
	acts := dao.NewUserActions(app.deps.Client, wf, app.ReadOnly())

	reg.Register(dao.Users,
		ui.RowAction{
			Key:         ui.KeyT,
			Description: "Toggle Status",
			Handler:     acts.Toggle,
		},
		ui.RowAction{
			Key:         ui.KeyShiftX,
			Description: "Reset Password",
			Dangerous:   true,
			Confirm: func(row grid.Row) string {
				if row == nil {
					return ""
				}
				return dao.ResetMessage(wf.DisplayName(row))
			},
			Handler: func(ctx context.Context, row grid.Row) error {
				id, err := wf.ID(row)
				if err != nil {
					return err
				}
				return acts.ResetPassword(ctx, id)
			},
		},
		ui.RowAction{
			Key:         ui.KeyP,
			Description: "Change Password",
			Handler: func(_ context.Context, row grid.Row) error {
				id, err := wf.ID(row)
				if err != nil {
					return err
				}
				app.QueueUpdateDraw(func() { changePassword(app, acts, id, wf.DisplayName(row)) })
				return nil
			},
		},
		ui.RowAction{
			Key:         tcell.KeyCtrlX,
			Description: "Bulk Delete",
			Dangerous:   true,
			Confirm: func(grid.Row) string {
				n := len(marked())
				if n == 0 {
					return ""
				}
				return fmt.Sprintf(bulkDeleteFmt, n)
			},
			Handler: func(ctx context.Context, _ grid.Row) error {
				return acts.BulkDelete(ctx, marked())
			},
		},
	)
}

func changePassword(app *App, acts *dao.UserActions, id, name string) {
	app.prompt("Change password for "+name, []ui.PromptField{
		{Label: "Current", Masked: true},
		{Label: "New", Masked: true},
		{Label: "Confirm", Masked: true},
	}, func(vv []string) {
		switch {
		case len(vv[1]) < 6:
			app.flash.Warn("New password must be at least 6 characters")
			return
		case vv[1] != vv[2]:
			app.flash.Warn("Passwords do not match")
			return
		}
		go func() {
			if err := acts.ChangePassword(app.Context(), id, vv[0], vv[1]); err != nil {
				app.reportErr(err)
			}
		}()
	})
}
