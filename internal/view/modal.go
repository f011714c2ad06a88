// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"github.com/portalctl/portalctl/internal/ui"
)

// confirm asks a yes/no question over the current page. ok runs on yes.
func (a *App) confirm(msg string, dangerous bool, ok func()) {
	a.confirmOr(msg, dangerous, ok, nil)
}

// confirmOr is confirm with a callback for no and Esc.
func (a *App) confirmOr(msg string, dangerous bool, ok, cancel func()) {
	c := ui.NewConfirm(a.Content, msg).SetDangerous(dangerous)
	c.OnConfirm(func() {
		a.focusTop()
		if ok != nil {
			ok()
		}
	})
	c.OnCancel(func() {
		if cancel != nil {
			cancel()
		}
		a.focusTop()
	})
	c.Show()
	a.SetFocus(c)
}

// prompt reads a few strings over the current page.
func (a *App) prompt(title string, ff []ui.PromptField, ok func([]string)) {
	p := ui.NewPrompt(a.Content, title, ff...)
	p.OnSubmit(func(vv []string) {
		a.focusTop()
		ok(vv)
	})
	p.OnCancel(a.focusTop)
	p.Show()
	a.SetFocus(p)
}

// inform shows a dismissable dialog.
func (a *App) inform(kind ui.DialogKind, title, msg string, details ...string) {
	d := ui.NewDialog(a.Content, kind, title, msg, details...)
	d.OnDone(a.focusTop)
	d.Show()
	a.SetFocus(d)
}
