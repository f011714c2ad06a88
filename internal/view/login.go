// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/session"
	"github.com/portalctl/portalctl/internal/ui"
)

const (
	loginWidth  = 60
	loginHeight = 11
)

// Login is the sign-in page.
type Login struct {
	*tview.Grid

	app      *App
	form     *tview.Form
	email    *tview.InputField
	password *tview.InputField
	remember *tview.Checkbox
	actions  *ui.KeyActions
	busy     atomic.Bool
}

// NewLogin returns the sign-in page of app.
func NewLogin(app *App) *Login {
	l := Login{
		app:      app,
		form:     tview.NewForm(),
		email:    tview.NewInputField().SetLabel("Email").SetFieldWidth(40),
		password: tview.NewInputField().SetLabel("Password").SetFieldWidth(40).SetMaskCharacter('*'),
		remember: tview.NewCheckbox().SetLabel("Remember me"),
		actions:  ui.NewKeyActions(),
	}
	l.remember.SetChecked(app.deps.Config.Portal.SessionPolicy().Persist)

	l.form.SetBorder(true)
	l.form.SetTitle(" Sign in ")
	l.form.SetBackgroundColor(tcell.ColorDefault)
	l.form.SetFieldBackgroundColor(tcell.ColorDarkSlateGray)
	l.form.AddFormItem(l.email)
	l.form.AddFormItem(l.password)
	l.form.AddFormItem(l.remember)
	l.form.AddButton("Sign in", l.submit)
	l.form.AddButton("Quit", app.Stop)
	l.form.SetButtonsAlign(tview.AlignCenter)

	l.Grid = tview.NewGrid().
		SetColumns(0, loginWidth, 0).
		SetRows(0, loginHeight, 0).
		AddItem(l.form, 1, 1, 1, 1, 0, 0, true)

	return &l
}

// Name returns the page name.
func (*Login) Name() string {
	return "login"
}

// Init binds the page keys.
func (l *Login) Init(context.Context) error {
	l.actions.Bulk(ui.KeyMap{
		tcell.KeyEnter: ui.NewKeyAction("Sign in", nil, true),
		tcell.KeyTab:   ui.NewKeyAction("Next Field", nil, true),
		tcell.KeyCtrlC: ui.NewKeyAction("Quit", nil, true),
	})

	return nil
}

// Start clears the password.
func (l *Login) Start() {
	l.password.SetText("")
}

// Stop is a no-op.
func (*Login) Stop() {}

// Hints returns the page keys.
func (l *Login) Hints() ui.MenuHints {
	return l.actions.Hints()
}

// Credentials returns the typed email, password and remember choice.
func (l *Login) Credentials() (string, string, bool) {
	return l.email.GetText(), l.password.GetText(), l.remember.IsChecked()
}

// SetCredentials fills the form.
func (l *Login) SetCredentials(email, password string, remember bool) {
	l.email.SetText(email)
	l.password.SetText(password)
	l.remember.SetChecked(remember)
}

func (l *Login) submit() {
	email, password, remember := l.Credentials()
	if email == "" || password == "" {
		l.app.flash.Warn("Email and password are required")
		return
	}
	if !l.busy.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer l.busy.Store(false)
		if err := l.signIn(email, password, remember); err != nil {
			l.app.reportErr(err)
		}
	}()
}

// signIn authenticates and swaps the login page for the default view.
func (l *Login) signIn(email, password string, remember bool) error {
	a := l.app
	policy := a.deps.Config.Portal.SessionPolicy()
	switch {
	case !remember:
		policy = session.Transient()
	case !policy.Persist:
		policy = session.Remember(a.deps.Config.Portal.SessionDays)
	}

	sess, err := a.deps.Sessions.Login(a.Context(), a.deps.Client, email, password, policy)
	if err != nil {
		return err
	}
	a.log.Info("signed in", slog.String("user", sess.User.Email), slog.Bool("persisted", sess.Persisted))
	a.QueueUpdateDraw(func() {
		if err := a.command.home(); err != nil {
			a.flash.Err(err)
		}
	})

	return nil
}
