// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/session"
	"github.com/portalctl/portalctl/internal/source"
	"github.com/portalctl/portalctl/internal/ui"
)

// Deps are the collaborators the app is built from.
type Deps struct {
	Config   *config.Config
	Client   *client.Client
	Sessions *session.Manager
	Registry *dao.Registry
	Opener   *source.Opener
	Logger   *slog.Logger
}

// App is the portalctl console.
type App struct {
	*tview.Application

	version   string
	deps      Deps
	log       *slog.Logger
	cache     *dao.RecordCache
	Content   *ui.Pages
	cmdBar    *ui.CmdBar
	menu      *ui.Menu
	crumbs    *ui.Crumbs
	flash     *Flash
	indicator *ui.Indicator
	command   *Command
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	mx        sync.RWMutex
}

// NewApp returns an app wired to deps.
func NewApp(deps Deps, version string) *App {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())

	a := App{
		Application: tview.NewApplication(),
		version:     version,
		deps:        deps,
		log:         log,
		cache:       dao.NewRecordCache(dao.DefaultCacheTTL),
		Content:     ui.NewPages(),
		menu:        ui.NewMenu(),
		ctx:         ctx,
		cancel:      cancel,
	}
	a.flash = NewFlash(a.QueueUpdateDraw)
	a.crumbs = ui.NewCrumbs(a.Content.Stack)
	a.indicator = ui.NewIndicator(a.QueueUpdateDraw, deps.Client.BaseURL(), a.ReadOnly())
	a.command = NewCommand(&a)
	a.cmdBar = ui.NewCmdBar(a.command.Suggest)

	return &a
}

// Init wires the collaborators and lays out the screen.
func (a *App) Init() error {
	api := a.deps.Client
	api.SetNotifier(a.flash.Notify)
	api.SetSessionInvalidator(a.deps.Sessions.End)
	api.SetNavigator(a.navigate)
	api.Loading().AddListener(a.indicator)
	a.deps.Sessions.AddListener(a)

	a.Content.AddListener(a.crumbs)
	a.Content.AddListener(a.menu)
	a.Content.AddListener(a)

	a.cmdBar.SetActiveFn(func(active bool) {
		if active {
			a.SetFocus(a.cmdBar)
			return
		}
		a.focusTop()
	})
	a.cmdBar.SetCommandFn(func(cmd string) {
		if err := a.command.Run(cmd); err != nil {
			a.flash.Err(err)
		}
	})
	a.cmdBar.SetSearchFn(func(term string) {
		if s, ok := a.Content.Current().(Searchable); ok {
			s.Search(term)
		}
	})
	a.cmdBar.SetCancelFn(func() {
		if s, ok := a.Content.Current().(Searchable); ok {
			s.SearchNow("")
		}
	})

	a.SetInputCapture(a.keyboard)
	a.EnableMouse(a.deps.Config.Portal.UI.EnableMouse)
	a.SetRoot(a.layout(), true)

	return nil
}

// Run shows the first view and blocks until the app exits. A non empty cmd
// replaces the default view.
func (a *App) Run(cmd string) error {
	a.mx.Lock()
	a.running = true
	a.mx.Unlock()

	if a.deps.Sessions.Token() == "" {
		a.showLogin()
	} else {
		a.indicate(a.deps.Sessions.Current())
		if err := a.command.Run(cmd); err != nil {
			a.flash.Err(err)
			if cmd != "" {
				_ = a.command.Run("")
			}
		}
	}

	return a.Application.Run()
}

// Stop terminates the app.
func (a *App) Stop() {
	a.mx.Lock()
	a.running = false
	a.mx.Unlock()

	a.cancel()
	if top := a.Content.Current(); top != nil {
		top.Stop()
	}
	a.Application.Stop()
}

// IsRunning reports whether the event loop runs.
func (a *App) IsRunning() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()
	return a.running
}

// Context is canceled when the app stops.
func (a *App) Context() context.Context {
	return a.ctx
}

// Flash returns the message bar.
func (a *App) Flash() *Flash {
	return a.flash
}

// Command returns the command interpreter.
func (a *App) Command() *Command {
	return a.command
}

// ReadOnly reports whether mutations are disabled.
func (a *App) ReadOnly() bool {
	return a.deps.Config.Portal.IsReadOnly() || a.deps.Registry.ReadOnly()
}

// QueueUpdateDraw runs fn on the UI goroutine once the app runs, inline
// otherwise.
func (a *App) QueueUpdateDraw(fn func()) {
	if !a.IsRunning() {
		fn()
		return
	}
	go a.Application.QueueUpdateDraw(fn)
}

// Push initializes c and makes it the current page.
func (a *App) Push(c ui.Component) error {
	if err := c.Init(a.ctx); err != nil {
		return err
	}
	a.Content.Show(c)
	c.Start()
	a.SetFocus(c)

	return nil
}

// Reset initializes c and makes it the only page.
func (a *App) Reset(c ui.Component) error {
	if err := c.Init(a.ctx); err != nil {
		return err
	}
	a.Content.Reset(c)
	c.Start()
	a.SetFocus(c)

	return nil
}

// Back returns to the previous page.
func (a *App) Back() {
	a.Content.Back()
}

// reportErr flashes err unless the client already notified it.
func (a *App) reportErr(err error) {
	if err == nil {
		return
	}
	if client.StatusOf(err) >= 0 {
		a.log.Debug("api failure already notified", slog.String("error", err.Error()))
		return
	}
	a.flash.Err(err)
}

// StackPushed is handled by Push.
func (*App) StackPushed(ui.Component) {}

// StackPopped restarts the uncovered page.
func (a *App) StackPopped(_, top ui.Component) {
	if top == nil {
		return
	}
	top.Start()
	a.SetFocus(top)
}

// StackTop is a no-op.
func (*App) StackTop(ui.Component) {}

// SessionChanged reacts to sign-in and sign-out.
func (a *App) SessionChanged(s *session.Session) {
	a.indicate(s)
	if s == nil {
		a.cache.Clear()
	}
}

func (a *App) indicate(s *session.Session) {
	if s == nil {
		a.indicator.SetUser("", "")
		return
	}
	name := s.User.Name
	if name == "" {
		name = s.User.Email
	}
	a.indicator.SetUser(name, s.User.Role)
}

// navigate follows client redirects. Every redirect leads to sign-in.
func (a *App) navigate(path string) {
	a.log.Info("navigate", slog.String("path", path))
	a.QueueUpdateDraw(func() {
		if strings.Contains(path, "sessionExpired") {
			a.flash.Warn("Your session has expired. Please sign in again.")
		}
		a.showLogin()
	})
}

func (a *App) showLogin() {
	if _, ok := a.Content.Current().(*Login); ok {
		return
	}
	if err := a.Reset(NewLogin(a)); err != nil {
		a.flash.Err(err)
	}
}

func (a *App) focusTop() {
	if top := a.Content.Current(); top != nil {
		a.SetFocus(top)
	}
}

func (a *App) layout() tview.Primitive {
	header := tview.NewFlex().SetDirection(tview.FlexColumn)
	if !a.deps.Config.Portal.UI.Crumbsless {
		header.AddItem(a.crumbs, 0, 1, false)
	}
	header.AddItem(a.indicator, 0, 1, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow)
	if !a.deps.Config.Portal.UI.Headless {
		main.AddItem(a.menu, ui.MenuRows, 0, false)
	}
	main.AddItem(a.cmdBar, 3, 0, false)
	main.AddItem(a.Content, 0, 1, true)
	main.AddItem(header, 1, 0, false)
	main.AddItem(a.flash, 1, 0, false)

	return main
}

func (a *App) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if evt.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.cmdBar.IsActive() || a.Content.HasOverlay() || a.typing() {
		return evt
	}

	switch ui.AsKey(evt) {
	case ui.KeyColon:
		a.cmdBar.Activate(ui.ModeCommand, "")
		return nil
	case ui.KeySlash:
		s, ok := a.Content.Current().(Searchable)
		if !ok {
			return evt
		}
		a.cmdBar.Activate(ui.ModeSearch, s.Model().Query().Search)
		return nil
	case ui.KeyQm:
		a.command.help()
		return nil
	case tcell.KeyEsc:
		a.Back()
		return nil
	}

	return evt
}

// typing reports whether the focus sits in a text input.
func (a *App) typing() bool {
	switch a.GetFocus().(type) {
	case *tview.InputField, *tview.DropDown:
		return true
	default:
		return false
	}
}

func (a *App) String() string {
	return fmt.Sprintf("portalctl %s @ %s", a.version, a.deps.Client.BaseURL())
}
