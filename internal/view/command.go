// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fvbommel/sortorder"
	"github.com/portalctl/portalctl/internal/ui"
)

// Error is a sentinel view error.
type Error string

const (
	ErrNotSearchable  = Error("current view cannot be searched")
	ErrNotFilterable  = Error("current view cannot be filtered")
	ErrNotRefreshable = Error("current view cannot be refreshed")
	ErrUsage          = Error("invalid command usage")
)

func (e Error) Error() string {
	return string(e)
}

// builtinCmds are the commands that are not resources.
var builtinCmds = []string{"quit", "logout", "login", "help", "refresh", "search", "filter", "upload"}

// Command interprets the command bar.
type Command struct {
	app *App
}

// NewCommand returns the interpreter of app.
func NewCommand(app *App) *Command {
	return &Command{app: app}
}

// Run parses and executes cmd. An empty command shows the default view.
func (c *Command) Run(cmd string) error {
	cmd = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd), ":"))
	if cmd == "" {
		return c.home()
	}

	name, args := parseCommand(cmd)
	switch strings.ToLower(name) {
	case "q", "q!", "quit", "exit":
		c.app.Stop()
	case "logout":
		c.logout()
	case "login":
		c.app.showLogin()
	case "help", "h":
		c.help()
	case "refresh", "r":
		return c.refresh()
	case "search":
		return c.search(strings.Join(args, " "))
	case "filter":
		return c.filter(args)
	case "upload", "up":
		return c.upload(args)
	default:
		return c.resource(name, false)
	}

	return nil
}

// Suggest completes command and resource names.
func (c *Command) Suggest(prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := c.app.deps.Registry.Suggest(prefix)
	for _, n := range builtinCmds {
		if strings.HasPrefix(n, prefix) && n != prefix {
			out = append(out, n)
		}
	}
	sort.Sort(sortorder.Natural(out))

	return out
}

// home replaces the history with the default view.
func (c *Command) home() error {
	return c.resource(c.app.deps.Config.Portal.DefaultView, true)
}

func (c *Command) resource(name string, reset bool) error {
	res, err := c.app.deps.Registry.Lookup(name)
	if err != nil {
		return err
	}
	v, err := NewResourceView(c.app, res)
	if err != nil {
		return fmt.Errorf("failed to build %s view: %w", res.Name(), err)
	}

	c.app.flash.Infof("Viewing %s...", res.Title())
	if reset {
		return c.app.Reset(v)
	}
	return c.app.Push(v)
}

func (c *Command) logout() {
	a := c.app
	go func() {
		a.deps.Sessions.Logout(a.Context(), a.deps.Client)
		a.QueueUpdateDraw(func() {
			a.showLogin()
			a.flash.Info("Signed out")
		})
	}()
}

func (c *Command) help() {
	if _, ok := c.app.Content.Current().(*Help); ok {
		c.app.Back()
		return
	}
	if err := c.app.Push(NewHelp(c.app)); err != nil {
		c.app.flash.Err(err)
	}
}

func (c *Command) refresh() error {
	v, ok := c.app.Content.Current().(*ResourceView)
	if !ok {
		return ErrNotRefreshable
	}
	v.Refresh()

	return nil
}

func (c *Command) search(term string) error {
	s, ok := c.app.Content.Current().(Searchable)
	if !ok {
		return ErrNotSearchable
	}
	s.SearchNow(term)

	return nil
}

// filter applies `filter <column> [value]`. A missing value clears it.
func (c *Command) filter(args []string) error {
	v, ok := c.app.Content.Current().(*ResourceView)
	if !ok {
		return ErrNotFilterable
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: filter <column> [value]", ErrUsage)
	}
	key := args[0]
	if !contains(v.filterable(), key) {
		return fmt.Errorf("column %q is not filterable", key)
	}
	v.Filter(key, strings.Join(args[1:], " "))

	return nil
}

// upload handles `upload [single|avatar|document] ref...`.
func (c *Command) upload(args []string) error {
	kind := UploadAuto
	if len(args) > 0 {
		if k, ok := parseUploadKind(args[0]); ok {
			kind, args = k, args[1:]
		}
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: upload [single|avatar|document] <path|s3://bucket/key>...", ErrUsage)
	}
	if kind != UploadAuto && len(args) > 1 {
		return fmt.Errorf("%w: %s takes one file", ErrUsage, kind)
	}
	if c.app.ReadOnly() {
		return Error("uploads are disabled in read-only mode")
	}
	go c.app.upload(kind, args)

	return nil
}

func parseCommand(cmd string) (string, []string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "", nil
	}

	return parts[0], parts[1:]
}

// commandHints lists the command bar entries for the help page.
func commandHints() ui.MenuHints {
	return ui.MenuHints{
		{Mnemonic: ":<resource>", Description: "Open a resource", Visible: true},
		{Mnemonic: ":search <term>", Description: "Search", Visible: true},
		{Mnemonic: ":filter <col> <val>", Description: "Filter", Visible: true},
		{Mnemonic: ":upload <ref>...", Description: "Upload", Visible: true},
		{Mnemonic: ":refresh", Description: "Refresh", Visible: true},
		{Mnemonic: ":logout", Description: "Sign out", Visible: true},
		{Mnemonic: ":quit", Description: "Quit", Visible: true},
	}
}
