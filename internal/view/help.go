// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"sort"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/ui"
)

// HelpBind represents a single keybinding.
type HelpBind struct {
	Key  string
	Desc string
}

// HelpSection is one titled column of the help page.
type HelpSection struct {
	Title string
	Binds []HelpBind
}

// Help displays the key bindings of the current view and the global ones.
type Help struct {
	*tview.Table

	app      *App
	sections []HelpSection
	actions  *ui.KeyActions
}

// NewHelp returns the help page for the current top of app.
func NewHelp(app *App) *Help {
	h := Help{
		Table:   tview.NewTable(),
		app:     app,
		actions: ui.NewKeyActions(),
	}
	var current ui.MenuHints
	if top := app.Content.Current(); top != nil {
		current = top.Hints()
	}
	h.sections = helpSections(current, app.deps.Registry.Names())

	return &h
}

// Name returns the page name.
func (*Help) Name() string {
	return "help"
}

// Init lays out the bindings.
func (h *Help) Init(context.Context) error {
	h.SetBorder(true)
	h.SetTitle(" Help ")
	h.SetTitleAlign(tview.AlignCenter)
	h.SetBorderColor(tcell.ColorYellow)
	h.SetBackgroundColor(tcell.ColorDefault)
	h.SetSelectable(false, false)

	h.actions.Add(tcell.KeyEsc, ui.NewKeyAction("Back", nil, true))
	h.SetInputCapture(func(evt *tcell.EventKey) *tcell.EventKey {
		if evt.Key() == tcell.KeyEnter || evt.Rune() == 'q' {
			h.app.Back()
			return nil
		}
		return evt
	})
	h.populate()

	return nil
}

// Start is a no-op.
func (*Help) Start() {}

// Stop is a no-op.
func (*Help) Stop() {}

// Hints returns the page keys.
func (h *Help) Hints() ui.MenuHints {
	return h.actions.Hints()
}

// Sections returns the rendered help sections.
func (h *Help) Sections() []HelpSection {
	return h.sections
}

func helpSections(current ui.MenuHints, resources []string) []HelpSection {
	res := HelpSection{Title: "RESOURCES"}
	for _, n := range resources {
		res.Binds = append(res.Binds, HelpBind{Key: ":" + n, Desc: n})
	}

	cmds := HelpSection{Title: "COMMANDS"}
	for _, c := range commandHints() {
		cmds.Binds = append(cmds.Binds, HelpBind{Key: c.Mnemonic, Desc: c.Description})
	}

	general := HelpSection{Title: "GENERAL", Binds: []HelpBind{
		{"<:>", "Command"},
		{"</>", "Search"},
		{"<?>", "Help"},
		{"<esc>", "Back"},
		{"<ctrl-c>", "Quit"},
	}}

	view := HelpSection{Title: "VIEW"}
	sorted := append(ui.MenuHints(nil), current...)
	sort.Sort(sorted)
	for _, hint := range sorted {
		if hint.IsBlank() {
			continue
		}
		desc := hint.Description
		if len(desc) > 0 && desc[0] == '!' {
			desc = desc[1:]
		}
		view.Binds = append(view.Binds, HelpBind{Key: "<" + hint.Mnemonic + ">", Desc: desc})
	}

	return []HelpSection{res, cmds, general, view}
}

func (h *Help) populate() {
	maxRows := 0
	for _, s := range h.sections {
		maxRows = max(maxRows, len(s.Binds))
	}

	// key, desc and spacer per section.
	const colWidth = 3
	for i, s := range h.sections {
		base := i * colWidth
		h.SetCell(0, base, tview.NewTableCell(s.Title).
			SetTextColor(tcell.ColorAqua).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))

		for r, b := range s.Binds {
			h.SetCell(r+1, base, tview.NewTableCell(b.Key).
				SetTextColor(tcell.ColorYellow).
				SetSelectable(false))
			h.SetCell(r+1, base+1, tview.NewTableCell(b.Desc).
				SetTextColor(tcell.ColorWhite).
				SetSelectable(false).
				SetExpansion(1))
		}
		if i < len(h.sections)-1 {
			for r := 0; r <= maxRows; r++ {
				h.SetCell(r, base+2, tview.NewTableCell("").SetSelectable(false).SetExpansion(1))
			}
		}
	}

	h.SetCell(maxRows+2, 0, tview.NewTableCell("<esc> to close").
		SetTextColor(tcell.ColorGray).
		SetSelectable(false))
}
