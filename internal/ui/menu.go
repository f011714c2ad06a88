// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"fmt"
	"sort"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	menuFmt        = " [dodgerblue::b]<%s>[white::-] %s "
	menuDangerFmt  = " [red::b]<%s>[white::-] %s "
	MenuRows       = 4
	menuDangerMark = "!"
)

// Menu lays out the key hints of the top component in columns.
type Menu struct {
	*tview.Table
}

// NewMenu returns an empty menu.
func NewMenu() *Menu {
	m := Menu{Table: tview.NewTable()}
	m.SetBackgroundColor(tcell.ColorDefault)
	m.SetBorderPadding(0, 0, 1, 1)

	return &m
}

// HydrateMenu renders the visible hints column by column.
func (m *Menu) HydrateMenu(hh MenuHints) {
	m.Clear()

	visible := make(MenuHints, 0, len(hh))
	for _, h := range hh {
		if h.Visible && !h.IsBlank() {
			visible = append(visible, h)
		}
	}
	sort.Sort(visible)

	for i, h := range visible {
		row, col := i%MenuRows, i/MenuRows
		cell := tview.NewTableCell(formatHint(h))
		cell.SetBackgroundColor(tcell.ColorDefault)
		m.SetCell(row, col, cell)
	}
}

func formatHint(h MenuHint) string {
	if len(h.Description) > 0 && h.Description[:1] == menuDangerMark {
		return fmt.Sprintf(menuDangerFmt, h.Mnemonic, h.Description[1:])
	}
	return fmt.Sprintf(menuFmt, h.Mnemonic, h.Description)
}

// StackPushed shows the hints of c.
func (m *Menu) StackPushed(c Component) {
	m.HydrateMenu(c.Hints())
}

// StackPopped shows the hints of the new top.
func (m *Menu) StackPopped(_, top Component) {
	if top == nil {
		m.Clear()
		return
	}
	m.HydrateMenu(top.Hints())
}

// StackTop shows the hints of t.
func (m *Menu) StackTop(t Component) {
	m.HydrateMenu(t.Hints())
}
