// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const dialogID = "dialog"

// DialogKind selects the dialog styling.
type DialogKind int

const (
	DialogInfo DialogKind = iota
	DialogWarning
	DialogError
)

// Dialog is an acknowledge-only modal.
type Dialog struct {
	*tview.Modal

	pages  *Pages
	onDone func()
}

// NewDialog returns a dialog with an OK button. Details are listed under the
// message.
func NewDialog(pages *Pages, kind DialogKind, title, msg string, details ...string) *Dialog {
	d := Dialog{
		Modal: tview.NewModal(),
		pages: pages,
	}
	d.SetBackgroundColor(tcell.ColorDefault)
	d.SetText(dialogText(title, msg, details))
	d.AddButtons([]string{"OK"})
	d.SetDoneFunc(func(int, string) {
		d.pages.Dismiss(dialogID)
		if d.onDone != nil {
			d.onDone()
		}
	})

	fg, bg := dialogColors(kind)
	d.SetTextColor(fg)
	d.SetButtonBackgroundColor(bg)
	d.SetButtonTextColor(tcell.ColorWhite)

	return &d
}

// OnDone sets the dismiss callback.
func (d *Dialog) OnDone(fn func()) *Dialog {
	d.onDone = fn
	return d
}

// Show overlays the dialog.
func (d *Dialog) Show() {
	d.pages.Overlay(dialogID, d)
}

// ShowInfo shows an info dialog.
func ShowInfo(pages *Pages, title, msg string) {
	NewDialog(pages, DialogInfo, title, msg).Show()
}

// ShowError shows an error dialog.
func ShowError(pages *Pages, title, msg string, details ...string) {
	NewDialog(pages, DialogError, title, msg, details...).Show()
}

func dialogText(title, msg string, details []string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(msg)
	for _, d := range details {
		b.WriteString("\n• ")
		b.WriteString(d)
	}

	return b.String()
}

func dialogColors(k DialogKind) (tcell.Color, tcell.Color) {
	switch k {
	case DialogError:
		return tcell.ColorRed, tcell.ColorRed
	case DialogWarning:
		return tcell.ColorYellow, tcell.ColorOlive
	default:
		return tcell.ColorWhite, tcell.ColorBlue
	}
}
