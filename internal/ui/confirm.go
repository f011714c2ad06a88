// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const confirmID = "confirm"

// Confirm button labels.
const (
	ConfirmYes = "Yes"
	ConfirmNo  = "No"
)

// Confirm is a yes/no modal.
type Confirm struct {
	*tview.Modal

	pages     *Pages
	onConfirm func()
	onCancel  func()
}

// NewConfirm returns a confirmation modal shown over pages.
func NewConfirm(pages *Pages, msg string) *Confirm {
	c := Confirm{
		Modal: tview.NewModal(),
		pages: pages,
	}
	c.SetText(msg)
	c.SetBackgroundColor(tcell.ColorDefault)
	c.AddButtons([]string{ConfirmYes, ConfirmNo})
	c.SetDoneFunc(c.done)
	c.SetDangerous(false)

	return &c
}

// SetDangerous styles the modal for destructive actions.
func (c *Confirm) SetDangerous(b bool) *Confirm {
	if b {
		c.SetTextColor(tcell.ColorRed)
		c.SetButtonBackgroundColor(tcell.ColorRed)
	} else {
		c.SetTextColor(tcell.ColorWhite)
		c.SetButtonBackgroundColor(tcell.ColorBlue)
	}
	c.SetButtonTextColor(tcell.ColorWhite)

	return c
}

// OnConfirm sets the yes callback.
func (c *Confirm) OnConfirm(fn func()) *Confirm {
	c.onConfirm = fn
	return c
}

// OnCancel sets the no callback. Esc also cancels.
func (c *Confirm) OnCancel(fn func()) *Confirm {
	c.onCancel = fn
	return c
}

// Show overlays the modal.
func (c *Confirm) Show() {
	c.pages.Overlay(confirmID, c)
}

// Cancel dismisses the modal as if No was picked.
func (c *Confirm) Cancel() {
	c.done(-1, "")
}

func (c *Confirm) done(_ int, label string) {
	c.pages.Dismiss(confirmID)
	if label == ConfirmYes {
		if c.onConfirm != nil {
			c.onConfirm()
		}
		return
	}
	if c.onCancel != nil {
		c.onCancel()
	}
}
