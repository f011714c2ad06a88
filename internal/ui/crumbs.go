// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// Crumbs renders the navigation history.
type Crumbs struct {
	*tview.TextView

	stack *Stack
}

// NewCrumbs returns a breadcrumb view tracking stack.
func NewCrumbs(stack *Stack) *Crumbs {
	c := Crumbs{
		TextView: tview.NewTextView(),
		stack:    stack,
	}
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetTextAlign(tview.AlignLeft)
	c.SetBorderPadding(0, 0, 1, 1)
	c.SetDynamicColors(true)

	return &c
}

// StackPushed refreshes the crumbs.
func (c *Crumbs) StackPushed(Component) {
	c.refresh()
}

// StackPopped refreshes the crumbs.
func (c *Crumbs) StackPopped(_, _ Component) {
	c.refresh()
}

// StackTop refreshes the crumbs.
func (c *Crumbs) StackTop(Component) {
	c.refresh()
}

func (c *Crumbs) refresh() {
	c.Clear()
	crumbs := c.stack.Flatten()
	last := len(crumbs) - 1
	for i, crumb := range crumbs {
		name := strings.ReplaceAll(strings.ToLower(crumb), " ", "")
		if i == last {
			_, _ = fmt.Fprintf(c, "[black:orange:b] <%s> [-:-:-] ", name)
			continue
		}
		_, _ = fmt.Fprintf(c, "[gray::-] <%s> [-:-:-] ", name)
	}
}
