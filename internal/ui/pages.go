// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"fmt"
	"sync"

	"github.com/derailed/tview"
)

// Pages shows the top of a component stack. Modals are layered on top
// without entering the stack.
type Pages struct {
	*tview.Pages
	*Stack

	overlays map[string]struct{}
	mx       sync.RWMutex
}

// NewPages returns a pages manager listening to its own stack.
func NewPages() *Pages {
	p := &Pages{
		Pages:    tview.NewPages(),
		Stack:    NewStack(),
		overlays: make(map[string]struct{}),
	}
	p.Stack.AddListener(p)

	return p
}

// Current returns the top component.
func (p *Pages) Current() Component {
	return p.Stack.Top()
}

// Show pushes c and brings it to front.
func (p *Pages) Show(c Component) {
	p.Stack.Push(c)
}

// Back pops the top component unless it is the last one.
func (p *Pages) Back() bool {
	if p.Stack.Len() <= 1 {
		return false
	}
	_, ok := p.Stack.Pop()
	return ok
}

// Reset replaces the whole history with c.
func (p *Pages) Reset(c Component) {
	p.Stack.Clear()
	p.Stack.Push(c)
}

// Overlay layers a modal on top of the current page.
func (p *Pages) Overlay(id string, m tview.Primitive) {
	p.mx.Lock()
	p.overlays[id] = struct{}{}
	p.mx.Unlock()
	p.AddPage(id, m, true, true)
}

// Dismiss removes a modal.
func (p *Pages) Dismiss(id string) {
	p.mx.Lock()
	delete(p.overlays, id)
	p.mx.Unlock()
	p.RemovePage(id)
}

// HasOverlay reports whether a modal is showing.
func (p *Pages) HasOverlay() bool {
	p.mx.RLock()
	defer p.mx.RUnlock()
	return len(p.overlays) > 0
}

// StackPushed shows the pushed component.
func (p *Pages) StackPushed(c Component) {
	p.AddPage(componentID(c), c, true, true)
}

// StackPopped removes old and shows top.
func (p *Pages) StackPopped(old, top Component) {
	p.RemovePage(componentID(old))
	if top != nil {
		p.SwitchToPage(componentID(top))
	}
}

// StackTop is a no-op.
func (*Pages) StackTop(Component) {}

func componentID(c Component) string {
	return fmt.Sprintf("%s-%p", c.Name(), c)
}
