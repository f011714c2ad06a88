// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// Indicator glyphs.
const (
	LoadingGlyph  = "⏳"
	ReadOnlyGlyph = "🔒"
)

// QueueFn schedules fn on the UI goroutine.
type QueueFn func(fn func())

// Indicator is the status line: api endpoint, signed in user and the global
// loading state.
type Indicator struct {
	*tview.TextView

	queue    QueueFn
	endpoint string
	user     string
	role     string
	readOnly bool
	loading  bool
	mx       sync.RWMutex
}

// NewIndicator returns a status indicator. A nil queue renders inline.
func NewIndicator(queue QueueFn, endpoint string, readOnly bool) *Indicator {
	if queue == nil {
		queue = func(fn func()) { fn() }
	}
	i := Indicator{
		TextView: tview.NewTextView(),
		queue:    queue,
		endpoint: endpoint,
		readOnly: readOnly,
	}
	i.SetDynamicColors(true)
	i.SetTextAlign(tview.AlignRight)
	i.SetBackgroundColor(tcell.ColorDefault)
	i.SetBorderPadding(0, 0, 1, 1)
	i.refresh()

	return &i
}

// LoadingChanged tracks the global loading state.
func (i *Indicator) LoadingChanged(visible bool) {
	i.mx.Lock()
	i.loading = visible
	i.mx.Unlock()
	i.queue(i.refresh)
}

// SetUser shows the signed in user. An empty name means signed out.
func (i *Indicator) SetUser(name, role string) {
	i.mx.Lock()
	i.user, i.role = name, role
	i.mx.Unlock()
	i.queue(i.refresh)
}

// IsLoading reports the global loading state.
func (i *Indicator) IsLoading() bool {
	i.mx.RLock()
	defer i.mx.RUnlock()
	return i.loading
}

// Status returns the plain status text.
func (i *Indicator) Status() string {
	i.mx.RLock()
	defer i.mx.RUnlock()

	parts := make([]string, 0, 4)
	if i.loading {
		parts = append(parts, LoadingGlyph+" loading")
	}
	if i.readOnly {
		parts = append(parts, ReadOnlyGlyph+" read-only")
	}
	if i.user != "" {
		u := i.user
		if i.role != "" {
			u = fmt.Sprintf("%s (%s)", i.user, i.role)
		}
		parts = append(parts, u)
	} else {
		parts = append(parts, "signed out")
	}
	parts = append(parts, i.endpoint)

	return strings.Join(parts, " | ")
}

func (i *Indicator) refresh() {
	i.SetText("[aqua::b]" + tview.Escape(i.Status()))
}
