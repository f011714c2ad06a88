// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/ui"
)

// FlashDelay sets the flash auto-clear delay.
const FlashDelay = 5 * time.Second

// FlashLevel represents flash message severity.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// Flash is the one line message bar. It doubles as the client toast sink.
type Flash struct {
	*tview.TextView

	queue  ui.QueueFn
	level  FlashLevel
	text   string
	cancel context.CancelFunc
	mx     sync.RWMutex
}

// NewFlash returns a flash drawing through queue. A nil queue draws inline.
func NewFlash(queue ui.QueueFn) *Flash {
	if queue == nil {
		queue = func(fn func()) { fn() }
	}
	f := Flash{
		TextView: tview.NewTextView(),
		queue:    queue,
	}
	f.SetDynamicColors(true)
	f.SetTextAlign(tview.AlignLeft)
	f.SetBorderPadding(0, 0, 1, 1)
	f.SetBackgroundColor(tcell.ColorDefault)

	return &f
}

// Notify renders a client notification.
func (f *Flash) Notify(n client.Notification) {
	msg := n.Message
	if len(n.Details) > 0 {
		msg += ": " + strings.Join(n.Details, "; ")
	}
	switch n.Kind {
	case client.KindError:
		f.setMessage(FlashErr, msg)
	case client.KindWarning:
		f.setMessage(FlashWarn, msg)
	default:
		f.setMessage(FlashInfo, msg)
	}
}

// Info displays an informational message.
func (f *Flash) Info(msg string) {
	f.setMessage(FlashInfo, msg)
}

// Infof displays a formatted informational message.
func (f *Flash) Infof(format string, args ...any) {
	f.Info(fmt.Sprintf(format, args...))
}

// Warn displays a warning message.
func (f *Flash) Warn(msg string) {
	f.setMessage(FlashWarn, msg)
}

// Err displays an error message.
func (f *Flash) Err(err error) {
	if err != nil {
		f.setMessage(FlashErr, err.Error())
	}
}

// Errf displays a formatted error message.
func (f *Flash) Errf(format string, args ...any) {
	f.setMessage(FlashErr, fmt.Sprintf(format, args...))
}

// Message returns the current level and text.
func (f *Flash) Message() (FlashLevel, string) {
	f.mx.RLock()
	defer f.mx.RUnlock()
	return f.level, f.text
}

// Clear clears the flash message.
func (f *Flash) Clear() {
	f.mx.Lock()
	f.stopTimer()
	f.level, f.text = FlashInfo, ""
	f.mx.Unlock()

	f.queue(func() {
		f.TextView.Clear()
	})
}

func (f *Flash) stopTimer() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Flash) setMessage(level FlashLevel, msg string) {
	if msg == "" {
		f.Clear()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.mx.Lock()
	f.stopTimer()
	f.level, f.text, f.cancel = level, msg, cancel
	f.mx.Unlock()

	f.queue(func() {
		f.TextView.Clear()
		f.SetTextColor(flashColor(level))
		fmt.Fprintf(f.TextView, "%s %s", flashPrefix(level), tview.Escape(msg))
	})

	go f.autoClear(ctx)
}

func (f *Flash) autoClear(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(FlashDelay):
		f.Clear()
	}
}

func flashColor(level FlashLevel) tcell.Color {
	switch level {
	case FlashWarn:
		return tcell.ColorYellow
	case FlashErr:
		return tcell.ColorRed
	default:
		return tcell.ColorGreen
	}
}

func flashPrefix(level FlashLevel) string {
	switch level {
	case FlashWarn:
		return "[WARN[]"
	case FlashErr:
		return "[ERROR[]"
	default:
		return "[INFO[]"
	}
}
