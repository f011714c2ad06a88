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

// BarMode is the command bar input mode.
type BarMode int

const (
	// ModeNormal means the bar is idle.
	ModeNormal BarMode = iota
	// ModeCommand reads a ':' command.
	ModeCommand
	// ModeSearch reads a '/' search term.
	ModeSearch
)

// Mode prompts.
const (
	PromptNormal  = "🚪"
	PromptCommand = "🚪"
	PromptSearch  = "🔍"
)

// SuggestFn lists completions for a prefix.
type SuggestFn func(prefix string) []string

// CmdBar reads commands and search terms. Commands complete with ghost text.
type CmdBar struct {
	*tview.TextView

	mode       BarMode
	active     bool
	text       []rune
	suggest    SuggestFn
	candidates []string
	candIdx    int
	cmdFn      func(string)
	searchFn   func(string)
	cancelFn   func()
	activeFn   func(bool)
	mx         sync.RWMutex
}

// NewCmdBar returns an idle command bar.
func NewCmdBar(suggest SuggestFn) *CmdBar {
	c := CmdBar{
		TextView: tview.NewTextView(),
		suggest:  suggest,
		candIdx:  -1,
	}
	c.SetBorder(true)
	c.SetBorderColor(tcell.ColorDarkCyan)
	c.SetBackgroundColor(tcell.ColorDefault)
	c.SetDynamicColors(true)
	c.SetWrap(false)
	c.SetInputCapture(c.keyboard)
	c.render()

	return &c
}

// SetCommandFn sets the command callback. It receives the text without ':'.
func (c *CmdBar) SetCommandFn(fn func(string)) { c.cmdFn = fn }

// SetSearchFn sets the callback receiving each search edit.
func (c *CmdBar) SetSearchFn(fn func(string)) { c.searchFn = fn }

// SetCancelFn sets the callback fired when a search is abandoned.
func (c *CmdBar) SetCancelFn(fn func()) { c.cancelFn = fn }

// SetActiveFn sets the callback fired on activation changes.
func (c *CmdBar) SetActiveFn(fn func(bool)) { c.activeFn = fn }

// Activate enters mode with prefilled text.
func (c *CmdBar) Activate(mode BarMode, text string) {
	c.mx.Lock()
	c.mode, c.active, c.text = mode, true, []rune(text)
	c.mx.Unlock()
	c.complete()
	c.render()
	if c.activeFn != nil {
		c.activeFn(true)
	}
}

// Deactivate returns to normal mode.
func (c *CmdBar) Deactivate() {
	c.mx.Lock()
	c.mode, c.active, c.text = ModeNormal, false, nil
	c.candidates, c.candIdx = nil, -1
	c.mx.Unlock()
	c.render()
	if c.activeFn != nil {
		c.activeFn(false)
	}
}

// IsActive reports whether the bar reads input.
func (c *CmdBar) IsActive() bool {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.active
}

// Mode returns the current mode.
func (c *CmdBar) Mode() BarMode {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.mode
}

// GetText returns the typed text.
func (c *CmdBar) GetText() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return string(c.text)
}

// Suggestion returns the highlighted completion.
func (c *CmdBar) Suggestion() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	if c.candIdx < 0 || c.candIdx >= len(c.candidates) {
		return ""
	}
	return c.candidates[c.candIdx]
}

// HandleKey feeds evt to the bar.
func (c *CmdBar) HandleKey(evt *tcell.EventKey) *tcell.EventKey {
	return c.keyboard(evt)
}

func (c *CmdBar) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if !c.IsActive() {
		return evt
	}

	switch evt.Key() {
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		c.edit(func(t []rune) []rune {
			if len(t) == 0 {
				return t
			}
			return t[:len(t)-1]
		})
	case tcell.KeyCtrlU, tcell.KeyCtrlW:
		c.edit(func([]rune) []rune { return nil })
	case tcell.KeyEnter:
		c.execute()
	case tcell.KeyEsc:
		c.cancel()
	case tcell.KeyTab, tcell.KeyRight:
		if s := c.Suggestion(); s != "" {
			c.mx.Lock()
			c.text = []rune(s)
			c.mx.Unlock()
			c.complete()
			c.render()
		}
	case tcell.KeyUp:
		c.cycle(-1)
	case tcell.KeyDown:
		c.cycle(1)
	case tcell.KeyRune:
		r := evt.Rune()
		c.edit(func(t []rune) []rune { return append(t, r) })
	default:
		return evt
	}

	return nil
}

func (c *CmdBar) edit(fn func([]rune) []rune) {
	c.mx.Lock()
	c.text = fn(c.text)
	mode, text := c.mode, string(c.text)
	c.mx.Unlock()

	c.complete()
	c.render()
	if mode == ModeSearch && c.searchFn != nil {
		c.searchFn(text)
	}
}

func (c *CmdBar) cycle(step int) {
	c.mx.Lock()
	if n := len(c.candidates); n > 0 {
		c.candIdx = (c.candIdx + step + n) % n
	}
	c.mx.Unlock()
	c.render()
}

func (c *CmdBar) complete() {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.candidates, c.candIdx = nil, -1
	text := strings.TrimSpace(string(c.text))
	if c.mode != ModeCommand || text == "" || c.suggest == nil || strings.Contains(text, " ") {
		return
	}
	for _, s := range c.suggest(strings.ToLower(text)) {
		if s != text {
			c.candidates = append(c.candidates, s)
		}
	}
	if len(c.candidates) > 0 {
		c.candIdx = 0
	}
}

func (c *CmdBar) execute() {
	c.mx.RLock()
	mode, text := c.mode, strings.TrimSpace(string(c.text))
	c.mx.RUnlock()

	c.Deactivate()
	if mode == ModeCommand && text != "" && c.cmdFn != nil {
		c.cmdFn(text)
	}
}

func (c *CmdBar) cancel() {
	mode := c.Mode()
	c.Deactivate()
	if mode == ModeSearch && c.cancelFn != nil {
		c.cancelFn()
	}
}

func (c *CmdBar) render() {
	c.mx.RLock()
	mode, text := c.mode, string(c.text)
	c.mx.RUnlock()
	ghost := c.Suggestion()

	icon, prefix := PromptNormal, ">"
	switch mode {
	case ModeCommand:
		icon, prefix = PromptCommand, ":"
	case ModeSearch:
		icon, prefix = PromptSearch, "/"
	}

	c.Clear()
	if ghost != "" && strings.HasPrefix(ghost, text) {
		fmt.Fprintf(c.TextView, "%s%s [::b]%s[gray::-]%s", icon, prefix, tview.Escape(text), tview.Escape(ghost[len(text):]))
		return
	}
	fmt.Fprintf(c.TextView, "%s%s [::b]%s", icon, prefix, tview.Escape(text))
}
