// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"context"
	"strconv"
	"sync"

	"github.com/derailed/tview"
)

// MenuHint is one keyboard mnemonic shown in the menu.
type MenuHint struct {
	Mnemonic    string
	Description string
	Visible     bool
}

// IsBlank reports a layout placeholder.
func (m MenuHint) IsBlank() bool {
	return m.Mnemonic == "" && m.Description == "" && !m.Visible
}

// MenuHints sorts numeric mnemonics first, then by description.
type MenuHints []MenuHint

func (h MenuHints) Len() int      { return len(h) }
func (h MenuHints) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h MenuHints) Less(i, j int) bool {
	n, errN := strconv.Atoi(h[i].Mnemonic)
	m, errM := strconv.Atoi(h[j].Mnemonic)
	switch {
	case errN == nil && errM == nil:
		return n < m
	case errN == nil:
		return true
	case errM == nil:
		return false
	default:
		return h[i].Description < h[j].Description
	}
}

// Hinter provides menu hints.
type Hinter interface {
	Hints() MenuHints
}

// Primitive is a named tview primitive.
type Primitive interface {
	tview.Primitive
	Name() string
}

// Igniter is a component with a lifecycle.
type Igniter interface {
	Init(ctx context.Context) error
	Start()
	Stop()
}

// Component is a stackable page of the app.
type Component interface {
	Primitive
	Igniter
	Hinter
}

// StackListener observes the page stack.
type StackListener interface {
	StackPushed(Component)
	StackPopped(old, top Component)
	StackTop(Component)
}

// Stack tracks the navigation history. Only the top component runs.
type Stack struct {
	components []Component
	listeners  []StackListener
	mx         sync.RWMutex
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Flatten returns the component names, bottom first.
func (s *Stack) Flatten() []string {
	s.mx.RLock()
	defer s.mx.RUnlock()

	ss := make([]string, 0, len(s.components))
	for _, c := range s.components {
		ss = append(ss, c.Name())
	}

	return ss
}

// AddListener registers l and replays the current top.
func (s *Stack) AddListener(l StackListener) {
	s.mx.Lock()
	s.listeners = append(s.listeners, l)
	s.mx.Unlock()

	if top := s.Top(); top != nil {
		l.StackTop(top)
	}
}

// RemoveListener unregisters l.
func (s *Stack) RemoveListener(l StackListener) {
	s.mx.Lock()
	defer s.mx.Unlock()
	for i, lis := range s.listeners {
		if lis == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Push stops the current top and adds c.
func (s *Stack) Push(c Component) {
	if top := s.Top(); top != nil {
		top.Stop()
	}

	s.mx.Lock()
	s.components = append(s.components, c)
	s.mx.Unlock()

	for _, l := range s.snapshot() {
		l.StackPushed(c)
	}
}

// Pop stops and removes the top component.
func (s *Stack) Pop() (Component, bool) {
	s.mx.Lock()
	if len(s.components) == 0 {
		s.mx.Unlock()
		return nil, false
	}
	c := s.components[len(s.components)-1]
	s.components = s.components[:len(s.components)-1]
	s.mx.Unlock()

	c.Stop()
	top := s.Top()
	for _, l := range s.snapshot() {
		l.StackPopped(c, top)
	}

	return c, true
}

// Clear pops every component.
func (s *Stack) Clear() {
	for !s.Empty() {
		s.Pop()
	}
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.components)
}

// Empty reports an empty stack.
func (s *Stack) Empty() bool {
	return s.Len() == 0
}

// Top returns the top component, nil when empty.
func (s *Stack) Top() Component {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}

func (s *Stack) snapshot() []StackListener {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return append([]StackListener(nil), s.listeners...)
}
