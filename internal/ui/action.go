// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"sort"
	"sync"

	"github.com/derailed/tcell/v2"
)

// Rune keys usable as KeyMap entries.
const (
	KeySlash  tcell.Key = '/'
	KeyColon  tcell.Key = ':'
	KeyQm     tcell.Key = '?'
	KeyLeftB  tcell.Key = '['
	KeyRghtB  tcell.Key = ']'
	KeyA      tcell.Key = 'a'
	KeyC      tcell.Key = 'c'
	KeyD      tcell.Key = 'd'
	KeyE      tcell.Key = 'e'
	KeyF      tcell.Key = 'f'
	KeyG      tcell.Key = 'g'
	KeyJ      tcell.Key = 'j'
	KeyK      tcell.Key = 'k'
	KeyN      tcell.Key = 'n'
	KeyP      tcell.Key = 'p'
	KeyR      tcell.Key = 'r'
	KeyS      tcell.Key = 's'
	KeyT      tcell.Key = 't'
	KeyU      tcell.Key = 'u'
	KeyW      tcell.Key = 'w'
	KeyY      tcell.Key = 'y'
	KeyZ      tcell.Key = 'z'
	KeyShiftE tcell.Key = 'E'
	KeyShiftG tcell.Key = 'G'
	KeyShiftS tcell.Key = 'S'
	KeyShiftX tcell.Key = 'X'
	KeySpace  tcell.Key = ' '
)

// ActionHandler handles a keyboard event.
type ActionHandler func(*tcell.EventKey) *tcell.EventKey

// KeyAction represents a keyboard action.
type KeyAction struct {
	Description string
	Action      ActionHandler
	Visible     bool
	Dangerous   bool
}

// KeyMap tracks key to action mappings.
type KeyMap map[tcell.Key]KeyAction

// NewKeyAction returns a new keyboard action.
func NewKeyAction(d string, a ActionHandler, display bool) KeyAction {
	return KeyAction{Description: d, Action: a, Visible: display}
}

// NewDangerousKeyAction returns an action flagged as destructive.
func NewDangerousKeyAction(d string, a ActionHandler, display bool) KeyAction {
	return KeyAction{Description: d, Action: a, Visible: display, Dangerous: true}
}

// AsKey maps an event to its KeyMap key. Runes map onto themselves.
func AsKey(evt *tcell.EventKey) tcell.Key {
	if evt.Key() != tcell.KeyRune {
		return evt.Key()
	}
	return tcell.Key(evt.Rune())
}

// KeyActions is a thread safe collection of key actions.
type KeyActions struct {
	actions KeyMap
	mx      sync.RWMutex
}

// NewKeyActions returns an empty collection.
func NewKeyActions() *KeyActions {
	return &KeyActions{actions: make(KeyMap)}
}

// Add registers or replaces an action.
func (a *KeyActions) Add(k tcell.Key, action KeyAction) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.actions[k] = action
}

// Bulk registers several actions at once.
func (a *KeyActions) Bulk(km KeyMap) {
	a.mx.Lock()
	defer a.mx.Unlock()
	for k, v := range km {
		a.actions[k] = v
	}
}

// Get returns the action bound to k.
func (a *KeyActions) Get(k tcell.Key) (KeyAction, bool) {
	a.mx.RLock()
	defer a.mx.RUnlock()
	v, ok := a.actions[k]
	return v, ok
}

// Delete unbinds keys.
func (a *KeyActions) Delete(kk ...tcell.Key) {
	a.mx.Lock()
	defer a.mx.Unlock()
	for _, k := range kk {
		delete(a.actions, k)
	}
}

// Len returns the number of bound keys.
func (a *KeyActions) Len() int {
	a.mx.RLock()
	defer a.mx.RUnlock()
	return len(a.actions)
}

// Hints returns the menu hints of the visible actions.
func (a *KeyActions) Hints() MenuHints {
	a.mx.RLock()
	defer a.mx.RUnlock()

	kk := make([]tcell.Key, 0, len(a.actions))
	for k := range a.actions {
		kk = append(kk, k)
	}
	sort.Slice(kk, func(i, j int) bool { return kk[i] < kk[j] })

	hh := make(MenuHints, 0, len(kk))
	for _, k := range kk {
		act := a.actions[k]
		desc := act.Description
		if act.Dangerous {
			desc = menuDangerMark + desc
		}
		hh = append(hh, MenuHint{
			Mnemonic:    KeyName(k),
			Description: desc,
			Visible:     act.Visible,
		})
	}

	return hh
}

// KeyName returns the mnemonic shown for k.
func KeyName(k tcell.Key) string {
	if name, ok := tcell.KeyNames[k]; ok {
		return name
	}
	if k == KeySpace {
		return "space"
	}
	if k > 31 && k < 127 {
		return string(rune(k))
	}

	return "?"
}
