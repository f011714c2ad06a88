// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"context"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/portalctl/portalctl/internal/grid"
)

// RowAction is a resource specific operation on the selected row.
type RowAction struct {
	Key         tcell.Key
	Description string
	// Dangerous actions ask for confirmation first.
	Dangerous bool
	// Confirm builds the confirmation text. Nil skips confirmation.
	Confirm func(row grid.Row) string
	Handler func(ctx context.Context, row grid.Row) error
}

// ActionRegistry maps resource names to their row actions.
type ActionRegistry struct {
	actions map[string][]RowAction
	mx      sync.RWMutex
}

// NewActionRegistry returns an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string][]RowAction)}
}

// Register appends actions for resource.
func (r *ActionRegistry) Register(resource string, aa ...RowAction) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.actions[resource] = append(r.actions[resource], aa...)
}

// For returns the actions of resource.
func (r *ActionRegistry) For(resource string) []RowAction {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return append([]RowAction(nil), r.actions[resource]...)
}

// Get returns the action of resource bound to key.
func (r *ActionRegistry) Get(resource string, key tcell.Key) (RowAction, bool) {
	for _, a := range r.For(resource) {
		if a.Key == key {
			return a, true
		}
	}

	return RowAction{}, false
}

// Bind maps the actions of resource onto km. run executes an action against
// the selected row.
func (r *ActionRegistry) Bind(resource string, km *KeyActions, run func(RowAction)) {
	for _, a := range r.For(resource) {
		act := a
		handler := func(*tcell.EventKey) *tcell.EventKey {
			run(act)
			return nil
		}
		if act.Dangerous {
			km.Add(act.Key, NewDangerousKeyAction(act.Description, handler, true))
			continue
		}
		km.Add(act.Key, NewKeyAction(act.Description, handler, true))
	}
}
