// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"sync/atomic"

	"github.com/derailed/tcell/v2"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/ui"
)

const fixFieldsMsg = "Please fix the highlighted fields"

// FormView hosts the create or edit form of a workflow.
type FormView struct {
	*ui.Form

	app      *App
	workflow *crud.Workflow
	actions  *ui.KeyActions
	saving   atomic.Bool
}

// NewFormView returns the form for the open workflow mode.
func NewFormView(app *App, noun string, wf *crud.Workflow, values crud.Values) *FormView {
	mode := wf.Mode()
	title := "Edit " + noun
	if mode == crud.ModeCreate {
		title = "Create " + noun
	}
	f := FormView{
		app:      app,
		workflow: wf,
		actions:  ui.NewKeyActions(),
	}
	f.Form = ui.NewForm(title, wf.Schema(), mode, values).
		OnSave(f.save).
		OnCancel(app.Back)

	return &f
}

// Name returns the form mode.
func (f *FormView) Name() string {
	return f.Mode().String()
}

// Init binds the form keys.
func (f *FormView) Init(context.Context) error {
	f.actions.Bulk(ui.KeyMap{
		tcell.KeyCtrlS: ui.NewKeyAction("Save", f.saveCmd, true),
		tcell.KeyEsc:   ui.NewKeyAction("Cancel", nil, true),
		tcell.KeyTab:   ui.NewKeyAction("Next Field", nil, true),
	})
	f.SetInputCapture(func(evt *tcell.EventKey) *tcell.EventKey {
		if a, ok := f.actions.Get(evt.Key()); ok && a.Action != nil {
			return a.Action(evt)
		}
		return evt
	})

	return nil
}

// Start is a no-op.
func (*FormView) Start() {}

// Stop abandons the workflow unless the save went through.
func (f *FormView) Stop() {
	switch f.workflow.Mode() {
	case crud.ModeCreate, crud.ModeEdit:
		f.workflow.Cancel()
	}
}

// Hints returns the form keys.
func (f *FormView) Hints() ui.MenuHints {
	return f.actions.Hints()
}

func (f *FormView) saveCmd(*tcell.EventKey) *tcell.EventKey {
	f.Submit()
	return nil
}

// save submits off the UI goroutine. Field errors stay on the form; a failed
// call keeps the form open.
func (f *FormView) save(v crud.Values) {
	if !f.saving.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer f.saving.Store(false)

		errs, err := f.workflow.Submit(f.app.Context(), v)
		f.app.QueueUpdateDraw(func() {
			switch {
			case err != nil:
				f.SetErrors(nil)
				f.app.reportErr(err)
			case len(errs) > 0:
				f.SetErrors(errs)
				f.app.flash.Warn(fixFieldsMsg)
			default:
				f.app.Back()
			}
		})
	}()
}
