// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/render"
	"github.com/portalctl/portalctl/internal/ui"
)

// Searchable views accept the command bar search.
type Searchable interface {
	Search(term string)
	SearchNow(term string)
	Model() *grid.Grid
}

// ResourceView lists a resource and drives its create, edit and delete flow.
type ResourceView struct {
	*ui.DataGrid

	app      *App
	res      *dao.Resource
	schema   crud.Schema
	workflow *crud.Workflow
	rows     *ui.ActionRegistry
	stats    *statsBar
	started  atomic.Bool
}

// NewResourceView returns the list view of res.
func NewResourceView(app *App, res *dao.Resource) (*ResourceView, error) {
	schema, err := res.Schema()
	if err != nil {
		return nil, err
	}
	v := ResourceView{
		app:    app,
		res:    res,
		schema: schema,
		rows:   ui.NewActionRegistry(),
	}
	cols, err := res.Columns(v.buttonFn)
	if err != nil {
		return nil, err
	}

	api := app.deps.Client
	opts := res.GridOptions(cols, app.deps.Config.Portal.PageSize)
	opts.OnRowClick = func(row grid.Row, _ int) { v.describe(row) }
	model := grid.New(res.Lister(api), opts, app.log)

	debounce, err := app.deps.Config.Portal.GetSearchDebounce()
	if err != nil {
		app.log.Warn("search debounce", slog.String("error", err.Error()))
	}
	v.DataGrid = ui.NewDataGrid(model, app.QueueUpdateDraw, debounce)
	v.Table().SetTitle(fmt.Sprintf(" %s ", res.Title()))

	if specs := res.Spec().Stats; len(specs) > 0 {
		v.stats = newStatsBar(specs, app.QueueUpdateDraw)
		model.AddListener(v.stats)
		v.AddItem(v.stats, 1, 0, false)
	}

	v.workflow = crud.NewWorkflow(api, schema, res.Endpoints(), res.WorkflowOptions(app.log))
	v.workflow.AddListener(&v)

	return &v, nil
}

// Name returns the resource name.
func (v *ResourceView) Name() string {
	return v.res.Name()
}

// Resource returns the listed resource.
func (v *ResourceView) Resource() *dao.Resource {
	return v.res
}

// Workflow returns the CRUD workflow.
func (v *ResourceView) Workflow() *crud.Workflow {
	return v.workflow
}

// Init binds the resource keys.
func (v *ResourceView) Init(context.Context) error {
	v.bindKeys()
	return nil
}

// Start fetches the first page. Coming back to the list refetches only
// when a save moved the refresh token.
func (v *ResourceView) Start() {
	if v.started.Swap(true) {
		v.DataGrid.Resume(v.app.Context(), v.workflow.RefreshToken())
		return
	}
	v.DataGrid.Start(v.app.Context())
}

// Stop cancels pending fetches.
func (v *ResourceView) Stop() {
	v.DataGrid.Stop()
}

// WorkflowChanged logs the transition.
func (v *ResourceView) WorkflowChanged(m crud.Mode) {
	v.app.log.Debug("workflow", slog.String("resource", v.res.Name()), slog.String("mode", m.String()))
}

// Refreshed refetches the current page in place.
func (v *ResourceView) Refreshed(token uint64) {
	v.res.Forget(v.app.cache)
	v.ClearMarks()
	go v.Model().SetRefreshToken(v.app.Context(), token)
}

func (v *ResourceView) bindKeys() {
	aa := v.Actions()
	aa.Bulk(ui.KeyMap{
		ui.KeyD: ui.NewKeyAction("Describe", v.describeCmd, true),
	})
	if v.filterable() != nil {
		aa.Add(ui.KeyF, ui.NewKeyAction("Filter", v.filterCmd, true))
	}
	if v.res.ReadOnly() || v.app.ReadOnly() {
		return
	}

	if v.workflow.CanCreate() {
		aa.Add(ui.KeyA, ui.NewKeyAction("Add", v.createCmd, true))
	}
	if v.workflow.CanUpdate() {
		aa.Add(ui.KeyE, ui.NewKeyAction("Edit", v.editCmd, true))
		aa.Add(ui.KeyShiftE, ui.NewKeyAction("Raw Edit", v.rawEditCmd, true))
	}
	if v.workflow.CanDelete() {
		aa.Add(tcell.KeyCtrlD, ui.NewDangerousKeyAction("Delete", v.deleteCmd, true))
	}

	if v.res.Name() == dao.Users {
		registerUserActions(v.rows, v.app, v.workflow, v.Marked)
	}
	v.rows.Bind(v.res.Name(), aa, v.runRowAction)
}

func (v *ResourceView) describeCmd(*tcell.EventKey) *tcell.EventKey {
	if row, _, ok := v.SelectedRow(); ok {
		v.describe(row)
	}
	return nil
}

func (v *ResourceView) describe(row grid.Row) {
	id, err := v.workflow.ID(row)
	if err != nil {
		v.app.flash.Err(err)
		return
	}
	if err := v.app.Push(NewDescribe(v.app, v.res, id, row)); err != nil {
		v.app.flash.Err(err)
	}
}

func (v *ResourceView) createCmd(*tcell.EventKey) *tcell.EventKey {
	v.withOptions(func() {
		v.openForm(v.workflow.OpenCreate())
	})
	return nil
}

func (v *ResourceView) editCmd(*tcell.EventKey) *tcell.EventKey {
	row, _, ok := v.SelectedRow()
	if !ok {
		v.app.flash.Warn(crud.ErrNoSelection.Error())
		return nil
	}
	v.withOptions(func() {
		v.openForm(v.workflow.OpenEdit(row))
	})
	return nil
}

// withOptions refreshes the remote select choices before open runs on the
// UI goroutine. Lists that failed keep their previous choices.
func (v *ResourceView) withOptions(open func()) {
	if !v.res.HasOptionSources() {
		open()
		return
	}
	go func() {
		oo, failed, err := v.res.LoadOptions(v.app.Context(), v.app.deps.Client)
		if err != nil {
			v.app.reportErr(err)
			return
		}
		v.workflow.SetOptions(oo)
		v.app.QueueUpdateDraw(func() {
			if failed > 0 {
				v.app.flash.Warn(fmt.Sprintf("%d option list(s) failed to load", failed))
			}
			open()
		})
	}()
}

func (v *ResourceView) openForm(values crud.Values) {
	noun := v.res.Spec().Noun
	if noun == "" {
		noun = v.res.Title()
	}
	f := NewFormView(v.app, noun, v.workflow, values)
	if err := v.app.Push(f); err != nil {
		v.workflow.Cancel()
		v.app.flash.Err(err)
	}
}

func (v *ResourceView) rawEditCmd(*tcell.EventKey) *tcell.EventKey {
	row, _, ok := v.SelectedRow()
	if !ok {
		v.app.flash.Warn(crud.ErrNoSelection.Error())
		return nil
	}
	v.app.edit(v.res, v.workflow, row)
	return nil
}

func (v *ResourceView) deleteCmd(*tcell.EventKey) *tcell.EventKey {
	row, _, ok := v.SelectedRow()
	if !ok {
		v.app.flash.Warn(crud.ErrNoSelection.Error())
		return nil
	}
	msg := v.workflow.RequestDelete(row)
	v.app.confirmOr(msg, true, func() {
		go func() {
			if err := v.workflow.ConfirmDelete(v.app.Context()); err != nil {
				v.app.reportErr(err)
			}
		}()
	}, v.workflow.Cancel)

	return nil
}

func (v *ResourceView) filterCmd(*tcell.EventKey) *tcell.EventKey {
	keys := v.filterable()
	q := v.Model().Query()
	field := keys[0]
	for _, k := range keys {
		if q.Filters[k] != "" {
			field = k
			break
		}
	}

	title := fmt.Sprintf("Filter (%s)", strings.Join(keys, ", "))
	v.app.prompt(title, []ui.PromptField{
		{Label: "Column", Value: field},
		{Label: "Value", Value: q.Filters[field]},
	}, func(vv []string) {
		key := strings.TrimSpace(vv[0])
		if !contains(keys, key) {
			v.app.flash.Errf("column %q is not filterable", key)
			return
		}
		v.Filter(key, strings.TrimSpace(vv[1]))
	})

	return nil
}

func (v *ResourceView) filterable() []string {
	var kk []string
	for _, c := range v.Model().Options().Columns {
		if c.Filterable {
			kk = append(kk, c.Key)
		}
	}

	return kk
}

// runRowAction runs a on the selected row, confirming first when asked to.
func (v *ResourceView) runRowAction(a ui.RowAction) {
	row, _, _ := v.SelectedRow()
	exec := func() { v.runHandler(a, row) }
	if a.Confirm == nil {
		exec()
		return
	}
	msg := a.Confirm(row)
	if msg == "" {
		v.app.flash.Warn(crud.ErrNoSelection.Error())
		return
	}
	v.app.confirm(msg, a.Dangerous, exec)
}

// buttonFn binds button columns to the row action sharing their label, or
// to describe.
func (v *ResourceView) buttonFn(spec data.ColumnSpec) func(any, grid.Row, int) {
	return func(_ any, row grid.Row, _ int) {
		for _, a := range v.rows.For(v.res.Name()) {
			if strings.EqualFold(a.Description, spec.Label) {
				if a.Confirm != nil {
					v.app.confirm(a.Confirm(row), a.Dangerous, func() { v.runHandler(a, row) })
					return
				}
				v.runHandler(a, row)
				return
			}
		}
		v.describe(row)
	}
}

func (v *ResourceView) runHandler(a ui.RowAction, row grid.Row) {
	go func() {
		if err := a.Handler(v.app.Context(), row); err != nil {
			v.app.reportErr(err)
		}
	}()
}

// statsBar counts the loaded rows per stat spec.
type statsBar struct {
	*tview.TextView

	specs []data.StatSpec
	queue ui.QueueFn
}

func newStatsBar(specs []data.StatSpec, queue ui.QueueFn) *statsBar {
	s := statsBar{
		TextView: tview.NewTextView(),
		specs:    specs,
		queue:    queue,
	}
	s.SetDynamicColors(true)
	s.SetBackgroundColor(tcell.ColorDefault)
	s.SetBorderPadding(0, 0, 1, 1)

	return &s
}

func (*statsBar) GridLoading() {}

func (s *statsBar) GridFailed(error) {
	s.queue(func() { s.SetText("") })
}

func (s *statsBar) GridChanged(p grid.Page) {
	text := statsText(render.Stats(s.specs, p.Rows))
	s.queue(func() { s.SetText(text) })
}

func statsText(ss []render.Stat) string {
	parts := make([]string, 0, len(ss))
	for _, st := range ss {
		color := "white"
		if c, ok := grid.ClassColor(st.Class); ok {
			color = c.String()
		}
		parts = append(parts, fmt.Sprintf("[%s::b]%s[-::-] %d", color, tview.Escape(st.Label), st.Count))
	}

	return strings.Join(parts, "  ")
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}

	return false
}
