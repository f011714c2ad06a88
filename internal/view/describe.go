// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/ui"
	"gopkg.in/yaml.v3"
)

// Describe output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Describe shows one record in full.
type Describe struct {
	*tview.TextView

	app     *App
	res     *dao.Resource
	id      string
	record  grid.Row
	format  string
	wrap    bool
	actions *ui.KeyActions
	mx      sync.RWMutex
}

// NewDescribe returns the detail page of record id. row is shown until the
// record is fetched.
func NewDescribe(app *App, res *dao.Resource, id string, row grid.Row) *Describe {
	d := Describe{
		TextView: tview.NewTextView(),
		app:      app,
		res:      res,
		id:       id,
		record:   row,
		format:   FormatJSON,
		actions:  ui.NewKeyActions(),
	}

	d.SetDynamicColors(true)
	d.SetWrap(false)
	d.SetScrollable(true)
	d.SetBorder(true)
	d.SetBorderPadding(0, 0, 1, 1)
	d.SetBorderColor(tcell.ColorAqua)
	d.SetBackgroundColor(tcell.ColorDefault)

	return &d
}

// Name returns the page name.
func (*Describe) Name() string {
	return "describe"
}

// Init binds the page keys.
func (d *Describe) Init(context.Context) error {
	d.actions.Bulk(ui.KeyMap{
		ui.KeyY:        ui.NewKeyAction("YAML", d.formatCmd(FormatYAML), true),
		ui.KeyJ:        ui.NewKeyAction("JSON", d.formatCmd(FormatJSON), true),
		ui.KeyW:        ui.NewKeyAction("Wrap", d.wrapCmd, true),
		tcell.KeyCtrlR: ui.NewKeyAction("Refresh", d.refreshCmd, true),
	})
	if !d.res.ReadOnly() && !d.app.ReadOnly() && d.res.Endpoints().Update != nil {
		d.actions.Add(ui.KeyShiftE, ui.NewKeyAction("Raw Edit", d.editCmd, true))
	}
	d.SetInputCapture(func(evt *tcell.EventKey) *tcell.EventKey {
		if a, ok := d.actions.Get(ui.AsKey(evt)); ok && a.Action != nil {
			return a.Action(evt)
		}
		return evt
	})
	d.render()

	return nil
}

// Start fetches the record.
func (d *Describe) Start() {
	go d.fetch(d.app.Context())
}

// Stop is a no-op.
func (*Describe) Stop() {}

// Hints returns the page keys.
func (d *Describe) Hints() ui.MenuHints {
	return d.actions.Hints()
}

// Record returns the shown record.
func (d *Describe) Record() grid.Row {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return d.record
}

func (d *Describe) fetch(ctx context.Context) {
	rec, err := d.res.Fetch(ctx, d.app.deps.Client, d.app.cache, d.id, client.WithToast(true))
	if err != nil {
		d.app.reportErr(err)
		return
	}
	d.mx.Lock()
	d.record = rec
	d.mx.Unlock()
	d.app.QueueUpdateDraw(d.render)
}

func (d *Describe) render() {
	d.mx.RLock()
	rec, format := d.record, d.format
	d.mx.RUnlock()

	text, err := RenderRecord(rec, format)
	if err != nil {
		text = fmt.Sprintf("[red::]%s[-::]", tview.Escape(err.Error()))
	}
	d.SetText(text)
	d.SetTitle(fmt.Sprintf(" %s/%s [%s] ", d.res.Name(), d.id, strings.ToUpper(format)))
	d.ScrollToBeginning()
}

func (d *Describe) formatCmd(format string) ui.ActionHandler {
	return func(*tcell.EventKey) *tcell.EventKey {
		d.mx.Lock()
		d.format = format
		d.mx.Unlock()
		d.render()
		return nil
	}
}

func (d *Describe) wrapCmd(*tcell.EventKey) *tcell.EventKey {
	d.wrap = !d.wrap
	d.SetWrap(d.wrap)
	d.SetWordWrap(d.wrap)
	return nil
}

func (d *Describe) refreshCmd(*tcell.EventKey) *tcell.EventKey {
	d.res.Forget(d.app.cache)
	go d.fetch(d.app.Context())
	return nil
}

func (d *Describe) editCmd(*tcell.EventKey) *tcell.EventKey {
	d.app.edit(d.res, nil, d.Record())
	return nil
}

// RenderRecord formats rec for display with color tags.
func RenderRecord(rec grid.Row, format string) (string, error) {
	if rec == nil {
		return "[gray::]" + grid.EmptyText + "[-::]", nil
	}
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(map[string]any(rec))
		if err != nil {
			return "", fmt.Errorf("failed to render yaml: %w", err)
		}
		return highlightYAML(string(out)), nil
	default:
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render json: %w", err)
		}
		return tview.Escape(string(out)), nil
	}
}

func highlightYAML(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			b.WriteString(tview.Escape(line) + "\n")
			continue
		}
		key, value := line[:idx+1], strings.TrimSpace(line[idx+1:])
		trimmed := strings.TrimLeft(key, " -")
		indent := key[:len(key)-len(trimmed)]
		if value == "" {
			fmt.Fprintf(&b, "%s[aqua::]%s[-::]\n", indent, tview.Escape(trimmed))
			continue
		}
		fmt.Fprintf(&b, "%s[aqua::]%s[-::] %s\n", indent, tview.Escape(trimmed), colorizeValue(value))
	}

	return b.String()
}

func colorizeValue(value string) string {
	v := tview.Escape(value)
	trimmed := strings.ToLower(strings.Trim(value, `"'`))
	switch trimmed {
	case "true", "active":
		return "[green::]" + v + "[-::]"
	case "false", "inactive", "suspended":
		return "[red::]" + v + "[-::]"
	case "null", "~":
		return "[gray::]" + v + "[-::]"
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return "[fuchsia::]" + v + "[-::]"
	}

	return v
}
