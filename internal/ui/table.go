// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package ui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/fvbommel/sortorder"
	gcell "github.com/gdamore/tcell/v2"
	"github.com/portalctl/portalctl/internal/grid"
)

const (
	// DefaultSearchDebounce delays a search until typing pauses.
	DefaultSearchDebounce = 300 * time.Millisecond

	markGlyph  = "✓ "
	windowKeys = 5
	errorFmt   = "failed to load: %v"
)

// DataGrid is the tabular view of a grid.Grid: a table and a pagination
// footer.
type DataGrid struct {
	*tview.Flex

	table    *tview.Table
	footer   *tview.TextView
	model    *grid.Grid
	queue    QueueFn
	actions  *KeyActions
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	timer    *time.Timer
	marks    map[string]grid.Row
	failure  error
	sortIdx  int
	enterFn  func(row grid.Row, index int)
	mx       sync.RWMutex
}

// NewDataGrid returns a view over model. A nil queue renders inline.
func NewDataGrid(model *grid.Grid, queue QueueFn, debounce time.Duration) *DataGrid {
	if queue == nil {
		queue = func(fn func()) { fn() }
	}
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	d := DataGrid{
		Flex:     tview.NewFlex().SetDirection(tview.FlexRow),
		table:    tview.NewTable(),
		footer:   tview.NewTextView(),
		model:    model,
		queue:    queue,
		actions:  NewKeyActions(),
		debounce: debounce,
		marks:    make(map[string]grid.Row),
		sortIdx:  -1,
		ctx:      context.Background(),
	}

	d.table.SetBorder(true)
	d.table.SetBorderAttributes(tcell.AttrBold)
	d.table.SetBorderPadding(0, 0, 1, 1)
	d.table.SetBackgroundColor(tcell.ColorDefault)
	d.table.SetBorderColor(tcell.ColorWhite)
	d.table.SetFixed(1, 0)
	d.table.SetSelectable(true, false)
	d.table.SetInputCapture(d.keyboard)
	d.table.SetTitle(fmt.Sprintf(" %s ", model.Options().Name))

	d.footer.SetDynamicColors(true)
	d.footer.SetBackgroundColor(tcell.ColorDefault)
	d.footer.SetBorderPadding(0, 0, 1, 1)

	d.AddItem(d.table, 0, 1, true)
	d.AddItem(d.footer, 1, 0, false)

	d.bindKeys()
	model.AddListener(&d)
	d.render()

	return &d
}

// Model returns the underlying grid.
func (d *DataGrid) Model() *grid.Grid {
	return d.model
}

// Table returns the tview table.
func (d *DataGrid) Table() *tview.Table {
	return d.table
}

// Footer returns the status line under the table.
func (d *DataGrid) Footer() *tview.TextView {
	return d.footer
}

// Actions returns the key bindings.
func (d *DataGrid) Actions() *KeyActions {
	return d.actions
}

// Hints returns the menu hints.
func (d *DataGrid) Hints() MenuHints {
	return d.actions.Hints()
}

// SetEnterFn overrides the Enter key. By default Enter clicks the row.
func (d *DataGrid) SetEnterFn(fn func(row grid.Row, index int)) {
	d.enterFn = fn
}

// Focus delegates to the table.
func (d *DataGrid) Focus(delegate func(p tview.Primitive)) {
	delegate(d.table)
}

// Start issues the first fetch.
func (d *DataGrid) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.mx.Lock()
	d.ctx, d.cancel = ctx, cancel
	d.mx.Unlock()

	go d.model.Start(ctx)
}

// Resume rebinds the grid to ctx and refetches only when token moved past
// the last one applied.
func (d *DataGrid) Resume(ctx context.Context, token uint64) {
	ctx, cancel := context.WithCancel(ctx)
	d.mx.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx, d.cancel = ctx, cancel
	d.mx.Unlock()

	go d.model.SetRefreshToken(ctx, token)
}

// Stop cancels pending fetches and searches.
func (d *DataGrid) Stop() {
	d.mx.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mx.Unlock()

	d.model.Stop()
}

// Refresh refetches the current page.
func (d *DataGrid) Refresh() {
	go d.model.Refresh(d.context())
}

// Search schedules a search once typing pauses.
func (d *DataGrid) Search(term string) {
	d.mx.Lock()
	defer d.mx.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	ctx := d.ctx
	d.timer = time.AfterFunc(d.debounce, func() {
		d.model.Search(ctx, term)
	})
}

// SearchNow applies term immediately.
func (d *DataGrid) SearchNow(term string) {
	d.mx.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mx.Unlock()

	go d.model.Search(d.context(), term)
}

// Filter sets a column filter. An empty value clears it.
func (d *DataGrid) Filter(key, value string) {
	go d.model.Filter(d.context(), key, value)
}

// SelectedRow returns the row under the cursor.
func (d *DataGrid) SelectedRow() (grid.Row, int, bool) {
	r, _ := d.table.GetSelection()
	idx := r - 1
	rows := d.model.Page().Rows
	if idx < 0 || idx >= len(rows) || d.model.Placeholder() != "" {
		return nil, -1, false
	}

	return rows[idx], idx, true
}

// ToggleMark marks or unmarks the selected row.
func (d *DataGrid) ToggleMark() {
	row, idx, ok := d.SelectedRow()
	if !ok {
		return
	}
	key := d.model.RowKey(row, idx)

	d.mx.Lock()
	if _, marked := d.marks[key]; marked {
		delete(d.marks, key)
	} else {
		d.marks[key] = row
	}
	d.mx.Unlock()

	d.render()
}

// Marked returns the marked row keys, in page order first.
func (d *DataGrid) Marked() []string {
	d.mx.RLock()
	defer d.mx.RUnlock()

	kk := make([]string, 0, len(d.marks))
	seen := make(map[string]struct{}, len(d.marks))
	for i, row := range d.model.Page().Rows {
		k := d.model.RowKey(row, i)
		if _, ok := d.marks[k]; ok {
			kk = append(kk, k)
			seen[k] = struct{}{}
		}
	}
	for k := range d.marks {
		if _, ok := seen[k]; !ok {
			kk = append(kk, k)
		}
	}

	return kk
}

// ClearMarks unmarks every row.
func (d *DataGrid) ClearMarks() {
	d.mx.Lock()
	d.marks = make(map[string]grid.Row)
	d.mx.Unlock()
	d.render()
}

// GridLoading implements grid.Listener.
func (d *DataGrid) GridLoading() {
	d.queue(d.render)
}

// GridChanged implements grid.Listener.
func (d *DataGrid) GridChanged(grid.Page) {
	d.mx.Lock()
	d.failure = nil
	d.mx.Unlock()
	d.queue(d.render)
}

// GridFailed implements grid.Listener.
func (d *DataGrid) GridFailed(err error) {
	d.mx.Lock()
	d.failure = err
	d.mx.Unlock()
	d.queue(d.render)
}

func (d *DataGrid) context() context.Context {
	d.mx.RLock()
	defer d.mx.RUnlock()
	return d.ctx
}

func (d *DataGrid) bindKeys() {
	d.actions.Bulk(KeyMap{
		tcell.KeyEnter: NewKeyAction("Open", d.enterCmd, true),
		KeySpace:       NewKeyAction("Mark", d.markCmd, true),
		KeyLeftB:       NewKeyAction("Prev Page", d.prevCmd, true),
		KeyRghtB:       NewKeyAction("Next Page", d.nextCmd, true),
		KeyS:           NewKeyAction("Sort", d.orderCmd, true),
		KeyShiftS:      NewKeyAction("Sort Next", d.sortCmd, true),
		KeyZ:           NewKeyAction("Page Size", d.sizeCmd, true),
		tcell.KeyCtrlR: NewKeyAction("Refresh", d.refreshCmd, true),
	})
	for n := 1; n <= windowKeys; n++ {
		slot := n - 1
		d.actions.Add(tcell.Key('0'+n), NewKeyAction("Page Slot "+strconv.Itoa(n), func(*tcell.EventKey) *tcell.EventKey {
			d.gotoSlot(slot)
			return nil
		}, false))
	}
}

// gotoSlot jumps to the page shown at position slot of the window.
func (d *DataGrid) gotoSlot(slot int) {
	w := d.model.PageWindow()
	if slot < 0 || slot >= len(w) {
		return
	}
	go d.model.GotoPage(d.context(), w[slot])
}

func (d *DataGrid) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	row, col := d.table.GetSelection()
	count := d.table.GetRowCount()

	switch AsKey(evt) {
	case KeyJ, tcell.KeyDown:
		if row < count-1 {
			d.table.Select(row+1, col)
		}
		return nil
	case KeyK, tcell.KeyUp:
		if row > 1 {
			d.table.Select(row-1, col)
		}
		return nil
	case KeyG, tcell.KeyHome:
		if count > 1 {
			d.table.Select(1, col)
		}
		return nil
	case KeyShiftG, tcell.KeyEnd:
		if count > 1 {
			d.table.Select(count-1, col)
		}
		return nil
	}

	if a, ok := d.actions.Get(AsKey(evt)); ok && a.Action != nil {
		return a.Action(evt)
	}

	return evt
}

func (d *DataGrid) enterCmd(*tcell.EventKey) *tcell.EventKey {
	row, idx, ok := d.SelectedRow()
	if !ok {
		return nil
	}
	if d.enterFn != nil {
		d.enterFn(row, idx)
		return nil
	}
	d.model.Click(idx)

	return nil
}

func (d *DataGrid) markCmd(*tcell.EventKey) *tcell.EventKey {
	d.ToggleMark()
	return nil
}

func (d *DataGrid) prevCmd(*tcell.EventKey) *tcell.EventKey {
	go d.model.PrevPage(d.context())
	return nil
}

func (d *DataGrid) nextCmd(*tcell.EventKey) *tcell.EventKey {
	go d.model.NextPage(d.context())
	return nil
}

func (d *DataGrid) sizeCmd(*tcell.EventKey) *tcell.EventKey {
	go d.model.CyclePageSize(d.context())
	return nil
}

func (d *DataGrid) refreshCmd(*tcell.EventKey) *tcell.EventKey {
	d.Refresh()
	return nil
}

// sortCmd moves the sort to the next sortable column.
func (d *DataGrid) sortCmd(*tcell.EventKey) *tcell.EventKey {
	keys := d.sortable()
	if len(keys) == 0 {
		return nil
	}
	d.mx.Lock()
	d.sortIdx = (d.sortIdx + 1) % len(keys)
	key := keys[d.sortIdx]
	d.mx.Unlock()

	go d.model.Sort(d.context(), key)
	return nil
}

// orderCmd cycles the direction of the current sort column.
func (d *DataGrid) orderCmd(*tcell.EventKey) *tcell.EventKey {
	key := d.model.Query().SortField
	if key == "" {
		return d.sortCmd(nil)
	}

	go d.model.Sort(d.context(), key)
	return nil
}

func (d *DataGrid) sortable() []string {
	var kk []string
	for _, c := range d.model.Options().Columns {
		if c.Sortable {
			kk = append(kk, c.Key)
		}
	}

	return kk
}

func (d *DataGrid) render() {
	d.renderTable()
	d.renderFooter()
}

func (d *DataGrid) renderTable() {
	sel, _ := d.table.GetSelection()
	d.table.Clear()

	for col, h := range d.model.Headers() {
		cell := tview.NewTableCell(h.Label())
		cell.SetTextColor(tcell.ColorYellow)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(align(h.Align))
		cell.SetExpansion(1)
		cell.SetSelectable(false)
		if h.Sort != grid.SortNone {
			cell.SetAttributes(tcell.AttrBold)
		}
		d.table.SetCell(0, col, cell)
	}

	d.mx.RLock()
	failure := d.failure
	d.mx.RUnlock()
	if msg := d.model.Placeholder(); msg != "" || failure != nil {
		color := tcell.ColorGray
		if failure != nil && msg != grid.LoadingText {
			msg, color = fmt.Sprintf(errorFmt, failure), tcell.ColorRed
		}
		d.renderPlaceholder(msg, color)
		return
	}

	rows := d.model.Page().Rows
	for i, row := range rows {
		d.renderRow(i, row)
	}
	if sel < 1 {
		sel = 1
	}
	if sel > len(rows) {
		sel = len(rows)
	}
	d.table.Select(sel, 0)
}

// renderPlaceholder fills the first body row, the message centered in the
// middle column.
func (d *DataGrid) renderPlaceholder(msg string, color tcell.Color) {
	n := len(d.model.Headers())
	if n == 0 {
		n = 1
	}
	mid := (n - 1) / 2
	for col := range n {
		text := ""
		if col == mid {
			text = msg
		}
		cell := tview.NewTableCell(text)
		cell.SetTextColor(color)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(tview.AlignCenter)
		cell.SetExpansion(1)
		cell.SetSelectable(false)
		d.table.SetCell(1, col, cell)
	}
}

func (d *DataGrid) renderRow(i int, row grid.Row) {
	rowColor, hasRowColor := grid.RowColor(d.model.RowClass(row, i))
	d.mx.RLock()
	_, marked := d.marks[d.model.RowKey(row, i)]
	d.mx.RUnlock()

	for col, c := range d.model.Cells(row, i) {
		text := c.Text
		if col == 0 && marked {
			text = markGlyph + text
		}
		color := grid.CellColor(c)
		if hasRowColor && c.Kind == grid.CellText && c.Class == "" {
			color = rowColor
		}

		cell := tview.NewTableCell(tview.Escape(text))
		cell.SetTextColor(asColor(color))
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetAlign(align(c.Align))
		cell.SetExpansion(1)
		if marked {
			cell.SetAttributes(tcell.AttrReverse)
		}
		if c.Kind == grid.CellButton {
			cell.SetAttributes(tcell.AttrBold)
		}
		d.table.SetCell(i+1, col, cell)
	}
}

func (d *DataGrid) renderFooter() {
	d.footer.Clear()
	q := d.model.Query()

	var b strings.Builder
	b.WriteString("[gray::]")
	b.WriteString(d.model.Info())
	if d.model.Options().ShowPagination {
		b.WriteString("  ")
		b.WriteString(PageBar(q.PageNumber, d.model.PageWindow(), d.model.HasPrev(), d.model.HasNext()))
		fmt.Fprintf(&b, "  [gray::]rows/page: [white::b]%d[-::-]", q.PageSize)
	}
	if q.Search != "" {
		fmt.Fprintf(&b, "  [gray::]search: [white::]%s", tview.Escape(q.Search))
	}
	kk := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		kk = append(kk, k)
	}
	sort.Sort(sortorder.Natural(kk))
	for _, k := range kk {
		fmt.Fprintf(&b, "  [gray::]%s=[white::]%s", tview.Escape(k), tview.Escape(q.Filters[k]))
	}
	if n := len(d.Marked()); n > 0 {
		fmt.Fprintf(&b, "  [orange::b]%d marked", n)
	}

	d.footer.SetText(b.String())
}

// PageBar renders the page buttons, the current page bracketed.
func PageBar(current int, window []int, hasPrev, hasNext bool) string {
	var b strings.Builder
	b.WriteString(arrow("‹", hasPrev))
	for _, n := range window {
		if n == current {
			fmt.Fprintf(&b, " [white::b]%s[-::-]", tview.Escape(fmt.Sprintf("[%d]", n)))
			continue
		}
		fmt.Fprintf(&b, " [gray::]%d", n)
	}
	b.WriteString(" ")
	b.WriteString(arrow("›", hasNext))

	return b.String()
}

func arrow(glyph string, enabled bool) string {
	if enabled {
		return "[white::b]" + glyph + "[-::-]"
	}
	return "[darkgray::d]" + glyph + "[-::-]"
}

func align(a grid.Align) int {
	switch a {
	case grid.AlignRight:
		return tview.AlignRight
	case grid.AlignCenter:
		return tview.AlignCenter
	default:
		return tview.AlignLeft
	}
}

// asColor maps a model color onto the terminal palette.
func asColor(c gcell.Color) tcell.Color {
	if h := c.Hex(); h >= 0 {
		return tcell.NewHexColor(h)
	}
	return tcell.ColorDefault
}
