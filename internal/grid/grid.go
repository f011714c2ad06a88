// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package grid is the headless model behind every remote-backed table. It
// owns the query state, fetches pages through the API client and turns rows
// into renderer independent cells.
package grid

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/logger"
)

// Defaults applied when Options leave a field blank.
const (
	DefaultPageSize     = 10
	DefaultRowKey       = "id"
	DefaultActionsTitle = "Actions"
)

// DefaultPageSizes are the page sizes offered to the user.
var DefaultPageSizes = []int{10, 25, 50, 100}

// Placeholders shown in place of rows.
const (
	LoadingText = "Loading..."
	EmptyText   = "No data available"
)

// Base row classes.
const (
	RowClass          = "datagrid-row"
	ClickableRowClass = "datagrid-row-clickable"
)

// Getter fetches list pages.
type Getter interface {
	Get(ctx context.Context, path string, opts ...client.Option) (*client.Response, error)
}

// Source locates the list endpoint, either as a literal path or a resolver
// computing it from the query parameters.
type Source struct {
	path    string
	resolve func(url.Values) string
}

// Path returns a source appending the query to p.
func Path(p string) Source {
	return Source{path: p}
}

// Resolver returns a source whose URL is computed by fn.
func Resolver(fn func(url.Values) string) Source {
	return Source{resolve: fn}
}

// IsZero reports whether no endpoint was configured.
func (s Source) IsZero() bool {
	return s.path == "" && s.resolve == nil
}

// URL returns the request URL for q.
func (s Source) URL(q QueryState) string {
	if s.resolve != nil {
		return s.resolve(q.Values())
	}
	sep := "?"
	if strings.Contains(s.path, "?") {
		sep = "&"
	}

	return s.path + sep + q.Encode()
}

// Options configure a Grid.
type Options struct {
	Name           string
	Columns        []Column
	Source         Source
	ActionColumn   *ActionColumn
	RowKey         string
	PageSize       int
	PageSizes      []int
	ShowPagination bool
	ShowSearch     bool
	ShowFilters    bool
	OnRowClick     func(row Row, index int)
	RowClassFn     func(row Row, index int) string
}

// Listener observes grid state changes.
type Listener interface {
	GridLoading()
	GridChanged(Page)
	GridFailed(error)
}

// Grid is a remote-backed, paginated, sortable and filterable table model.
type Grid struct {
	opts      Options
	api       Getter
	log       *slog.Logger
	query     QueryState
	page      Page
	loading   bool
	seq       uint64
	cancelFn  context.CancelFunc
	token     uint64
	listeners []Listener
	mx        sync.RWMutex
}

// New returns a grid fetching through api.
func New(api Getter, opts Options, log *slog.Logger) *Grid {
	if opts.RowKey == "" {
		opts.RowKey = DefaultRowKey
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if len(opts.PageSizes) == 0 {
		opts.PageSizes = DefaultPageSizes
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Grid{
		opts:  opts,
		api:   api,
		log:   log,
		query: NewQuery(opts.PageSize),
		page:  Page{Rows: []Row{}},
	}
}

// Options returns the grid configuration.
func (g *Grid) Options() Options {
	return g.opts
}

// AddListener registers a grid listener.
func (g *Grid) AddListener(l Listener) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.listeners = append(g.listeners, l)
}

// RemoveListener unregisters a grid listener.
func (g *Grid) RemoveListener(l Listener) {
	g.mx.Lock()
	defer g.mx.Unlock()
	for i, lis := range g.listeners {
		if lis == l {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// Start issues the initial fetch.
func (g *Grid) Start(ctx context.Context) {
	g.fetch(ctx)
}

// Stop cancels any fetch in flight and drops its result.
func (g *Grid) Stop() {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.seq++
	g.loading = false
	if g.cancelFn != nil {
		g.cancelFn()
		g.cancelFn = nil
	}
}

// Refresh refetches the current query.
func (g *Grid) Refresh(ctx context.Context) {
	g.fetch(ctx)
}

// SetRefreshToken refetches the current query when n differs from the last
// token seen. The page is kept.
func (g *Grid) SetRefreshToken(ctx context.Context, n uint64) {
	g.mx.Lock()
	if g.token == n {
		g.mx.Unlock()
		return
	}
	g.token = n
	g.mx.Unlock()

	g.fetch(ctx)
}

// Sort cycles the sort state of a sortable column.
func (g *Grid) Sort(ctx context.Context, key string) {
	col, ok := g.column(key)
	if !ok || !col.Sortable {
		return
	}
	g.mutate(ctx, func(q *QueryState) bool {
		q.CycleSort(key)
		return true
	})
}

// Search sets the search term.
func (g *Grid) Search(ctx context.Context, term string) {
	g.mutate(ctx, func(q *QueryState) bool { return q.SetSearch(term) })
}

// Filter sets the filter of a filterable column.
func (g *Grid) Filter(ctx context.Context, key, value string) {
	col, ok := g.column(key)
	if !ok || !col.Filterable {
		return
	}
	g.mutate(ctx, func(q *QueryState) bool { return q.SetFilter(key, value) })
}

// SetPageSize changes the page size.
func (g *Grid) SetPageSize(ctx context.Context, n int) {
	g.mutate(ctx, func(q *QueryState) bool { return q.SetPageSize(n) })
}

// GotoPage moves to page n, clamped to the known pages.
func (g *Grid) GotoPage(ctx context.Context, n int) {
	g.mutate(ctx, func(q *QueryState) bool {
		last := max(1, TotalPages(g.page.Total, q.PageSize))
		return q.SetPage(min(max(n, 1), last))
	})
}

// NextPage moves forward one page.
func (g *Grid) NextPage(ctx context.Context) {
	if !g.HasNext() {
		return
	}
	g.GotoPage(ctx, g.Query().PageNumber+1)
}

// PrevPage moves back one page.
func (g *Grid) PrevPage(ctx context.Context) {
	if !g.HasPrev() {
		return
	}
	g.GotoPage(ctx, g.Query().PageNumber-1)
}

// CyclePageSize moves to the next offered page size.
func (g *Grid) CyclePageSize(ctx context.Context) {
	cur := g.Query().PageSize
	sizes := g.opts.PageSizes
	next := sizes[0]
	for i, s := range sizes {
		if s == cur {
			next = sizes[(i+1)%len(sizes)]
			break
		}
	}
	g.SetPageSize(ctx, next)
}

// Query returns a copy of the query state.
func (g *Grid) Query() QueryState {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.query.Clone()
}

// Page returns the last applied page.
func (g *Grid) Page() Page {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.page
}

// Loading reports whether a fetch is in flight.
func (g *Grid) Loading() bool {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.loading
}

// Headers returns the column headers, the action column first.
func (g *Grid) Headers() []Header {
	q := g.Query()
	hh := make([]Header, 0, g.Span())
	if ac := g.opts.ActionColumn; ac != nil {
		title := ac.Title
		if title == "" {
			title = DefaultActionsTitle
		}
		hh = append(hh, Header{Title: title, Action: true})
	}
	for _, c := range g.opts.Columns {
		hh = append(hh, Header{
			Title:    c.Title,
			Key:      c.Key,
			Align:    c.Align,
			Sortable: c.Sortable,
			Sort:     q.Sorted(c.Key),
		})
	}

	return hh
}

// Cells renders row at index, the action cell first.
func (g *Grid) Cells(row Row, index int) []Cell {
	cc := make([]Cell, 0, g.Span())
	if ac := g.opts.ActionColumn; ac != nil {
		var text string
		if ac.Render != nil {
			text = ac.Render(row, index)
		}
		cc = append(cc, Cell{Text: text})
	}
	for _, c := range g.opts.Columns {
		cc = append(cc, c.Cell(row, index))
	}

	return cc
}

// RowClass returns the class list of row at index.
func (g *Grid) RowClass(row Row, index int) string {
	classes := []string{RowClass}
	if g.opts.RowClassFn != nil {
		if c := g.opts.RowClassFn(row, index); c != "" {
			classes = append(classes, c)
		}
	}
	if g.opts.OnRowClick != nil {
		classes = append(classes, ClickableRowClass)
	}

	return strings.Join(classes, " ")
}

// RowKey returns the identity of row, falling back to its index.
func (g *Grid) RowKey(row Row, index int) string {
	if k := Stringify(row[g.opts.RowKey]); k != "" {
		return k
	}
	return Stringify(index)
}

// Click forwards a row activation to the row click handler.
func (g *Grid) Click(index int) bool {
	if g.opts.OnRowClick == nil {
		return false
	}
	p := g.Page()
	if index < 0 || index >= len(p.Rows) {
		return false
	}
	g.opts.OnRowClick(p.Rows[index], index)

	return true
}

// Span returns the number of rendered columns.
func (g *Grid) Span() int {
	n := len(g.opts.Columns)
	if g.opts.ActionColumn != nil {
		n++
	}

	return n
}

// Placeholder returns the text replacing the rows, empty when rows show.
func (g *Grid) Placeholder() string {
	g.mx.RLock()
	defer g.mx.RUnlock()
	switch {
	case g.loading:
		return LoadingText
	case len(g.page.Rows) == 0:
		return EmptyText
	default:
		return ""
	}
}

// TotalPages returns the page count of the applied page.
func (g *Grid) TotalPages() int {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return TotalPages(g.page.Total, g.query.PageSize)
}

// PageWindow returns the numbered page buttons.
func (g *Grid) PageWindow() []int {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return Window(g.query.PageNumber, TotalPages(g.page.Total, g.query.PageSize))
}

// HasPrev reports whether a previous page exists.
func (g *Grid) HasPrev() bool {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.query.PageNumber > 1
}

// HasNext reports whether a next page exists.
func (g *Grid) HasNext() bool {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.query.PageNumber < TotalPages(g.page.Total, g.query.PageSize)
}

// Info returns the range summary.
func (g *Grid) Info() string {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return Info(g.query.PageNumber, g.query.PageSize, g.page.Total)
}

func (g *Grid) column(key string) (Column, bool) {
	for _, c := range g.opts.Columns {
		if c.Key == key {
			return c, true
		}
	}

	return Column{}, false
}

// mutate applies fn atomically and refetches when it changed the query.
func (g *Grid) mutate(ctx context.Context, fn func(*QueryState) bool) {
	g.mx.Lock()
	changed := fn(&g.query)
	g.mx.Unlock()

	if changed {
		g.fetch(ctx)
	}
}

// fetch loads the current query. Only the latest issued fetch is applied;
// starting a new one cancels the previous.
func (g *Grid) fetch(ctx context.Context) {
	if g.opts.Source.IsZero() {
		return
	}

	g.mx.Lock()
	if g.cancelFn != nil {
		g.cancelFn()
	}
	g.seq++
	seq := g.seq
	fctx, cancel := context.WithCancel(ctx)
	g.cancelFn = cancel
	g.loading = true
	q := g.query.Clone()
	g.mx.Unlock()
	defer cancel()

	g.fireLoading()

	fctx = logger.WithResource(fctx, g.opts.Name)
	path := g.opts.Source.URL(q)
	resp, err := g.api.Get(fctx, path, client.WithLoading(false), client.WithToast(false))

	g.mx.Lock()
	if seq != g.seq {
		g.mx.Unlock()
		g.log.DebugContext(fctx, "discarding stale page", slog.Uint64("seq", seq))
		return
	}
	g.loading = false
	g.cancelFn = nil
	if err != nil {
		g.page = Page{Rows: []Row{}}
		g.mx.Unlock()
		if !errors.Is(err, context.Canceled) {
			g.log.WarnContext(fctx, "list fetch failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		g.fireFailed(err)
		return
	}
	page := Normalize(resp.Data)
	g.page = page
	g.mx.Unlock()

	g.fireChanged(page)
}

func (g *Grid) snapshot() []Listener {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return append([]Listener(nil), g.listeners...)
}

func (g *Grid) fireLoading() {
	for _, l := range g.snapshot() {
		l.GridLoading()
	}
}

func (g *Grid) fireChanged(p Page) {
	for _, l := range g.snapshot() {
		l.GridChanged(p)
	}
}

func (g *Grid) fireFailed(err error) {
	for _, l := range g.snapshot() {
		l.GridFailed(err)
	}
}
