package grid_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/grid"
)

type fakeAPI struct {
	mx    sync.Mutex
	paths []string
	reply func(path string) (any, error)
}

func (f *fakeAPI) Get(_ context.Context, path string, _ ...client.Option) (*client.Response, error) {
	f.mx.Lock()
	f.paths = append(f.paths, path)
	reply := f.reply
	f.mx.Unlock()

	data, err := reply(path)
	if err != nil {
		return nil, err
	}

	return &client.Response{Data: data, Status: 200}, nil
}

func (f *fakeAPI) last() string {
	f.mx.Lock()
	defer f.mx.Unlock()
	if len(f.paths) == 0 {
		return ""
	}
	return f.paths[len(f.paths)-1]
}

func (f *fakeAPI) count() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return len(f.paths)
}

func rows(n, offset int) []any {
	out := make([]any, 0, n)
	for i := range n {
		out = append(out, map[string]any{"id": float64(offset + i + 1), "name": fmt.Sprintf("user %d", offset+i+1)})
	}

	return out
}

func userColumns() []grid.Column {
	return []grid.Column{
		{Title: "ID", Key: "id"},
		{Title: "Name", Key: "name", Sortable: true},
		{Title: "Email", Key: "email", Sortable: true},
		{Title: "Role", Key: "role", Filterable: true},
		{Title: "Status", Key: "status", Filterable: true},
	}
}

func newGrid(api *fakeAPI, mods ...func(*grid.Options)) *grid.Grid {
	opts := grid.Options{Name: "users", Columns: userColumns(), Source: grid.Path("/users")}
	for _, m := range mods {
		m(&opts)
	}

	return grid.New(api, opts, nil)
}

func pagedAPI(total int) *fakeAPI {
	return &fakeAPI{reply: func(string) (any, error) {
		return map[string]any{"data": rows(10, 0), "total": float64(total)}, nil
	}}
}

func TestGrid_FirstPage(t *testing.T) {
	t.Parallel()

	api := pagedAPI(57)
	g := newGrid(api)
	g.Start(context.Background())

	require.Equal(t, "/users?pageNumber=1&pageSize=10", api.last())
	require.Len(t, g.Page().Rows, 10)
	require.Equal(t, 57, g.Page().Total)
	require.Equal(t, "Showing 1 to 10 of 57 entries", g.Info())
	require.True(t, g.HasNext())
	require.False(t, g.HasPrev())
	require.Equal(t, 6, g.TotalPages())
	require.Equal(t, []int{1, 2, 3, 4, 5}, g.PageWindow())
	require.Empty(t, g.Placeholder())
	require.False(t, g.Loading())
}

func TestGrid_SortCycle(t *testing.T) {
	t.Parallel()

	api := pagedAPI(57)
	g := newGrid(api)
	ctx := context.Background()
	g.Start(ctx)

	g.Sort(ctx, "name")
	require.Equal(t, "/users?pageNumber=1&pageSize=10&sortBy=name&sortOrder=asc", api.last())
	g.Sort(ctx, "name")
	require.Equal(t, "/users?pageNumber=1&pageSize=10&sortBy=name&sortOrder=desc", api.last())
	g.Sort(ctx, "name")
	require.Equal(t, "/users?pageNumber=1&pageSize=10", api.last())

	t.Run("switching columns starts at asc", func(t *testing.T) {
		g.Sort(ctx, "name")
		g.Sort(ctx, "name")
		g.Sort(ctx, "email")
		q := g.Query()
		require.Equal(t, "email", q.SortField)
		require.Equal(t, grid.SortAsc, q.SortDir)
		require.Equal(t, grid.SortNone, q.Sorted("name"))
	})

	t.Run("non sortable columns are ignored", func(t *testing.T) {
		n := api.count()
		g.Sort(ctx, "id")
		g.Sort(ctx, "unknown")
		require.Equal(t, n, api.count())
	})

	t.Run("sorting keeps the page", func(t *testing.T) {
		g.GotoPage(ctx, 3)
		g.Sort(ctx, "name")
		require.Equal(t, 3, g.Query().PageNumber)
	})
}

func TestGrid_PaginationReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("search", func(t *testing.T) {
		t.Parallel()

		api := pagedAPI(57)
		g := newGrid(api)
		g.Start(ctx)
		g.GotoPage(ctx, 4)
		require.Equal(t, 4, g.Query().PageNumber)

		g.Search(ctx, "ann")
		require.Equal(t, "/users?pageNumber=1&pageSize=10&search=ann", api.last())
	})

	t.Run("filter", func(t *testing.T) {
		t.Parallel()

		api := pagedAPI(57)
		g := newGrid(api)
		g.Start(ctx)
		g.GotoPage(ctx, 4)

		g.Filter(ctx, "role", "admin")
		require.Equal(t, "/users?pageNumber=1&pageSize=10&filter%5Brole%5D=admin", api.last())

		n := api.count()
		g.Filter(ctx, "name", "x")
		require.Equal(t, n, api.count())
	})

	t.Run("page size", func(t *testing.T) {
		t.Parallel()

		api := pagedAPI(57)
		g := newGrid(api)
		g.Start(ctx)
		g.GotoPage(ctx, 2)

		g.SetPageSize(ctx, 25)
		require.Equal(t, "/users?pageNumber=1&pageSize=25", api.last())

		g.CyclePageSize(ctx)
		require.Equal(t, 50, g.Query().PageSize)
	})

	t.Run("page changes keep page", func(t *testing.T) {
		t.Parallel()

		api := pagedAPI(57)
		g := newGrid(api)
		g.Start(ctx)
		g.NextPage(ctx)
		g.NextPage(ctx)
		require.Equal(t, 3, g.Query().PageNumber)
		g.PrevPage(ctx)
		require.Equal(t, 2, g.Query().PageNumber)
	})
}

func TestGrid_PageClamping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := pagedAPI(57)
	g := newGrid(api)
	g.Start(ctx)

	g.GotoPage(ctx, 99)
	require.Equal(t, 6, g.Query().PageNumber)
	require.False(t, g.HasNext())

	n := api.count()
	g.NextPage(ctx)
	g.GotoPage(ctx, 6)
	require.Equal(t, n, api.count())

	g.GotoPage(ctx, -2)
	require.Equal(t, 1, g.Query().PageNumber)
	g.PrevPage(ctx)
	require.Equal(t, 1, g.Query().PageNumber)
}

func TestGrid_RefreshToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := pagedAPI(57)
	g := newGrid(api)
	g.Start(ctx)
	g.SetPageSize(ctx, 25)
	g.GotoPage(ctx, 2)
	before := api.count()

	g.SetRefreshToken(ctx, 1)
	require.Equal(t, before+1, api.count())
	require.Equal(t, "/users?pageNumber=2&pageSize=25", api.last())

	g.SetRefreshToken(ctx, 1)
	require.Equal(t, before+1, api.count())

	g.SetRefreshToken(ctx, 2)
	require.Equal(t, before+2, api.count())
	require.Equal(t, 2, g.Query().PageNumber)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	want := rows(3, 0)
	tests := map[string]struct {
		body  any
		total int
	}{
		"data envelope":      {body: map[string]any{"data": want, "total": float64(40)}, total: 40},
		"items envelope":     {body: map[string]any{"items": want, "totalRecords": float64(40)}, total: 40},
		"bare array":         {body: want, total: 3},
		"zero total":         {body: map[string]any{"data": want, "total": float64(0), "totalRecords": float64(9)}, total: 9},
		"missing total":      {body: map[string]any{"items": want}, total: 3},
		"data wins on items": {body: map[string]any{"data": want, "items": rows(1, 10)}, total: 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := grid.Normalize(tt.body)
			require.Len(t, p.Rows, 3)
			require.InDelta(t, 1.0, p.Rows[0]["id"], 0.0001)
			require.Equal(t, tt.total, p.Total)
		})
	}

	t.Run("empty data array matches", func(t *testing.T) {
		t.Parallel()

		p := grid.Normalize(map[string]any{"data": []any{}, "items": rows(2, 0)})
		require.Empty(t, p.Rows)
		require.Equal(t, 0, p.Total)
	})

	t.Run("unknown shape", func(t *testing.T) {
		t.Parallel()

		p := grid.Normalize("oops")
		require.NotNil(t, p.Rows)
		require.Empty(t, p.Rows)
	})
}

type events struct {
	mx      sync.Mutex
	loading int
	changed []grid.Page
	failed  []error
}

func (e *events) GridLoading() {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.loading++
}

func (e *events) GridChanged(p grid.Page) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.changed = append(e.changed, p)
}

func (e *events) GridFailed(err error) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.failed = append(e.failed, err)
}

func TestGrid_Failure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fail := false
	api := &fakeAPI{}
	api.reply = func(string) (any, error) {
		if fail {
			return nil, &client.HTTPError{Status: 500, Message: "boom"}
		}
		return map[string]any{"data": rows(10, 0), "total": float64(57)}, nil
	}
	g := newGrid(api)
	ev := &events{}
	g.AddListener(ev)

	g.Start(ctx)
	require.Len(t, g.Page().Rows, 10)

	api.mx.Lock()
	fail = true
	api.mx.Unlock()
	g.Refresh(ctx)

	require.Empty(t, g.Page().Rows)
	require.Equal(t, 0, g.Page().Total)
	require.Equal(t, grid.EmptyText, g.Placeholder())
	require.Empty(t, g.Info())
	require.Len(t, ev.failed, 1)
	require.Len(t, ev.changed, 1)
	require.Equal(t, 2, ev.loading)
}

type gatedAPI struct {
	first   chan struct{}
	entered chan struct{}
	calls   int
	mx      sync.Mutex
}

func (g *gatedAPI) Get(_ context.Context, _ string, _ ...client.Option) (*client.Response, error) {
	g.mx.Lock()
	g.calls++
	n := g.calls
	g.mx.Unlock()

	if n == 1 {
		close(g.entered)
		<-g.first
		return &client.Response{Data: map[string]any{"data": rows(1, 100), "total": float64(1)}}, nil
	}

	return &client.Response{Data: map[string]any{"data": rows(2, 200), "total": float64(2)}}, nil
}

func TestGrid_StaleResponsesDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &gatedAPI{first: make(chan struct{}), entered: make(chan struct{})}
	g := grid.New(api, grid.Options{Columns: userColumns(), Source: grid.Path("/users")}, nil)
	ev := &events{}
	g.AddListener(ev)

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Start(ctx)
	}()
	<-api.entered

	g.Search(ctx, "bob")
	require.Len(t, g.Page().Rows, 2)

	close(api.first)
	<-done
	require.Len(t, g.Page().Rows, 2)
	require.InDelta(t, 201.0, g.Page().Rows[0]["id"], 0.0001)
	require.Len(t, ev.changed, 1)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 0, nil},
		{1, 3, []int{1, 2, 3}},
		{2, 5, []int{1, 2, 3, 4, 5}},
		{3, 10, []int{1, 2, 3, 4, 5}},
		{4, 10, []int{2, 3, 4, 5, 6}},
		{7, 10, []int{5, 6, 7, 8, 9}},
		{8, 10, []int{6, 7, 8, 9, 10}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.current, tt.total), func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, grid.Window(tt.current, tt.total))
		})
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Showing 51 to 57 of 57 entries", grid.Info(6, 10, 57))
	require.Equal(t, "Showing 1 to 3 of 3 entries", grid.Info(1, 10, 3))
	require.Empty(t, grid.Info(1, 10, 0))
}

func TestQueryState_Encode(t *testing.T) {
	t.Parallel()

	q := grid.NewQuery(10)
	q.SetFilter("item10", "b")
	q.SetFilter("item2", "a")
	q.SetFilter("empty", "")
	require.Equal(t, "pageNumber=1&pageSize=10&filter%5Bitem2%5D=a&filter%5Bitem10%5D=b", q.Encode())

	q.SetFilter("item2", "")
	require.Equal(t, url.Values{"pageNumber": {"1"}, "pageSize": {"10"}, "filter[item10]": {"b"}}, q.Values())
}

func TestSource(t *testing.T) {
	t.Parallel()

	q := grid.NewQuery(10)
	q.SetSearch("ann")

	require.Equal(t, "/users?scope=all&pageNumber=1&pageSize=10&search=ann", grid.Path("/users?scope=all").URL(q))

	res := grid.Resolver(func(v url.Values) string {
		return "/classes/active?" + v.Encode()
	})
	require.Equal(t, "/classes/active?pageNumber=1&pageSize=10&search=ann", res.URL(q))
}

func TestColumn_Cell(t *testing.T) {
	t.Parallel()

	row := grid.Row{"id": float64(3), "name": "Ann", "email": "ann@x.io", "avatar": "/img/ann.png", "status": "active"}
	var clicked []any

	tests := map[string]struct {
		col  grid.Column
		want grid.Cell
	}{
		"text": {
			col:  grid.Column{Key: "id"},
			want: grid.Cell{Text: "3"},
		},
		"format wins": {
			col:  grid.Column{Key: "status", Format: func(v any, _ grid.Row) string { return "ACTIVE" }},
			want: grid.Cell{Text: "ACTIVE"},
		},
		"image": {
			col:  grid.Column{Key: "avatar", Render: grid.Image{}},
			want: grid.Cell{Text: "ann.png", Kind: grid.CellImage, Href: "/img/ann.png"},
		},
		"link": {
			col: grid.Column{Key: "email", Render: grid.Link{Href: func(v any, _ grid.Row) string {
				return "mailto:" + grid.Stringify(v)
			}}},
			want: grid.Cell{Text: "ann@x.io", Kind: grid.CellLink, Href: "mailto:ann@x.io", Target: "_self"},
		},
		"badge": {
			col: grid.Column{Key: "status", Render: grid.Badge{Class: "badge-info", ClassFn: func(v any, _ grid.Row) string {
				return "badge-success"
			}}},
			want: grid.Cell{Text: "active", Kind: grid.CellBadge, Class: "badge-success"},
		},
		"icon before": {
			col:  grid.Column{Key: "name", Render: grid.Icon{Glyph: "👤"}},
			want: grid.Cell{Text: "👤 Ann", Kind: grid.CellIcon},
		},
		"icon after": {
			col:  grid.Column{Key: "name", Render: grid.Icon{Glyph: "★", After: true}, Align: grid.AlignRight},
			want: grid.Cell{Text: "Ann ★", Kind: grid.CellIcon, Align: grid.AlignRight},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.col.Cell(row, 0))
		})
	}

	t.Run("button", func(t *testing.T) {
		col := grid.Column{Key: "id", Render: grid.Button{Label: "Open", Class: "btn", OnClick: func(v any, r grid.Row, i int) {
			clicked = append(clicked, v, i)
		}}}
		c := col.Cell(row, 4)
		require.Equal(t, grid.CellButton, c.Kind)
		require.Equal(t, "3", c.Text)
		require.NotNil(t, c.Action)
		c.Action()
		require.Equal(t, []any{float64(3), 4}, clicked)

		empty := col.Cell(grid.Row{}, 0)
		require.Equal(t, "Open", empty.Text)
	})
}

func TestGrid_Layout(t *testing.T) {
	t.Parallel()

	api := pagedAPI(0)
	var clicked []int

	t.Run("action column", func(t *testing.T) {
		t.Parallel()

		g := newGrid(api, func(o *grid.Options) {
			o.ActionColumn = &grid.ActionColumn{Render: func(row grid.Row, i int) string { return "e:edit" }}
		})
		require.Equal(t, 6, g.Span())
		hh := g.Headers()
		require.Equal(t, "Actions", hh[0].Title)
		require.True(t, hh[0].Action)
		require.Equal(t, "Name ⇅", hh[2].Label())
		require.Equal(t, "ID", hh[1].Label())

		cc := g.Cells(grid.Row{"id": float64(1)}, 0)
		require.Len(t, cc, 6)
		require.Equal(t, "e:edit", cc[0].Text)
	})

	t.Run("row classes", func(t *testing.T) {
		t.Parallel()

		plain := newGrid(api)
		require.Equal(t, 5, plain.Span())
		require.Equal(t, "datagrid-row", plain.RowClass(grid.Row{}, 0))

		g := newGrid(api, func(o *grid.Options) {
			o.RowClassFn = func(row grid.Row, _ int) string { return "status-" + grid.Stringify(row["status"]) }
			o.OnRowClick = func(_ grid.Row, i int) { clicked = append(clicked, i) }
		})
		require.Equal(t, "datagrid-row status-active datagrid-row-clickable", g.RowClass(grid.Row{"status": "active"}, 0))
		require.Equal(t, "7", g.RowKey(grid.Row{"id": float64(7)}, 2))
		require.Equal(t, "2", g.RowKey(grid.Row{}, 2))
	})

	t.Run("placeholder before the first fetch", func(t *testing.T) {
		t.Parallel()

		g := newGrid(&fakeAPI{reply: func(string) (any, error) { return nil, errors.New("unused") }})
		require.Equal(t, grid.EmptyText, g.Placeholder())
	})
}

func TestClassColor(t *testing.T) {
	t.Parallel()

	col, ok := grid.ClassColor("datagrid-row badge-error")
	require.True(t, ok)
	require.Equal(t, grid.ErrorColor, col)

	_, ok = grid.ClassColor("datagrid-row")
	require.False(t, ok)

	require.Equal(t, grid.LinkColor, grid.CellColor(grid.Cell{Kind: grid.CellLink}))
	require.Equal(t, grid.SuccessColor, grid.CellColor(grid.Cell{Kind: grid.CellBadge, Class: "badge-success"}))
}
