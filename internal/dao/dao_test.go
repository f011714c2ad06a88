package dao_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/grid"
)

type call struct {
	Method string
	Path   string
	Body   map[string]any
}

type server struct {
	mx    sync.Mutex
	calls []call
	reply func(call) (int, any)
}

func (s *server) handler(w http.ResponseWriter, r *http.Request) {
	c := call{Method: r.Method, Path: r.URL.RequestURI()}
	_ = json.NewDecoder(r.Body).Decode(&c.Body)

	s.mx.Lock()
	s.calls = append(s.calls, c)
	reply := s.reply
	s.mx.Unlock()

	status, body := http.StatusOK, any(map[string]any{})
	if reply != nil {
		status, body = reply(c)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *server) recorded() []call {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]call(nil), s.calls...)
}

func newAPI(t *testing.T, reply func(call) (int, any)) (*client.Client, *server) {
	t.Helper()

	s := &server{reply: reply}
	srv := httptest.NewServer(http.HandlerFunc(s.handler))
	t.Cleanup(srv.Close)

	return client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second}, nil), s
}

type counter struct {
	mx sync.Mutex
	n  uint64
}

func (c *counter) Bump() uint64 {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.n++
	return c.n
}

func (c *counter) value() uint64 {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.n
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	custom := config.NewResources()
	custom.Set(data.ResourceSpec{
		Name:    "instructors",
		Aliases: []string{"ins"},
		Path:    "/instructors",
		Columns: []data.ColumnSpec{{Key: "name"}},
	})
	custom.Set(data.ResourceSpec{
		Name:    dao.Products,
		Path:    "/v2/products",
		Columns: []data.ColumnSpec{{Key: "sku"}},
	})
	reg := dao.NewRegistry(custom, config.NewAliases(), false)

	uu := map[string]struct {
		cmd  string
		name string
		err  error
	}{
		"name":     {cmd: "users", name: dao.Users},
		"alias":    {cmd: "USR", name: dao.Users},
		"catalog":  {cmd: "cls", name: dao.Classes},
		"custom":   {cmd: "ins", name: "instructors"},
		"override": {cmd: "products", name: dao.Products},
		"unknown":  {cmd: "pods", err: dao.ErrUnknownResource},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			t.Parallel()
			res, err := reg.Lookup(u.cmd)
			if u.err != nil {
				require.ErrorIs(t, err, u.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, u.name, res.Name())
		})
	}

	res, err := reg.Lookup("products")
	require.NoError(t, err)
	require.Equal(t, "/v2/products", res.Spec().Path)
	require.Contains(t, reg.Names(), "instructors")
	require.Equal(t, []string{"subj", "subjects", "subsections"}, reg.Suggest("sub"))
}

func TestResource_Endpoints(t *testing.T) {
	t.Parallel()

	reg := dao.NewRegistry(nil, nil, false)

	users, err := reg.Lookup(dao.Users)
	require.NoError(t, err)
	ep := users.Endpoints()
	require.Equal(t, "/users", ep.List)
	require.Equal(t, "/users/register", ep.Create)
	require.Equal(t, "/users/42", ep.Update("42"))
	require.Equal(t, "/users/a%2Fb", ep.Delete("a/b"))

	classes, err := reg.Lookup(dao.Classes)
	require.NoError(t, err)
	ep = classes.Endpoints()
	require.Equal(t, "/classes/list", ep.List)
	require.Equal(t, "/classes", ep.Create)
	require.Equal(t, "/classes/7", ep.Update("7"))
	require.Equal(t, "class", classes.Spec().Noun)

	ro, err := dao.NewRegistry(nil, nil, true).Lookup(dao.Users)
	require.NoError(t, err)
	require.True(t, ro.ReadOnly())
	ep = ro.Endpoints()
	require.Empty(t, ep.Create)
	require.Nil(t, ep.Update)
	require.Nil(t, ep.Delete)

	view := dao.NewResource(data.ResourceSpec{Name: "logs", Path: "/logs", Columns: []data.ColumnSpec{{Key: "id"}}}, false)
	ep = view.Endpoints()
	require.Empty(t, ep.Create)
	require.Nil(t, ep.Update)
	require.Equal(t, "/logs/3", ep.Delete("3"))
	require.Equal(t, "Logs", view.Title())
}

func TestResource_UserSchema(t *testing.T) {
	t.Parallel()

	users, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Users)
	require.NoError(t, err)
	schema, err := users.Schema()
	require.NoError(t, err)

	v := schema.Defaults()
	require.Equal(t, "user", v["role"])
	v["name"], v["email"] = "Ann", "ann@x.io"

	errs := schema.Validate(v, crud.ModeCreate)
	require.Equal(t, crud.FieldErrors{"password": "Password is required"}, errs)

	v["password"] = "abc"
	errs = schema.Validate(v, crud.ModeCreate)
	require.Equal(t, "Password must be at least 6 characters", errs["password"])
	require.Equal(t, "Passwords do not match", errs["confirmPassword"])

	v["password"], v["confirmPassword"] = "secret1", "secret1"
	require.Empty(t, schema.Validate(v, crud.ModeCreate))
	payload := schema.Payload(v)
	require.NotContains(t, payload, "confirmPassword")
	require.Equal(t, "secret1", payload["password"])

	edit := schema.FromRecord(grid.Row{"name": "Ann", "email": "ann@x.io", "role": "admin"})
	require.Empty(t, schema.Validate(edit, crud.ModeEdit))
	require.NotContains(t, schema.Payload(edit), "password")

	bad := dao.NewResource(data.ResourceSpec{Name: "x", Fields: []data.FieldSpec{{Name: "a", Kind: "slider"}}}, false)
	_, err = bad.Schema()
	require.ErrorIs(t, err, dao.ErrUnknownField)
}

func TestResource_Columns(t *testing.T) {
	t.Parallel()

	users, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Users)
	require.NoError(t, err)
	cols, err := users.Columns(nil)
	require.NoError(t, err)
	require.Len(t, cols, 7)

	opts := users.GridOptions(cols, 10)
	require.Equal(t, 25, opts.PageSize)
	require.True(t, opts.ShowFilters)
	require.True(t, opts.ShowSearch)
	require.Equal(t, "row-warning", opts.RowClassFn(grid.Row{"status": "inactive"}, 0))

	row := grid.Row{"role": "moderator", "status": "suspended", "email": "m@x.io"}
	require.Equal(t, "badge-warning", cols[3].Cell(row, 0).Class)
	require.Equal(t, "MODERATOR", cols[3].Cell(row, 0).Text)
	require.Equal(t, "badge-error", cols[4].Cell(row, 0).Class)
	require.Equal(t, "mailto:m@x.io", cols[2].Cell(row, 0).Href)
}

func TestPostLister(t *testing.T) {
	t.Parallel()

	api, srv := newAPI(t, func(c call) (int, any) {
		return http.StatusOK, map[string]any{
			"data":       []any{map[string]any{"id": 1, "className": "One", "isActive": true}},
			"totalCount": 31,
		}
	})
	classes, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Classes)
	require.NoError(t, err)
	cols, err := classes.Columns(nil)
	require.NoError(t, err)

	g := grid.New(classes.Lister(api), classes.GridOptions(cols, 10), nil)
	g.Start(context.Background())
	g.Search(context.Background(), "on")

	calls := srv.recorded()
	require.Len(t, calls, 2)
	require.Equal(t, http.MethodPost, calls[1].Method)
	require.Equal(t, "/classes/list", calls[1].Path)
	require.Equal(t, map[string]any{
		"pageNumber": float64(1),
		"pageSize":   float64(10),
		"searchTerm": "on",
	}, calls[1].Body)
	require.Equal(t, 31, g.Page().Total)
	require.Len(t, g.Page().Rows, 1)
	require.Equal(t, "Active", g.Cells(g.Page().Rows[0], 0)[4].Text)
}

func TestUserActions(t *testing.T) {
	t.Parallel()

	uu := map[string]struct {
		run    func(*dao.UserActions) error
		method string
		path   string
		body   map[string]any
	}{
		"activate": {
			run:    func(u *dao.UserActions) error { return u.Activate(context.Background(), "7") },
			method: http.MethodPut, path: "/users/7/activate", body: map[string]any{},
		},
		"toggle active": {
			run: func(u *dao.UserActions) error {
				return u.Toggle(context.Background(), grid.Row{"id": "7", "status": "active"})
			},
			method: http.MethodPut, path: "/users/7/deactivate", body: map[string]any{},
		},
		"reset": {
			run:    func(u *dao.UserActions) error { return u.ResetPassword(context.Background(), "7") },
			method: http.MethodPost, path: "/users/7/reset-password", body: map[string]any{},
		},
		"bulk": {
			run:    func(u *dao.UserActions) error { return u.BulkDelete(context.Background(), []string{"1", "2"}) },
			method: http.MethodPost, path: "/users/bulk-delete", body: map[string]any{"ids": []any{"1", "2"}},
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			t.Parallel()
			api, srv := newAPI(t, nil)
			var c counter
			require.NoError(t, u.run(dao.NewUserActions(api, &c, false)))

			calls := srv.recorded()
			require.Len(t, calls, 1)
			require.Equal(t, u.method, calls[0].Method)
			require.Equal(t, u.path, calls[0].Path)
			require.Equal(t, u.body, calls[0].Body)
			require.Equal(t, uint64(1), c.value())
		})
	}

	t.Run("read only", func(t *testing.T) {
		t.Parallel()
		api, srv := newAPI(t, nil)
		var c counter
		err := dao.NewUserActions(api, &c, true).Activate(context.Background(), "7")
		require.ErrorIs(t, err, dao.ErrReadOnly)
		require.Empty(t, srv.recorded())
		require.Zero(t, c.value())
	})

	t.Run("failure keeps token", func(t *testing.T) {
		t.Parallel()
		api, _ := newAPI(t, func(call) (int, any) {
			return http.StatusNotFound, map[string]any{"message": "no such user"}
		})
		var c counter
		err := dao.NewUserActions(api, &c, false).Deactivate(context.Background(), "9")
		require.Equal(t, http.StatusNotFound, client.StatusOf(err))
		require.Zero(t, c.value())
	})

	t.Run("empty bulk", func(t *testing.T) {
		t.Parallel()
		api, srv := newAPI(t, nil)
		err := dao.NewUserActions(api, nil, false).BulkDelete(context.Background(), nil)
		require.ErrorIs(t, err, crud.ErrNoSelection)
		require.Empty(t, srv.recorded())
	})

	require.Equal(t,
		`Are you sure you want to reset password for user "Ann"? A new password will be generated and sent to their email.`,
		dao.ResetMessage("Ann"))
}

func TestResource_Fetch(t *testing.T) {
	t.Parallel()

	api, srv := newAPI(t, func(call) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{"id": 5, "name": "Ann"}}
	})
	users, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Users)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := dao.NewRecordCache(dao.DefaultCacheTTL)
	cache.SetClock(func() time.Time { return now })

	row, err := users.Fetch(context.Background(), api, cache, "5")
	require.NoError(t, err)
	require.Equal(t, "Ann", row["name"])

	_, err = users.Fetch(context.Background(), api, cache, "5")
	require.NoError(t, err)
	require.Len(t, srv.recorded(), 1)

	now = now.Add(dao.DefaultCacheTTL + time.Second)
	_, err = users.Fetch(context.Background(), api, cache, "5")
	require.NoError(t, err)
	require.Len(t, srv.recorded(), 2)

	users.Forget(cache)
	_, ok := cache.Get("/users/5")
	require.False(t, ok)
	require.Equal(t, "/users/5", srv.recorded()[1].Path)
}

func TestResource_FetchNotifies(t *testing.T) {
	t.Parallel()

	api, _ := newAPI(t, func(call) (int, any) {
		return http.StatusNotFound, map[string]any{"message": "User not found"}
	})
	var (
		mx    sync.Mutex
		notes []client.Notification
	)
	api.SetNotifier(func(n client.Notification) {
		mx.Lock()
		defer mx.Unlock()
		notes = append(notes, n)
	})
	users, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Users)
	require.NoError(t, err)

	_, err = users.Fetch(context.Background(), api, nil, "5")
	require.Equal(t, http.StatusNotFound, client.StatusOf(err))
	mx.Lock()
	require.Empty(t, notes)
	mx.Unlock()

	_, err = users.Fetch(context.Background(), api, nil, "5", client.WithToast(true))
	require.Error(t, err)
	mx.Lock()
	defer mx.Unlock()
	require.Len(t, notes, 1)
	require.Equal(t, client.KindError, notes[0].Kind)
	require.Equal(t, "User not found", notes[0].Message)
}

func TestResource_Forget(t *testing.T) {
	t.Parallel()

	reg := dao.NewRegistry(nil, nil, false)
	uu := map[string]struct {
		name string
		id   string
		keep string
	}{
		"create path differs": {name: dao.Users, id: "5", keep: "/products/5"},
		"item template":       {name: dao.Mapping, id: "9", keep: "/users/9"},
		"derived item path":   {name: dao.Classes, id: "3", keep: "/subjects/3"},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			res, err := reg.Lookup(u.name)
			require.NoError(t, err)
			cache := dao.NewRecordCache(dao.DefaultCacheTTL)
			cache.Set(res.ItemPath(u.id), grid.Row{"id": u.id})
			cache.Set(u.keep, grid.Row{"id": u.id})

			res.Forget(cache)
			_, ok := cache.Get(res.ItemPath(u.id))
			require.False(t, ok)
			_, ok = cache.Get(u.keep)
			require.True(t, ok)
		})
	}
}

func TestResource_LoadOptions(t *testing.T) {
	t.Parallel()

	api, srv := newAPI(t, func(c call) (int, any) {
		switch c.Path {
		case "/classes/list":
			return http.StatusOK, map[string]any{"data": []any{
				map[string]any{"id": 1, "className": "One", "classCode": "C1"},
				map[string]any{"id": 2, "className": "Two"},
			}}
		case "/subjects/list":
			return http.StatusOK, map[string]any{"items": []any{
				map[string]any{"id": 9, "subjectName": "Maths", "subjectCode": "M"},
			}}
		case "/sections/list":
			return http.StatusOK, []any{map[string]any{"id": 4, "sectionName": "A"}}
		default:
			return http.StatusInternalServerError, map[string]any{"message": "down"}
		}
	})

	mapping, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Mapping)
	require.NoError(t, err)
	require.True(t, mapping.HasOptionSources())

	oo, failed, err := mapping.LoadOptions(context.Background(), api)
	require.NoError(t, err)
	require.Equal(t, 1, failed)
	require.Len(t, srv.recorded(), 4)
	for _, c := range srv.recorded() {
		require.Equal(t, http.MethodPost, c.Method)
		require.Equal(t, float64(dao.OptionPageSize), c.Body["pageSize"])
	}

	require.Len(t, oo["classId"], 2)
	require.Equal(t, "One (C1)", oo["classId"][0].Label)
	require.Equal(t, "Two", oo["classId"][1].Label)
	require.Equal(t, "Maths (M)", oo["subjectId"][0].Label)
	require.Equal(t, "A", oo["sectionId"][0].Label)
	require.NotContains(t, oo, "subSectionId")

	users, err := dao.NewRegistry(nil, nil, false).Lookup(dao.Users)
	require.NoError(t, err)
	require.False(t, users.HasOptionSources())
	oo, failed, err = users.LoadOptions(context.Background(), api)
	require.NoError(t, err)
	require.Zero(t, failed)
	require.Nil(t, oo)
}
