package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalctl/portalctl/internal/client"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorder struct {
	mx    sync.Mutex
	notes []client.Notification
}

func (r *recorder) sink(n client.Notification) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []client.Notification {
	r.mx.Lock()
	defer r.mx.Unlock()
	return append([]client.Notification(nil), r.notes...)
}

func newClient(t *testing.T, h http.HandlerFunc, tok string) (*client.Client, *recorder) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.URL, Timeout: time.Second, RedirectDelay: 10 * time.Millisecond}, staticToken(tok))
	rec := &recorder{}
	c.SetNotifier(rec.sink)

	return c, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("attaches bearer token and stays silent", func(t *testing.T) {
		t.Parallel()

		var got *http.Request
		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{map[string]any{"id": 7}}, "total": 1})
		}, "tok-1")

		resp, err := c.Get(context.Background(), "/users?pageNumber=1&pageSize=10")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)
		require.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
		require.Equal(t, "application/json", got.Header.Get("Content-Type"))
		require.NotEmpty(t, got.Header.Get("X-Request-ID"))
		require.Equal(t, "1", got.URL.Query().Get("pageNumber"))
		require.Empty(t, rec.all())

		body := resp.Data.(map[string]any)
		row := body["data"].([]any)[0].(map[string]any)
		require.Equal(t, json.Number("7"), row["id"])
	})

	t.Run("omits authorization without a token", func(t *testing.T) {
		t.Parallel()

		var auth string
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}, "")

		_, err := c.Get(context.Background(), "/ping")
		require.NoError(t, err)
		require.Empty(t, auth)
	})

	t.Run("keeps non json bodies as text", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "pong")
		}, "")

		resp, err := c.Get(context.Background(), "/ping")
		require.NoError(t, err)
		require.Equal(t, "pong", resp.Data)
	})

	t.Run("failure is silent unless opted in", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{})
		}, "")

		_, err := c.Get(context.Background(), "/missing")
		require.Error(t, err)
		require.Equal(t, http.StatusNotFound, client.StatusOf(err))
		require.Equal(t, "Resource not found.", err.Error())
		require.Empty(t, rec.all())

		_, err = c.Get(context.Background(), "/missing", client.WithToast(true))
		require.Error(t, err)
		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.KindError, notes[0].Kind)
		require.Equal(t, "Resource not found.", notes[0].Message)
	})
}

func TestClient_Mutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		call   func(c *client.Client) (*client.Response, error)
		want   string
	}{
		{
			name:   "post defaults to created",
			status: http.StatusCreated,
			call: func(c *client.Client) (*client.Response, error) {
				return c.Post(context.Background(), "/classes", map[string]any{"className": "A"})
			},
			want: client.MsgCreated,
		},
		{
			name:   "put defaults to updated",
			status: http.StatusOK,
			call: func(c *client.Client) (*client.Response, error) {
				return c.Put(context.Background(), "/classes/1", map[string]any{"className": "B"})
			},
			want: client.MsgUpdated,
		},
		{
			name:   "patch defaults to updated",
			status: http.StatusOK,
			call: func(c *client.Client) (*client.Response, error) {
				return c.Patch(context.Background(), "/classes/1", map[string]any{"className": "B"})
			},
			want: client.MsgUpdated,
		},
		{
			name:   "delete defaults to deleted",
			status: http.StatusNoContent,
			call: func(c *client.Client) (*client.Response, error) {
				return c.Delete(context.Background(), "/classes/1")
			},
			want: client.MsgDeleted,
		},
		{
			name:   "custom message wins",
			status: http.StatusOK,
			call: func(c *client.Client) (*client.Response, error) {
				return c.Post(context.Background(), "/users/1/reset-password", map[string]any{}, client.WithSuccessMessage("Password reset"))
			},
			want: "Password reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, "tok")

			_, err := tt.call(c)
			require.NoError(t, err)

			notes := rec.all()
			require.Len(t, notes, 1)
			require.Equal(t, client.KindSuccess, notes[0].Kind)
			require.Equal(t, tt.want, notes[0].Message)
		})
	}

	t.Run("accepted status is not notified", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}, "")

		_, err := c.Post(context.Background(), "/jobs", map[string]any{})
		require.NoError(t, err)
		require.Empty(t, rec.all())
	})

	t.Run("sends json body", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusCreated)
		}, "")

		_, err := c.Post(context.Background(), "/classes", map[string]any{"className": "A", "displayOrder": 2.0})
		require.NoError(t, err)
		require.Equal(t, "A", got["className"])
		require.InDelta(t, 2.0, got["displayOrder"], 0.0001)
	})

	t.Run("toast opt out silences success", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}, "")

		_, err := c.Put(context.Background(), "/x", nil, client.WithToast(false))
		require.NoError(t, err)
		require.Empty(t, rec.all())
	})
}

func TestClient_Failures(t *testing.T) {
	t.Parallel()

	t.Run("server message and errors become details", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "Invalid payload",
				"errors":  []any{"className is required", "classCode is taken"},
			})
		}, "")

		_, err := c.Post(context.Background(), "/classes", map[string]any{})
		require.Error(t, err)

		var httpErr *client.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
		require.Equal(t, "Invalid payload", httpErr.Message)
		require.Equal(t, []string{"className is required", "classCode is taken"}, httpErr.Details)

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, "Invalid payload", notes[0].Message)
		require.Equal(t, httpErr.Details, notes[0].Details)
	})

	t.Run("error field used when message is missing", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "duplicate code"})
		}, "")

		_, err := c.Post(context.Background(), "/classes", map[string]any{})
		require.EqualError(t, err, "duplicate code")
		require.Empty(t, client.DetailsOf(err))
	})

	t.Run("status table fallback", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, "")

		_, err := c.Delete(context.Background(), "/classes/1")
		require.EqualError(t, err, "Service unavailable. Please try again later.")
	})

	t.Run("generic fallback for unknown status", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "")

		_, err := c.Delete(context.Background(), "/classes/1")
		require.EqualError(t, err, client.MsgGeneric)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, "")

		_, err := c.Post(context.Background(), "/slow", nil, client.WithTimeout(20*time.Millisecond))
		var tmErr *client.TimeoutError
		require.ErrorAs(t, err, &tmErr)
		require.Equal(t, client.StatusTimeout, client.StatusOf(err))

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.MsgTimeout, notes[0].Message)
		require.Equal(t, 0, c.Loading().Count())
	})

	t.Run("network failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := client.New(client.Config{BaseURL: url}, nil)
		rec := &recorder{}
		c.SetNotifier(rec.sink)

		_, err := c.Put(context.Background(), "/x", nil)
		var netErr *client.NetworkError
		require.ErrorAs(t, err, &netErr)
		require.Equal(t, client.StatusNetwork, client.StatusOf(err))
		require.Equal(t, client.MsgNetwork, err.Error())
		require.Len(t, rec.all(), 1)
	})

	t.Run("caller cancellation is not reported", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}, "")

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		_, err := c.Post(ctx, "/slow", nil)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, rec.all())
	})
}

func TestClient_Unauthorized(t *testing.T) {
	t.Parallel()

	t.Run("always notifies once and tears the session down", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{})
		}, "stale")

		var invalidations int
		var mx sync.Mutex
		c.SetSessionInvalidator(func() {
			mx.Lock()
			defer mx.Unlock()
			invalidations++
		})
		navigated := make(chan string, 1)
		c.SetNavigator(func(path string) { navigated <- path })

		_, err := c.Get(context.Background(), "/users", client.WithToast(false))
		require.Error(t, err)
		require.True(t, client.IsUnauthorized(err))
		require.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.KindError, notes[0].Kind)
		require.Equal(t, client.MsgSessionExpired, notes[0].Message)

		mx.Lock()
		require.Equal(t, 1, invalidations)
		mx.Unlock()

		select {
		case path := <-navigated:
			require.Equal(t, "/?sessionExpired=true", path)
		case <-time.After(time.Second):
			t.Fatal("navigator was not called")
		}
	})

	t.Run("server message wins", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token revoked"})
		}, "stale")

		_, err := c.Delete(context.Background(), "/users/1")
		require.Error(t, err)
		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, "Token revoked", notes[0].Message)
	})

	t.Run("rejected credentials never redirect", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusUnauthorized, map[string]any{})
		}, "")

		var mx sync.Mutex
		var invalidations int
		c.SetSessionInvalidator(func() {
			mx.Lock()
			defer mx.Unlock()
			invalidations++
		})
		navigated := make(chan string, 1)
		c.SetNavigator(func(path string) { navigated <- path })

		_, err := c.Post(context.Background(), "/auth/login", map[string]any{"email": "a@b.io"}, client.WithToast(false))
		require.True(t, client.IsUnauthorized(err))

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.KindError, notes[0].Kind)
		require.Equal(t, client.StatusMessage(http.StatusUnauthorized), notes[0].Message)
		mx.Lock()
		require.Equal(t, 1, invalidations)
		mx.Unlock()

		select {
		case path := <-navigated:
			t.Fatalf("unexpected navigation to %s", path)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

type transitions struct {
	mx  sync.Mutex
	got []bool
}

func (t *transitions) LoadingChanged(v bool) {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.got = append(t.got, v)
}

func (t *transitions) all() []bool {
	t.mx.Lock()
	defer t.mx.Unlock()
	return append([]bool(nil), t.got...)
}

func TestClient_Loading(t *testing.T) {
	t.Parallel()

	t.Run("concurrent calls toggle the indicator once", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		var arrived sync.WaitGroup
		arrived.Add(3)
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			arrived.Done()
			<-release
			w.WriteHeader(http.StatusOK)
		}, "")
		tr := &transitions{}
		c.Loading().AddListener(tr)

		var done sync.WaitGroup
		for range 3 {
			done.Add(1)
			go func() {
				defer done.Done()
				_, _ = c.Get(context.Background(), "/x")
			}()
		}
		arrived.Wait()
		require.Equal(t, 3, c.Loading().Count())
		require.True(t, c.Loading().Visible())

		close(release)
		done.Wait()
		require.False(t, c.Loading().Visible())
		require.Equal(t, []bool{true, false}, tr.all())
	})

	t.Run("calls without loading do not affect the indicator", func(t *testing.T) {
		t.Parallel()

		slow := make(chan struct{})
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/a" {
				<-slow
			}
			w.WriteHeader(http.StatusOK)
		}, "")
		tr := &transitions{}
		c.Loading().AddListener(tr)

		aDone := make(chan struct{})
		go func() {
			defer close(aDone)
			_, _ = c.Get(context.Background(), "/a", client.WithLoading(false))
		}()

		_, err := c.Get(context.Background(), "/b")
		require.NoError(t, err)
		require.False(t, c.Loading().Visible())

		close(slow)
		<-aDone
		require.Equal(t, []bool{true, false}, tr.all())
	})

	t.Run("failures release the counter", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, "")

		_, err := c.Post(context.Background(), "/x", nil)
		require.Error(t, err)
		require.Equal(t, 0, c.Loading().Count())
	})
}

func TestClient_Registration(t *testing.T) {
	t.Parallel()

	c, first := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}, "")

	second := &recorder{}
	c.SetNotifier(second.sink)
	_, err := c.Post(context.Background(), "/x", nil)
	require.NoError(t, err)
	require.Empty(t, first.all())
	require.Len(t, second.all(), 1)

	c.SetNotifier(nil)
	_, err = c.Post(context.Background(), "/x", nil)
	require.NoError(t, err)
	require.Len(t, second.all(), 1)
}

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	t.Run("single file with extra fields", func(t *testing.T) {
		t.Parallel()

		type part struct{ field, name, body string }
		var parts []part
		var kind string
		c, rec := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			mr, err := r.MultipartReader()
			if !assert.NoError(t, err) {
				return
			}
			for {
				p, err := mr.NextPart()
				if err != nil {
					break
				}
				b, _ := io.ReadAll(p)
				if p.FileName() == "" {
					kind = string(b)
					continue
				}
				parts = append(parts, part{p.FormName(), p.FileName(), string(b)})
			}
			writeJSON(w, http.StatusCreated, map[string]any{"url": "/files/1"})
		}, "")

		_, err := c.UploadFile(context.Background(), "/upload/single",
			client.File{Name: "a.txt", Reader: strings.NewReader("hello")},
			client.WithFormValue("kind", "doc"),
		)
		require.NoError(t, err)
		require.Equal(t, []part{{"file", "a.txt", "hello"}}, parts)
		require.Equal(t, "doc", kind)

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.MsgUploaded, notes[0].Message)
	})

	t.Run("multiple files share the files field", func(t *testing.T) {
		t.Parallel()

		var fields []string
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			for name, ff := range r.MultipartForm.File {
				for range ff {
					fields = append(fields, name)
				}
			}
			w.WriteHeader(http.StatusCreated)
		}, "")

		_, err := c.UploadFiles(context.Background(), "/upload/multiple", []client.File{
			{Name: "a.txt", Reader: strings.NewReader("a")},
			{Name: "b.txt", Reader: strings.NewReader("b")},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"files", "files"}, fields)
	})

	t.Run("rejects empty uploads", func(t *testing.T) {
		t.Parallel()

		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
		_, err := c.UploadFiles(context.Background(), "/upload/multiple", nil)
		require.ErrorIs(t, err, client.ErrEmptyUpload)
	})
}

func TestClient_Multiple(t *testing.T) {
	t.Parallel()

	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		case "/bad":
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad input"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}

	t.Run("settles every call and aggregates failures", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, handler, "")
		res, err := c.Multiple(context.Background(), []client.Request{
			{Path: "/ok"},
			{Method: http.MethodPost, Path: "/bad", Body: map[string]any{}},
			{Method: http.MethodDelete, Path: "/boom"},
		})
		require.NoError(t, err)
		require.Len(t, res.Successes, 1)
		require.Len(t, res.Errors, 2)
		require.False(t, res.AllSucceeded)
		require.False(t, res.AllFailed)
		require.Equal(t, 0, res.Successes[0].Index)
		require.Equal(t, 1, res.Errors[0].Index)
		require.Equal(t, 2, res.Errors[1].Index)

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, "Failed to complete 2 request(s)", notes[0].Message)
		require.Equal(t, []string{"bad input", "Server error. Please try again later."}, notes[0].Details)
	})

	t.Run("single success notification", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, handler, "")
		res, err := c.Multiple(context.Background(), []client.Request{{Path: "/ok"}, {Method: http.MethodPut, Path: "/ok"}})
		require.NoError(t, err)
		require.True(t, res.AllSucceeded)

		notes := rec.all()
		require.Len(t, notes, 1)
		require.Equal(t, client.MsgSuccess, notes[0].Message)
	})

	t.Run("empty batch settles silently", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, handler, "")
		var tt transitions
		c.Loading().AddListener(&tt)

		res, err := c.Multiple(context.Background(), nil)
		require.NoError(t, err)
		require.True(t, res.AllSucceeded)
		require.False(t, res.AllFailed)
		require.Empty(t, res.Successes)
		require.Empty(t, res.Errors)
		require.Empty(t, rec.all())
		require.Empty(t, tt.all())
	})

	t.Run("every call is in flight at once", func(t *testing.T) {
		t.Parallel()

		const n = 12
		var (
			mx      sync.Mutex
			arrived int
			all     = make(chan struct{})
		)
		c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			mx.Lock()
			arrived++
			if arrived == n {
				close(all)
			}
			mx.Unlock()

			select {
			case <-all:
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			case <-time.After(800 * time.Millisecond):
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}, "")

		reqs := make([]client.Request, n)
		for i := range reqs {
			reqs[i] = client.Request{Path: "/ok"}
		}
		res, err := c.Multiple(context.Background(), reqs, client.WithToast(false))
		require.NoError(t, err)
		require.True(t, res.AllSucceeded)
		require.Len(t, res.Successes, n)
	})

	t.Run("aggregate notification can be silenced", func(t *testing.T) {
		t.Parallel()

		c, rec := newClient(t, handler, "")
		res, err := c.Multiple(context.Background(), []client.Request{{Path: "/boom"}}, client.WithToast(false))
		require.NoError(t, err)
		require.True(t, res.AllFailed)
		require.Empty(t, rec.all())
		require.True(t, errors.As(res.Errors[0].Err, new(*client.HTTPError)))
	})
}
