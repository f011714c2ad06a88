package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/session"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	return tok
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "session.ini")
	st := session.NewStore(path)

	_, err := st.Load()
	require.ErrorIs(t, err, session.ErrNoSession)

	exp := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := session.Session{
		Token:     "opaque-token",
		ExpiresAt: exp,
		User:      session.User{ID: "42", Name: "Ann", Email: "ann@example.com", Role: "admin"},
	}
	require.NoError(t, st.Save(&in))

	out, err := st.Load()
	require.NoError(t, err)
	require.Equal(t, "opaque-token", out.Token)
	require.True(t, exp.Equal(out.ExpiresAt))
	require.Equal(t, in.User, out.User)
	require.True(t, out.Persisted)
	require.Nil(t, out.Claims)

	require.NoError(t, st.Clear())
	_, err = st.Load()
	require.ErrorIs(t, err, session.ErrNoSession)
	require.NoError(t, st.Clear())
}

func TestParseClaims(t *testing.T) {
	t.Parallel()

	t.Run("jwt", func(t *testing.T) {
		t.Parallel()

		claims, ok := session.ParseClaims(signed(t, jwt.MapClaims{"sub": "7", "role": "admin"}))
		require.True(t, ok)
		require.Equal(t, "admin", claims["role"])
	})

	t.Run("opaque", func(t *testing.T) {
		t.Parallel()

		_, ok := session.ParseClaims("not-a-jwt")
		require.False(t, ok)
	})
}

func TestManager_Begin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("remembered session is persisted for the policy lifetime", func(t *testing.T) {
		t.Parallel()

		st := session.NewStore(filepath.Join(t.TempDir(), "session.ini"))
		m := session.NewManager(st, nil)
		m.SetClock(fixedClock(now))

		sess, err := m.Begin("opaque", session.User{Email: "ann@example.com"}, session.Remember(0))
		require.NoError(t, err)
		require.True(t, sess.Persisted)
		require.Equal(t, now.AddDate(0, 0, session.DefaultDays), sess.ExpiresAt)
		require.Equal(t, "opaque", m.Token())

		stored, err := st.Load()
		require.NoError(t, err)
		require.Equal(t, "opaque", stored.Token)
	})

	t.Run("claim expiry wins when earlier", func(t *testing.T) {
		t.Parallel()

		m := session.NewManager(session.NewStore(filepath.Join(t.TempDir(), "session.ini")), nil)
		m.SetClock(fixedClock(now))

		exp := now.Add(time.Hour)
		tok := signed(t, jwt.MapClaims{"exp": exp.Unix(), "sub": "9", "name": "Bob", "role": "moderator"})
		sess, err := m.Begin(tok, session.User{}, session.Remember(30))
		require.NoError(t, err)
		require.Equal(t, exp.Unix(), sess.ExpiresAt.Unix())
		require.Equal(t, session.User{ID: "9", Name: "Bob", Role: "moderator"}, sess.User)
	})

	t.Run("transient session stays in memory", func(t *testing.T) {
		t.Parallel()

		st := session.NewStore(filepath.Join(t.TempDir(), "session.ini"))
		m := session.NewManager(st, nil)

		sess, err := m.Begin("opaque", session.User{}, session.Transient())
		require.NoError(t, err)
		require.False(t, sess.Persisted)
		require.True(t, sess.ExpiresAt.IsZero())

		_, err = st.Load()
		require.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		t.Parallel()

		_, err := session.NewManager(nil, nil).Begin("", session.User{}, session.Transient())
		require.ErrorIs(t, err, session.ErrNoToken)
	})
}

type changes struct {
	got []*session.Session
}

func (c *changes) SessionChanged(s *session.Session) {
	c.got = append(c.got, s)
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("lapsed session yields no token and is cleared", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
		st := session.NewStore(filepath.Join(t.TempDir(), "session.ini"))
		m := session.NewManager(st, nil)
		m.SetClock(fixedClock(now))
		ch := &changes{}
		m.AddListener(ch)

		_, err := m.Begin("opaque", session.User{}, session.Remember(1))
		require.NoError(t, err)

		m.SetClock(fixedClock(now.AddDate(0, 0, 2)))
		require.Empty(t, m.Token())
		require.Nil(t, m.Current())
		_, err = st.Load()
		require.ErrorIs(t, err, session.ErrNoSession)
		require.Len(t, ch.got, 2)
		require.Nil(t, ch.got[1])
	})

	t.Run("restore picks up a stored session", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.ini")
		require.NoError(t, session.NewStore(path).Save(&session.Session{
			Token:     "kept",
			ExpiresAt: time.Now().Add(time.Hour),
		}))

		m := session.NewManager(session.NewStore(path), nil)
		require.NoError(t, m.Restore())
		require.Equal(t, "kept", m.Token())
	})

	t.Run("restore drops a lapsed session", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.ini")
		st := session.NewStore(path)
		require.NoError(t, st.Save(&session.Session{Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}))

		m := session.NewManager(st, nil)
		require.NoError(t, m.Restore())
		require.Empty(t, m.Token())
		_, err := st.Load()
		require.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestManager_LoginLogout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]any
		want session.User
	}{
		{
			name: "flat",
			body: map[string]any{"token": "t1", "user": map[string]any{"id": 1, "name": "Ann", "role": "admin"}},
			want: session.User{ID: "1", Name: "Ann", Email: "ann@example.com", Role: "admin"},
		},
		{
			name: "access token",
			body: map[string]any{"accessToken": "t1"},
			want: session.User{Email: "ann@example.com"},
		},
		{
			name: "nested",
			body: map[string]any{"data": map[string]any{"token": "t1", "user": map[string]any{"email": "a@x.io"}}},
			want: session.User{Email: "a@x.io"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var loggedOut bool
			var creds map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case session.LoginPath:
					_ = json.NewDecoder(r.Body).Decode(&creds)
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(tt.body)
				case session.LogoutPath:
					loggedOut = r.Header.Get("Authorization") == "Bearer t1"
					w.WriteHeader(http.StatusNoContent)
				}
			}))
			t.Cleanup(srv.Close)

			m := session.NewManager(session.NewStore(filepath.Join(t.TempDir(), "session.ini")), nil)
			api := client.New(client.Config{BaseURL: srv.URL}, m)
			var notes []client.Notification
			api.SetNotifier(func(n client.Notification) { notes = append(notes, n) })

			sess, err := m.Login(context.Background(), api, " ann@example.com ", "pw", session.Transient())
			require.NoError(t, err)
			require.Equal(t, "t1", sess.Token)
			require.Equal(t, tt.want, sess.User)
			require.Equal(t, "ann@example.com", creds["email"])
			require.Len(t, notes, 1)
			require.Equal(t, session.MsgSignedIn, notes[0].Message)

			m.Logout(context.Background(), api)
			require.True(t, loggedOut)
			require.Empty(t, m.Token())
			require.Len(t, notes, 1)
		})
	}

	t.Run("missing credentials never call out", func(t *testing.T) {
		t.Parallel()

		m := session.NewManager(nil, nil)
		_, err := m.Login(context.Background(), nil, " ", "pw", session.Transient())
		require.ErrorIs(t, err, session.ErrCredentials)
	})
}
