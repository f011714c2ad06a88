// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/portalctl/portalctl/internal/client"
)

// Auth endpoints.
const (
	LoginPath    = "/auth/login"
	LogoutPath   = "/auth/logout"
	RefreshPath  = "/auth/refresh"
	RegisterPath = "/auth/register"
)

// MsgSignedIn is shown after a successful sign-in.
const MsgSignedIn = "Signed in successfully"

// Poster issues the auth calls.
type Poster interface {
	Post(ctx context.Context, path string, body any, opts ...client.Option) (*client.Response, error)
}

// Listener observes session transitions. A nil session means signed out.
type Listener interface {
	SessionChanged(*Session)
}

// Manager owns the current session and serves its token to the API client.
type Manager struct {
	store     *Store
	current   *Session
	listeners []Listener
	now       func() time.Time
	log       *slog.Logger
	mx        sync.RWMutex
}

// NewManager returns a manager persisting through store. A nil store keeps
// every session in memory.
func NewManager(store *Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Manager{store: store, now: time.Now, log: log}
}

// SetClock overrides the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.now = now
}

// AddListener registers a session listener.
func (m *Manager) AddListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters a session listener.
func (m *Manager) RemoveListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for i, lis := range m.listeners {
		if lis == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Restore loads a persisted session. A missing or lapsed one is not an error.
func (m *Manager) Restore() error {
	if m.store == nil {
		return nil
	}
	sess, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.Expired(m.clock()) {
		m.log.Info("stored session expired", slog.Time("expires_at", sess.ExpiresAt))
		return m.store.Clear()
	}

	m.mx.Lock()
	m.current = sess
	m.mx.Unlock()
	m.fire(sess)

	return nil
}

// Token returns the current bearer token or "" when signed out. A lapsed
// session is ended on access.
func (m *Manager) Token() string {
	sess := m.Current()
	if sess == nil {
		return ""
	}

	return sess.Token
}

// Current returns the live session or nil.
func (m *Manager) Current() *Session {
	m.mx.RLock()
	sess, now := m.current, m.now()
	m.mx.RUnlock()
	if sess == nil {
		return nil
	}
	if sess.Expired(now) {
		m.End()
		return nil
	}

	return sess
}

// Begin installs a session for token under policy p.
func (m *Manager) Begin(token string, u User, p Policy) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims, _ := ParseClaims(token)
	sess := Session{
		Token:     token,
		User:      userFromClaims(u, claims),
		Claims:    claims,
		ExpiresAt: earliest(p.expiry(m.clock()), claimExpiry(claims)),
		Persisted: p.Persist && m.store != nil,
	}
	if sess.Persisted {
		if err := m.store.Save(&sess); err != nil {
			return nil, err
		}
	} else if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.log.Warn("clear stored session", slog.String("error", err.Error()))
		}
	}

	m.mx.Lock()
	m.current = &sess
	m.mx.Unlock()
	m.fire(&sess)
	m.log.Info("session started",
		slog.String("user", sess.User.Email),
		slog.Bool("persisted", sess.Persisted),
	)

	return &sess, nil
}

// Login signs in through api and starts a session.
func (m *Manager) Login(ctx context.Context, api Poster, email, password string, p Policy) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentials
	}
	resp, err := api.Post(ctx, LoginPath,
		map[string]any{"email": email, "password": password},
		client.WithSuccessMessage(MsgSignedIn),
	)
	if err != nil {
		return nil, err
	}
	tok, u := parseLogin(resp.Data)
	if tok == "" {
		return nil, ErrNoToken
	}
	if u.Email == "" {
		u.Email = email
	}

	return m.Begin(tok, u, p)
}

// Logout notifies the server and ends the session. The server call is best
// effort; the local session is always ended.
func (m *Manager) Logout(ctx context.Context, api Poster) {
	if m.Token() != "" && api != nil {
		if _, err := api.Post(ctx, LogoutPath, nil, client.WithToast(false), client.WithLoading(false)); err != nil {
			m.log.WarnContext(ctx, "logout call failed", slog.String("error", err.Error()))
		}
	}
	m.End()
}

// End drops the session in memory and on disk. It doubles as the client's
// session invalidator.
func (m *Manager) End() {
	m.mx.Lock()
	had := m.current != nil
	m.current = nil
	m.mx.Unlock()

	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			m.log.Warn("clear stored session", slog.String("error", err.Error()))
		}
	}
	if had {
		m.log.Info("session ended")
		m.fire(nil)
	}
}

func (m *Manager) clock() time.Time {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.now()
}

func (m *Manager) fire(sess *Session) {
	m.mx.RLock()
	ll := append([]Listener(nil), m.listeners...)
	m.mx.RUnlock()

	for _, l := range ll {
		l.SessionChanged(sess)
	}
}

// parseLogin digs the token and user out of the shapes auth servers reply with.
func parseLogin(data any) (string, User) {
	root, _ := data.(map[string]any)
	if root == nil {
		return "", User{}
	}
	nested, _ := root["data"].(map[string]any)

	var tok string
	for _, src := range []map[string]any{root, nested} {
		if tok = str(src, "token", "accessToken"); tok != "" {
			break
		}
	}

	var raw map[string]any
	if u, ok := root["user"].(map[string]any); ok {
		raw = u
	} else if nested != nil {
		raw, _ = nested["user"].(map[string]any)
	}

	return tok, User{
		ID:    str(raw, "id", "_id"),
		Name:  str(raw, "name", "fullName"),
		Email: str(raw, "email"),
		Role:  str(raw, "role"),
	}
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}

	return ""
}
