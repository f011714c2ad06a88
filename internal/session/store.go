// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

const (
	sectionSession = "session"
	sectionUser    = "user"
)

// Store persists a session as an ini file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session. It returns ErrNoSession when nothing
// is stored.
func (s *Store) Load() (*Session, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	cfg, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", s.path, err)
	}

	sec := cfg.Section(sectionSession)
	tok := sec.Key("token").String()
	if tok == "" {
		return nil, ErrNoSession
	}
	sess := Session{Token: tok, Persisted: true}
	if raw := sec.Key("expires_at").String(); raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parse session expiry %q: %w", raw, err)
		}
		sess.ExpiresAt = exp
	}
	usr := cfg.Section(sectionUser)
	sess.User = User{
		ID:    usr.Key("id").String(),
		Name:  usr.Key("name").String(),
		Email: usr.Key("email").String(),
		Role:  usr.Key("role").String(),
	}
	sess.Claims, _ = ParseClaims(tok)

	return &sess, nil
}

// Save writes sess, replacing whatever was stored.
func (s *Store) Save(sess *Session) error {
	cfg := ini.Empty()
	sec := cfg.Section(sectionSession)
	sec.Key("token").SetValue(sess.Token)
	if !sess.ExpiresAt.IsZero() {
		sec.Key("expires_at").SetValue(sess.ExpiresAt.UTC().Format(time.RFC3339))
	}
	usr := cfg.Section(sectionUser)
	usr.Key("id").SetValue(sess.User.ID)
	usr.Key("name").SetValue(sess.User.Name)
	usr.Key("email").SetValue(sess.User.Email)
	usr.Key("role").SetValue(sess.User.Role)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open session %q: %w", s.path, err)
	}
	defer f.Close()
	if _, err := cfg.WriteTo(f); err != nil {
		return fmt.Errorf("write session %q: %w", s.path, err)
	}

	return nil
}

// Clear removes the token, expiry and user summary together.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session %q: %w", s.path, err)
	}

	return nil
}
