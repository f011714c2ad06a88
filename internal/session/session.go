// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package session keeps the signed-in operator's credentials. The token is
// handed to the API client on every call and torn down on sign-out or when
// the server reports the session as no longer valid.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDays is the lifetime of a remembered session.
const DefaultDays = 7

// Error is a sentinel session error.
type Error string

const (
	ErrNoSession   = Error("no active session")
	ErrNoToken     = Error("sign-in response carried no token")
	ErrCredentials = Error("email and password are required")
)

func (e Error) Error() string {
	return string(e)
}

// User summarizes the signed-in account.
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// Session is an authenticated session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
	Claims    jwt.MapClaims
	Persisted bool
}

// Expired reports whether the session lapsed at now. A zero expiry never lapses.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Policy selects how long a new session lives.
type Policy struct {
	// Persist keeps the session on disk; otherwise it lives for the process only.
	Persist bool
	// Days is the persisted lifetime; non-positive values mean DefaultDays.
	Days int
}

// Remember returns a persisted policy of the given lifetime.
func Remember(days int) Policy {
	return Policy{Persist: true, Days: days}
}

// Transient returns a process-only policy.
func Transient() Policy {
	return Policy{}
}

func (p Policy) expiry(now time.Time) time.Time {
	if !p.Persist {
		return time.Time{}
	}
	days := p.Days
	if days <= 0 {
		days = DefaultDays
	}

	return now.AddDate(0, 0, days)
}
