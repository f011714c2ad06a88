package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ParseClaims decodes the claims of a JWT without verifying its signature.
// Verification is the server's job; opaque tokens yield no claims.
func ParseClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}

	return claims, true
}

func claimExpiry(claims jwt.MapClaims) time.Time {
	if claims == nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}

	return exp.Time
}

// userFromClaims fills the blanks of u from common claim names.
func userFromClaims(u User, claims jwt.MapClaims) User {
	if claims == nil {
		return u
	}
	if u.ID == "" {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			u.ID = sub
		} else {
			u.ID = claimString(claims, "id", "userId")
		}
	}
	if u.Name == "" {
		u.Name = claimString(claims, "name")
	}
	if u.Email == "" {
		u.Email = claimString(claims, "email")
	}
	if u.Role == "" {
		u.Role = claimString(claims, "role")
	}

	return u
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}

	return ""
}

// earliest returns the earliest non-zero time.
func earliest(tt ...time.Time) time.Time {
	var out time.Time
	for _, t := range tt {
		if t.IsZero() {
			continue
		}
		if out.IsZero() || t.Before(out) {
			out = t
		}
	}

	return out
}
