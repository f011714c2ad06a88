// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import (
	"errors"
	"net/http"
)

// Error is a sentinel client error.
type Error string

const (
	ErrNoBaseURL   = Error("no API base URL configured")
	ErrEmptyUpload = Error("no files to upload")
)

func (e Error) Error() string {
	return string(e)
}

// Status codes reported for failures that never reached the server.
const (
	StatusTimeout = http.StatusRequestTimeout
	StatusNetwork = 0
)

// HTTPError is returned when the server answered with a non-2xx status.
type HTTPError struct {
	Status  int
	Message string
	Details []string
	Data    any
}

func (e *HTTPError) Error() string {
	return e.Message
}

// UnauthorizedError is an HTTPError carrying the session-invalidating status.
type UnauthorizedError struct {
	*HTTPError
}

func (e *UnauthorizedError) Unwrap() error {
	return e.HTTPError
}

// TimeoutError reports a call that exceeded its deadline.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	return e.Message
}

// NetworkError reports a transport failure before any response arrived.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP-like status carried by err, 408 for timeouts,
// 0 for transport failures and -1 when err is not a client error.
func StatusOf(err error) int {
	var (
		httpErr *HTTPError
		tmErr   *TimeoutError
		netErr  *NetworkError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &tmErr):
		return StatusTimeout
	case errors.As(err, &netErr):
		return StatusNetwork
	default:
		return -1
	}
}

// MessageOf returns the human readable message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// DetailsOf returns the structured detail lines of an HTTP failure.
func DetailsOf(err error) []string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Details
	}
	return nil
}

// IsUnauthorized checks if err reports an invalidated session.
func IsUnauthorized(err error) bool {
	var uErr *UnauthorizedError
	return errors.As(err, &uErr)
}
