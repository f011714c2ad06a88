// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package dao maps declarative resource specs onto the REST API.
package dao

import (
	"context"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/grid"
)

// Error is a sentinel dao error.
type Error string

const (
	ErrUnknownResource = Error("unknown resource")
	ErrReadOnly        = Error("portalctl is in read-only mode")
	ErrUnknownField    = Error("unknown field kind")
)

func (e Error) Error() string {
	return string(e)
}

// API is the slice of the request orchestrator the resources use.
type API interface {
	grid.Getter
	crud.Mutator
}

// Poster issues POST calls.
type Poster interface {
	Post(ctx context.Context, path string, body any, opts ...client.Option) (*client.Response, error)
}

// Bumper advances a refresh token once a mutation lands.
type Bumper interface {
	Bump() uint64
}
