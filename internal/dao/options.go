// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/grid"
)

// OptionPageSize is the page asked of every option source list.
const OptionPageSize = 1000

// Aggregator settles several calls at once.
type Aggregator interface {
	Multiple(ctx context.Context, reqs []client.Request, opts ...client.Option) (*client.MultiResult, error)
}

// HasOptionSources reports whether a select of r loads its choices remotely.
func (r *Resource) HasOptionSources() bool {
	for _, f := range r.spec.Fields {
		if f.OptionsFrom != nil {
			return true
		}
	}

	return false
}

// LoadOptions fetches the remote choices of every select in a single
// aggregate call. Fields whose list failed are absent from the result and
// counted in failed.
func (r *Resource) LoadOptions(ctx context.Context, api Aggregator) (oo map[string][]crud.Option, failed int, err error) {
	var (
		names []string
		srcs  []data.OptionSourceSpec
		reqs  []client.Request
	)
	for _, f := range r.spec.Fields {
		if f.OptionsFrom == nil {
			continue
		}
		names = append(names, f.Name)
		srcs = append(srcs, *f.OptionsFrom)
		reqs = append(reqs, optionRequest(*f.OptionsFrom))
	}
	if len(reqs) == 0 {
		return nil, 0, nil
	}

	res, err := api.Multiple(ctx, reqs, client.WithLoading(false), client.WithToast(false))
	if err != nil {
		return nil, 0, err
	}
	oo = make(map[string][]crud.Option, len(res.Successes))
	for _, o := range res.Successes {
		oo[names[o.Index]] = sourceOptions(srcs[o.Index], o.Response.Data)
	}

	return oo, len(res.Errors), nil
}

func optionRequest(src data.OptionSourceSpec) client.Request {
	if strings.EqualFold(src.Method, "post") {
		return client.Request{
			Method: http.MethodPost,
			Path:   src.Path,
			Body:   ListBody{PageNumber: 1, PageSize: OptionPageSize},
		}
	}
	q := url.Values{}
	q.Set("pageNumber", "1")
	q.Set("pageSize", strconv.Itoa(OptionPageSize))

	return client.Request{Method: http.MethodGet, Path: src.Path + "?" + q.Encode()}
}

func sourceOptions(src data.OptionSourceSpec, body any) []crud.Option {
	valueKey := src.Value
	if valueKey == "" {
		valueKey = "id"
	}
	rows := grid.Normalize(body).Rows
	oo := make([]crud.Option, 0, len(rows))
	for _, row := range rows {
		v, ok := row[valueKey]
		if !ok {
			continue
		}
		label := grid.Stringify(row[src.Label])
		if d := grid.Stringify(row[src.Detail]); src.Detail != "" && d != "" {
			label += " (" + d + ")"
		}
		if label == "" {
			label = grid.Stringify(v)
		}
		oo = append(oo, crud.Option{Value: v, Label: label})
	}

	return oo
}
