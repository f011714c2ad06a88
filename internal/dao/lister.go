// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/portalctl/portalctl/internal/client"
)

// postLister serves grid page requests to endpoints that take the paging
// state as a JSON body and answer with totalCount.
type postLister struct {
	api Poster
}

// ListBody is the paging body of POST list endpoints.
type ListBody struct {
	PageNumber int               `json:"pageNumber"`
	PageSize   int               `json:"pageSize"`
	SearchTerm string            `json:"searchTerm"`
	SortBy     string            `json:"sortBy,omitempty"`
	SortOrder  string            `json:"sortOrder,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Get turns the query string of rawURL into a ListBody and posts it.
func (l *postLister) Get(ctx context.Context, rawURL string, opts ...client.Option) (*client.Response, error) {
	path, query, _ := strings.Cut(rawURL, "?")
	body := listBody(query)

	resp, err := l.api.Post(ctx, path, body, opts...)
	if err != nil {
		return nil, err
	}
	resp.Data = withTotal(resp.Data)

	return resp, nil
}

func listBody(query string) ListBody {
	vals, _ := url.ParseQuery(query)
	b := ListBody{
		SearchTerm: vals.Get("search"),
		SortBy:     vals.Get("sortBy"),
		SortOrder:  vals.Get("sortOrder"),
	}
	b.PageNumber, _ = strconv.Atoi(vals.Get("pageNumber"))
	b.PageSize, _ = strconv.Atoi(vals.Get("pageSize"))
	for k, vv := range vals {
		if name, ok := strings.CutPrefix(k, "filter["); ok && strings.HasSuffix(name, "]") && len(vv) > 0 {
			if b.Filters == nil {
				b.Filters = make(map[string]string)
			}
			b.Filters[strings.TrimSuffix(name, "]")] = vv[0]
		}
	}

	return b
}

// withTotal exposes totalCount as total so page normalization finds it.
func withTotal(data any) any {
	m, ok := data.(map[string]any)
	if !ok {
		return data
	}
	if _, has := m["total"]; has {
		return data
	}
	tc, ok := m["totalCount"]
	if !ok {
		return data
	}
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["total"] = tc

	return out
}
