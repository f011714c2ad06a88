package dao

import (
	"context"
	"fmt"
	"strings"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/logger"
)

// Fetch loads one record by id, serving from cache when fresh. opts apply
// to the GET, which is silent unless they turn notifications on.
func (r *Resource) Fetch(ctx context.Context, api grid.Getter, cache *RecordCache, id string, opts ...client.Option) (grid.Row, error) {
	path := r.ItemPath(id)
	if cache != nil {
		if row, ok := cache.Get(path); ok {
			return row, nil
		}
	}

	resp, err := api.Get(logger.WithResource(ctx, r.Name()), path, opts...)
	if err != nil {
		return nil, err
	}
	row, ok := record(resp.Data)
	if !ok {
		return nil, fmt.Errorf("resource %q: unexpected record shape %T", r.Name(), resp.Data)
	}
	if cache != nil {
		cache.Set(path, row)
	}

	return row, nil
}

// Forget drops the cached records of r.
func (r *Resource) Forget(cache *RecordCache) {
	if cache != nil {
		cache.InvalidatePrefix(r.itemPrefix())
	}
}

// itemPrefix is the part of the item path template ahead of the id.
func (r *Resource) itemPrefix() string {
	tpl := r.spec.ItemPath
	if tpl == "" {
		return strings.TrimSuffix(r.basePath(), "/")
	}
	if i := strings.Index(tpl, "{id}"); i >= 0 {
		tpl = tpl[:i]
	}

	return strings.TrimSuffix(tpl, "/")
}

// record unwraps {data: {...}} envelopes.
func record(v any) (grid.Row, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := m["data"].(map[string]any); ok {
		return grid.Row(inner), true
	}

	return grid.Row(m), true
}
