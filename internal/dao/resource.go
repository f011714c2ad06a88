// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/render"
)

// Resource is a managed resource resolved from its spec.
type Resource struct {
	spec     data.ResourceSpec
	readOnly bool
}

// NewResource wraps spec. readOnly disables every mutation on top of the
// spec's own flag.
func NewResource(spec data.ResourceSpec, readOnly bool) *Resource {
	return &Resource{spec: spec, readOnly: readOnly || spec.ReadOnly}
}

// Spec returns the underlying spec.
func (r *Resource) Spec() data.ResourceSpec {
	return r.spec
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.spec.Name
}

// Title returns the display title.
func (r *Resource) Title() string {
	if r.spec.Title != "" || r.spec.Name == "" {
		return r.spec.Title
	}
	return strings.ToUpper(r.spec.Name[:1]) + r.spec.Name[1:]
}

// ReadOnly reports whether mutations are disabled.
func (r *Resource) ReadOnly() bool {
	return r.readOnly
}

// IDKey returns the identifier property.
func (r *Resource) IDKey() string {
	if r.spec.IDKey != "" {
		return r.spec.IDKey
	}
	return grid.DefaultRowKey
}

// ItemPath returns the path of the record id.
func (r *Resource) ItemPath(id string) string {
	tpl := r.spec.ItemPath
	if tpl == "" {
		tpl = strings.TrimSuffix(r.basePath(), "/") + "/{id}"
	}
	return strings.ReplaceAll(tpl, "{id}", url.PathEscape(id))
}

// Endpoints returns the CRUD paths. A read-only resource gets none, and a
// resource without fields cannot be created or edited.
func (r *Resource) Endpoints() crud.Endpoints {
	ep := crud.Endpoints{List: r.spec.Path}
	if r.readOnly {
		return ep
	}
	if len(r.spec.Fields) > 0 {
		ep.Create = r.spec.CreatePath
		if ep.Create == "" {
			ep.Create = r.basePath()
		}
		ep.Update = r.ItemPath
	}
	ep.Delete = r.ItemPath

	return ep
}

// Schema converts the field specs.
func (r *Resource) Schema() (crud.Schema, error) {
	s := make(crud.Schema, 0, len(r.spec.Fields))
	for _, f := range r.spec.Fields {
		kind, err := fieldKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("resource %q field %q: %w", r.spec.Name, f.Name, err)
		}
		field := crud.Field{
			Name:       f.Name,
			Label:      f.Label,
			Kind:       kind,
			Required:   f.Required,
			Prop:       f.Prop,
			CreateOnly: f.CreateOnly,
			MinLength:  f.MinLength,
			Matches:    f.Matches,
			Transient:  f.Transient,
		}
		if field.Label == "" {
			field.Label = f.Name
		}
		for _, o := range f.Options {
			field.Options = append(field.Options, crud.Option{Value: o.Value, Label: o.Label})
		}
		s = append(s, field)
	}

	return s, nil
}

// Columns converts the column specs.
func (r *Resource) Columns(click render.ButtonFunc) ([]grid.Column, error) {
	cc, err := render.Columns(r.spec.Columns, nil, click)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.spec.Name, err)
	}
	return cc, nil
}

// Lister returns the page fetcher for the grid, wrapping api when the
// resource lists through a POST body.
func (r *Resource) Lister(api API) grid.Getter {
	if strings.EqualFold(r.spec.ListMethod, "post") {
		return &postLister{api: api}
	}
	return api
}

// GridOptions assembles the grid settings around cols.
func (r *Resource) GridOptions(cols []grid.Column, pageSize int) grid.Options {
	if r.spec.PageSize > 0 {
		pageSize = r.spec.PageSize
	}
	filters := false
	for _, c := range cols {
		filters = filters || c.Filterable
	}

	return grid.Options{
		Name:           r.spec.Name,
		Columns:        cols,
		Source:         grid.Path(r.spec.Path),
		RowKey:         r.IDKey(),
		PageSize:       pageSize,
		ShowPagination: true,
		ShowSearch:     !r.spec.NoSearch,
		ShowFilters:    filters,
		RowClassFn:     render.RowClassFn(r.spec.RowClass),
	}
}

// WorkflowOptions assembles the CRUD settings.
func (r *Resource) WorkflowOptions(log *slog.Logger) crud.Options {
	return crud.Options{
		Name:        r.spec.Name,
		IDKey:       r.IDKey(),
		DisplayKeys: r.spec.DisplayKeys,
		Noun:        r.spec.Noun,
		Logger:      log,
	}
}

func (r *Resource) basePath() string {
	if r.spec.CreatePath != "" {
		return r.spec.CreatePath
	}
	p := r.spec.Path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func fieldKind(s string) (crud.Kind, error) {
	switch k := crud.Kind(strings.ToLower(s)); k {
	case "":
		return crud.KindText, nil
	case crud.KindText, crud.KindEmail, crud.KindNumber, crud.KindSelect, crud.KindTextarea, crud.KindPassword:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}
