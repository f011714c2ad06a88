// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package render

import (
	"fmt"
	"strings"

	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/grid"
)

// ButtonFunc binds the click handler of a button column.
type ButtonFunc func(spec data.ColumnSpec) func(value any, row grid.Row, index int)

// Columns converts specs into grid columns.
func Columns(specs []data.ColumnSpec, now Clock, click ButtonFunc) ([]grid.Column, error) {
	cc := make([]grid.Column, 0, len(specs))
	for _, s := range specs {
		c, err := Column(s, now, click)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", s.Key, err)
		}
		cc = append(cc, c)
	}

	return cc, nil
}

// Column converts one spec into a grid column.
func Column(s data.ColumnSpec, now Clock, click ButtonFunc) (grid.Column, error) {
	align, err := parseAlign(s.Align)
	if err != nil {
		return grid.Column{}, err
	}
	format, err := Formatter(s.Format, now)
	if err != nil {
		return grid.Column{}, err
	}

	c := grid.Column{
		Title:      s.Title,
		Key:        s.Key,
		Sortable:   s.Sortable,
		Filterable: s.Filterable,
		Align:      align,
		Format:     format,
	}
	if c.Title == "" {
		c.Title = title(s.Key)
	}

	switch strings.ToLower(s.Kind) {
	case "", KindText:
		c.Render = grid.Text{}
	case KindImage:
		c.Render = grid.Image{Alt: s.Alt}
	case KindLink:
		l := grid.Link{Target: s.Target}
		if s.Href != "" {
			tpl := s.Href
			l.Href = func(v any, row grid.Row) string { return Expand(tpl, v, row) }
		}
		c.Render = l
	case KindButton:
		b := grid.Button{Label: s.Label, Class: s.Class}
		if click != nil {
			b.OnClick = click(s)
		}
		c.Render = b
	case KindBadge:
		c.Render = grid.Badge{Class: s.Class, ClassFn: BadgeClass(s.Classes, s.Class)}
	case KindIcon:
		c.Render = grid.Icon{Glyph: s.Glyph, After: s.After}
	default:
		return grid.Column{}, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}

	return c, nil
}

// BadgeClass maps the lowercased cell value through classes, falling back
// to def. A nil map yields nil so the static class applies.
func BadgeClass(classes map[string]string, def string) func(any, grid.Row) string {
	if len(classes) == 0 {
		return nil
	}

	return func(v any, _ grid.Row) string {
		if c, ok := classes[strings.ToLower(grid.Stringify(v))]; ok {
			return c
		}
		return def
	}
}

// RowClassFn builds the row styling hook of a resource.
func RowClassFn(s *data.RowClassSpec) func(grid.Row, int) string {
	if s == nil || s.Key == "" {
		return nil
	}
	key, classes := s.Key, s.Classes

	return func(row grid.Row, _ int) string {
		return classes[strings.ToLower(grid.Stringify(row[key]))]
	}
}

func parseAlign(s string) (grid.Align, error) {
	switch a := grid.Align(strings.ToLower(s)); a {
	case "":
		return grid.AlignLeft, nil
	case grid.AlignLeft, grid.AlignCenter, grid.AlignRight:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlign, s)
	}
}
