// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package grid

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"
)

// Row is one record as decoded from the API.
type Row map[string]any

// Align is a column alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// FormatFn pre-formats a cell value.
type FormatFn func(value any, row Row) string

// RenderKind selects how a cell is presented.
type RenderKind interface {
	renderKind()
}

// Text renders the value as is.
type Text struct{}

// Image renders an image reference.
type Image struct {
	Alt string
}

// Link renders a hyperlink. A nil Href links to the raw value.
type Link struct {
	Target string
	Href   func(value any, row Row) string
}

// Button renders a clickable cell.
type Button struct {
	Label   string
	Class   string
	OnClick func(value any, row Row, index int)
}

// Badge renders a styled label. ClassFn wins over Class.
type Badge struct {
	Class   string
	ClassFn func(value any, row Row) string
}

// Icon decorates the text with a glyph, before it unless After is set.
type Icon struct {
	Glyph string
	After bool
}

func (Text) renderKind()   {}
func (Image) renderKind()  {}
func (Link) renderKind()   {}
func (Button) renderKind() {}
func (Badge) renderKind()  {}
func (Icon) renderKind()   {}

// Column describes one data column.
type Column struct {
	Title      string
	Key        string
	Sortable   bool
	Filterable bool
	Align      Align
	Render     RenderKind
	Format     FormatFn
}

// ActionColumn is the per-row actions column, rendered first.
type ActionColumn struct {
	Title  string
	Render func(row Row, index int) string
}

// CellKind tags a rendered cell.
type CellKind int

const (
	CellText CellKind = iota
	CellImage
	CellLink
	CellButton
	CellBadge
	CellIcon
)

// Cell is the renderer independent output for one column of one row.
type Cell struct {
	Text   string
	Kind   CellKind
	Align  Align
	Class  string
	Href   string
	Target string
	Action func()
}

// Header describes a column header.
type Header struct {
	Title    string
	Key      string
	Align    Align
	Sortable bool
	Sort     SortDir
	Action   bool
}

// Label returns the header title decorated with its sort indicator.
func (h Header) Label() string {
	if !h.Sortable {
		return h.Title
	}
	return h.Title + " " + h.Sort.Indicator()
}

// Cell produces the cell for row at index.
func (c Column) Cell(row Row, index int) Cell {
	value := row[c.Key]
	text := Stringify(value)
	if c.Format != nil {
		text = c.Format(value, row)
	}
	cell := Cell{Text: text, Align: c.Align}

	switch k := c.Render.(type) {
	case nil, Text:
	case Image:
		cell.Kind, cell.Href = CellImage, Stringify(value)
		switch {
		case k.Alt != "":
			cell.Text = k.Alt
		case cell.Href != "":
			cell.Text = path.Base(cell.Href)
		}
	case Link:
		cell.Kind, cell.Target, cell.Href = CellLink, k.Target, Stringify(value)
		if cell.Target == "" {
			cell.Target = "_self"
		}
		if k.Href != nil {
			cell.Href = k.Href(value, row)
		}
	case Button:
		cell.Kind, cell.Class = CellButton, k.Class
		if cell.Text == "" {
			cell.Text = k.Label
		}
		if k.OnClick != nil {
			cell.Action = func() { k.OnClick(value, row, index) }
		}
	case Badge:
		cell.Kind, cell.Class = CellBadge, k.Class
		if k.ClassFn != nil {
			cell.Class = k.ClassFn(value, row)
		}
	case Icon:
		cell.Kind = CellIcon
		if k.After {
			cell.Text = cell.Text + " " + k.Glyph
		} else {
			cell.Text = k.Glyph + " " + cell.Text
		}
	}

	return cell
}

// Stringify renders a decoded JSON value as display text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case []any, map[string]any:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	default:
		return fmt.Sprint(t)
	}
}
