// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package data

import (
	"fmt"
	"strings"
)

// ResourceFile is the layout of resources.yaml.
type ResourceFile struct {
	Resources []ResourceSpec `yaml:"resources"`
}

// ResourceSpec declares one managed resource.
type ResourceSpec struct {
	Name    string   `yaml:"name"`
	Title   string   `yaml:"title,omitempty"`
	Noun    string   `yaml:"noun,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`

	// Path is the list endpoint. CreatePath defaults to Path and ItemPath,
	// holding an {id} placeholder, defaults to Path/{id}.
	Path       string `yaml:"path"`
	CreatePath string `yaml:"createPath,omitempty"`
	ItemPath   string `yaml:"itemPath,omitempty"`
	// ListMethod is get (query string) or post (JSON paging body).
	ListMethod string `yaml:"listMethod,omitempty"`

	IDKey       string   `yaml:"idKey,omitempty"`
	DisplayKeys []string `yaml:"displayKeys,omitempty"`
	ReadOnly    bool     `yaml:"readOnly,omitempty"`
	PageSize    int      `yaml:"pageSize,omitempty"`
	NoSearch    bool     `yaml:"noSearch,omitempty"`

	Columns  []ColumnSpec  `yaml:"columns"`
	Fields   []FieldSpec   `yaml:"fields,omitempty"`
	RowClass *RowClassSpec `yaml:"rowClass,omitempty"`
	Stats    []StatSpec    `yaml:"stats,omitempty"`
}

// Validate checks the mandatory parts of r.
func (r ResourceSpec) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("resource has no name")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("resource %q: path %q must start with /", r.Name, r.Path)
	}
	if len(r.Columns) == 0 {
		return fmt.Errorf("resource %q declares no columns", r.Name)
	}
	if r.ItemPath != "" && !strings.Contains(r.ItemPath, "{id}") {
		return fmt.Errorf("resource %q: itemPath %q lacks {id}", r.Name, r.ItemPath)
	}
	switch strings.ToLower(r.ListMethod) {
	case "", "get", "post":
	default:
		return fmt.Errorf("resource %q: unsupported listMethod %q", r.Name, r.ListMethod)
	}
	for i, c := range r.Columns {
		if c.Key == "" {
			return fmt.Errorf("resource %q: column %d has no key", r.Name, i)
		}
	}
	for i, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("resource %q: field %d has no name", r.Name, i)
		}
		if src := f.OptionsFrom; src != nil {
			if !strings.HasPrefix(src.Path, "/") {
				return fmt.Errorf("resource %q: field %q options path %q must start with /", r.Name, f.Name, src.Path)
			}
			if src.Label == "" {
				return fmt.Errorf("resource %q: field %q options need a label key", r.Name, f.Name)
			}
		}
	}

	return nil
}

// ColumnSpec declares a grid column.
type ColumnSpec struct {
	Title      string `yaml:"title"`
	Key        string `yaml:"key"`
	Sortable   bool   `yaml:"sortable,omitempty"`
	Filterable bool   `yaml:"filterable,omitempty"`
	Align      string `yaml:"align,omitempty"`

	// Kind is one of text, image, link, button, badge, icon.
	Kind string `yaml:"kind,omitempty"`
	// Format is one of upper, lower, date, datetime, active, yesno.
	Format string `yaml:"format,omitempty"`

	// Href is a link template; {value} expands to the cell value.
	Href   string `yaml:"href,omitempty"`
	Target string `yaml:"target,omitempty"`
	Alt    string `yaml:"alt,omitempty"`
	Label  string `yaml:"label,omitempty"`
	Glyph  string `yaml:"glyph,omitempty"`
	After  bool   `yaml:"after,omitempty"`

	// Classes maps lowercased values to badge classes, Class is the fallback.
	Classes map[string]string `yaml:"classes,omitempty"`
	Class   string            `yaml:"class,omitempty"`
}

// FieldSpec declares a form field.
type FieldSpec struct {
	Name       string       `yaml:"name"`
	Label      string       `yaml:"label,omitempty"`
	Kind       string       `yaml:"kind,omitempty"`
	Prop       string       `yaml:"prop,omitempty"`
	Required   bool         `yaml:"required,omitempty"`
	CreateOnly bool         `yaml:"createOnly,omitempty"`
	MinLength  int          `yaml:"minLength,omitempty"`
	Matches    string       `yaml:"matches,omitempty"`
	Transient  bool         `yaml:"transient,omitempty"`
	Options    []OptionSpec `yaml:"options,omitempty"`

	// OptionsFrom loads the choices of a select from another list when
	// the form opens. Static Options are replaced once it answers.
	OptionsFrom *OptionSourceSpec `yaml:"optionsFrom,omitempty"`
}

// OptionSourceSpec points a select at a list endpoint. Each row becomes
// one choice valued by Value (id by default) and labelled "Label (Detail)".
type OptionSourceSpec struct {
	Path   string `yaml:"path"`
	Method string `yaml:"method,omitempty"`
	Value  string `yaml:"value,omitempty"`
	Label  string `yaml:"label"`
	Detail string `yaml:"detail,omitempty"`
}

// OptionSpec is one select choice. Value keeps its YAML type.
type OptionSpec struct {
	Value any    `yaml:"value"`
	Label string `yaml:"label"`
}

// RowClassSpec styles whole rows from one property.
type RowClassSpec struct {
	Key     string            `yaml:"key"`
	Classes map[string]string `yaml:"classes"`
}

// StatSpec counts the loaded rows whose Key equals Value. An empty Key
// counts every row.
type StatSpec struct {
	Label string `yaml:"label"`
	Key   string `yaml:"key,omitempty"`
	Value string `yaml:"value,omitempty"`
	Class string `yaml:"class,omitempty"`
}
