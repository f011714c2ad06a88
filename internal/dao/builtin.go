// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package dao

import (
	"github.com/portalctl/portalctl/internal/config/data"
)

// Built-in resource names.
const (
	Users       = "users"
	Products    = "products"
	Classes     = "classes"
	Sections    = "sections"
	SubSections = "subsections"
	Subjects    = "subjects"
	MasterData  = "masterdata"
	Mapping     = "mapping"
)

var activeOptions = []data.OptionSpec{
	{Value: true, Label: "Active"},
	{Value: false, Label: "Inactive"},
}

// Builtins returns the resources portalctl knows out of the box.
func Builtins() []data.ResourceSpec {
	return []data.ResourceSpec{
		usersSpec(),
		productsSpec(),
		catalogSpec(Classes, "Classes", "class", "/classes", "class", "Class", true),
		catalogSpec(Sections, "Sections", "section", "/sections", "section", "Section", false),
		catalogSpec(SubSections, "SubSections", "subsection", "/subsections", "subSection", "SubSection", false),
		catalogSpec(Subjects, "Subjects", "subject", "/subjects", "subject", "Subject", false),
		masterDataSpec(),
		mappingSpec(),
	}
}

func usersSpec() data.ResourceSpec {
	return data.ResourceSpec{
		Name:        Users,
		Title:       "User Management",
		Noun:        "user",
		Path:        "/users",
		CreatePath:  "/users/register",
		ItemPath:    "/users/{id}",
		DisplayKeys: []string{"name", "email"},
		PageSize:    25,
		Columns: []data.ColumnSpec{
			{Title: "ID", Key: "id", Sortable: true, Align: "center"},
			{Title: "Name", Key: "name", Sortable: true, Filterable: true, Kind: "icon", Glyph: "👤"},
			{Title: "Email", Key: "email", Sortable: true, Filterable: true, Kind: "link", Href: "mailto:{value}"},
			{
				Title: "Role", Key: "role", Sortable: true, Filterable: true, Align: "center",
				Kind: "badge", Format: "upper",
				Classes: map[string]string{"admin": "badge-error", "moderator": "badge-warning"},
				Class:   "badge-info",
			},
			{
				Title: "Status", Key: "status", Sortable: true, Filterable: true, Align: "center",
				Kind: "badge", Format: "upper",
				Classes: map[string]string{
					"active":    "badge-success",
					"inactive":  "badge-warning",
					"suspended": "badge-error",
				},
				Class: "badge-inactive",
			},
			{Title: "Phone", Key: "phone", Filterable: true},
			{Title: "Created", Key: "createdAt", Sortable: true, Format: "date"},
		},
		Fields: []data.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "email", Label: "Email", Kind: "email", Required: true},
			{Name: "role", Label: "Role", Kind: "select", Required: true, Options: []data.OptionSpec{
				{Value: "user", Label: "User"},
				{Value: "admin", Label: "Admin"},
				{Value: "moderator", Label: "Moderator"},
			}},
			{Name: "status", Label: "Status", Kind: "select", Options: []data.OptionSpec{
				{Value: "active", Label: "Active"},
				{Value: "inactive", Label: "Inactive"},
				{Value: "suspended", Label: "Suspended"},
			}},
			{Name: "phone", Label: "Phone"},
			{Name: "address", Label: "Address", Kind: "textarea"},
			{Name: "password", Label: "Password", Kind: "password", Required: true, CreateOnly: true, MinLength: 6},
			{Name: "confirmPassword", Label: "Confirm Password", Kind: "password", Matches: "password", Transient: true},
		},
		RowClass: &data.RowClassSpec{Key: "status", Classes: map[string]string{
			"active":    "row-success",
			"inactive":  "row-warning",
			"suspended": "row-error",
		}},
		Stats: []data.StatSpec{
			{Label: "Total"},
			{Label: "Active", Key: "status", Value: "active", Class: "badge-success"},
			{Label: "Inactive", Key: "status", Value: "inactive", Class: "badge-warning"},
			{Label: "Admins", Key: "role", Value: "admin", Class: "badge-info"},
		},
	}
}

func productsSpec() data.ResourceSpec {
	return data.ResourceSpec{
		Name:        Products,
		Title:       "Products",
		Noun:        "product",
		Path:        "/products",
		DisplayKeys: []string{"name"},
		Columns: []data.ColumnSpec{
			{Title: "ID", Key: "id", Sortable: true, Align: "center"},
			{Title: "Name", Key: "name", Sortable: true, Filterable: true},
			{Title: "Category", Key: "category", Sortable: true, Filterable: true, Align: "center"},
			{Title: "Price", Key: "price", Sortable: true, Align: "right"},
			{Title: "Created", Key: "createdAt", Sortable: true, Format: "date"},
		},
		Fields: []data.FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "category", Label: "Category"},
			{Name: "price", Label: "Price", Kind: "number"},
			{Name: "description", Label: "Description", Kind: "textarea"},
		},
	}
}

// catalogSpec declares the school catalog lists. They page through a POST
// body and share one field layout keyed by prefix.
func catalogSpec(name, title, noun, base, prefix, label string, shortName bool) data.ResourceSpec {
	spec := data.ResourceSpec{
		Name:        name,
		Title:       title,
		Noun:        noun,
		Path:        base + "/list",
		ListMethod:  "post",
		CreatePath:  base,
		DisplayKeys: []string{prefix + "Name", prefix + "Code"},
	}

	if !shortName {
		spec.Columns = append(spec.Columns, data.ColumnSpec{Title: "ID", Key: "id", Align: "center"})
	}
	spec.Columns = append(spec.Columns,
		data.ColumnSpec{Title: label + " Name", Key: prefix + "Name"},
		data.ColumnSpec{Title: label + " Code", Key: prefix + "Code", Align: "center"},
	)
	spec.Fields = []data.FieldSpec{
		{Name: prefix + "Name", Label: label + " Name", Required: true},
		{Name: prefix + "Code", Label: label + " Code", Required: true},
	}
	if shortName {
		spec.Columns = append(spec.Columns, data.ColumnSpec{Title: "Short Name", Key: prefix + "ShortName", Align: "center"})
		spec.Fields = append(spec.Fields, data.FieldSpec{Name: prefix + "ShortName", Label: label + " Short Name"})
	}
	spec.Columns = append(spec.Columns,
		data.ColumnSpec{Title: "Display Order", Key: "displayOrder", Align: "center"},
		data.ColumnSpec{
			Title: "Status", Key: "isActive", Align: "center", Kind: "badge", Format: "active",
			Classes: map[string]string{"true": "status-active", "1": "status-active"},
			Class:   "status-inactive",
		},
	)
	spec.Fields = append(spec.Fields,
		data.FieldSpec{Name: "displayOrder", Label: "Display Order", Kind: "number"},
		data.FieldSpec{Name: "isActive", Label: "Is Active", Kind: "select", Required: true, Options: activeOptions},
	)

	return spec
}

func masterDataSpec() data.ResourceSpec {
	return data.ResourceSpec{
		Name:        MasterData,
		Title:       "Master Data",
		Noun:        "entry",
		Path:        "/master-data/list",
		ListMethod:  "post",
		CreatePath:  "/master-data",
		DisplayKeys: []string{"name", "code"},
		Columns: []data.ColumnSpec{
			{Title: "Code", Key: "code", Align: "center"},
			{Title: "Name", Key: "name"},
			{Title: "Description", Key: "description"},
			{Title: "Category", Key: "category", Align: "center"},
			{Title: "Value", Key: "value", Align: "right"},
			{
				Title: "Status", Key: "status", Align: "center", Kind: "badge", Format: "title",
				Classes: map[string]string{"active": "status-active"},
				Class:   "status-inactive",
			},
		},
		Fields: []data.FieldSpec{
			{Name: "code", Label: "Code", Required: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "description", Label: "Description", Kind: "textarea"},
			{Name: "status", Label: "Status", Kind: "select", Required: true, Options: []data.OptionSpec{
				{Value: "active", Label: "Active"},
				{Value: "inactive", Label: "Inactive"},
			}},
			{Name: "category", Label: "Category"},
			{Name: "value", Label: "Value", Kind: "number"},
		},
	}
}

// mappingSpec ties a class, subject, section and subsection together. Its
// selects list the catalog entries.
func mappingSpec() data.ResourceSpec {
	return data.ResourceSpec{
		Name:        Mapping,
		Title:       "Mapping",
		Noun:        "mapping",
		Path:        "/mapping/list",
		ListMethod:  "post",
		CreatePath:  "/mapping",
		ItemPath:    "/mapping/{id}",
		DisplayKeys: []string{"className", "subjectName"},
		Columns: []data.ColumnSpec{
			{Title: "ID", Key: "id", Align: "center"},
			{Title: "Class", Key: "className"},
			{Title: "Subject", Key: "subjectName"},
			{Title: "Section", Key: "sectionName"},
			{Title: "SubSection", Key: "subSectionName"},
		},
		Fields: []data.FieldSpec{
			catalogSelect("classId", "Class", "/classes", "class"),
			catalogSelect("subjectId", "Subject", "/subjects", "subject"),
			catalogSelect("sectionId", "Section", "/sections", "section"),
			catalogSelect("subSectionId", "SubSection", "/subsections", "subSection"),
		},
	}
}

func catalogSelect(name, label, base, prefix string) data.FieldSpec {
	return data.FieldSpec{
		Name:     name,
		Label:    label,
		Kind:     "select",
		Required: true,
		OptionsFrom: &data.OptionSourceSpec{
			Path:   base + "/list",
			Method: "post",
			Label:  prefix + "Name",
			Detail: prefix + "Code",
		},
	}
}
