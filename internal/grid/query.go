// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package grid

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fvbommel/sortorder"
)

// SortDir is a column's position in the sort cycle.
type SortDir int

const (
	SortNone SortDir = iota
	SortAsc
	SortDesc
)

// String returns the wire value of d.
func (d SortDir) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

// Indicator returns the header glyph for d on a sortable column.
func (d SortDir) Indicator() string {
	switch d {
	case SortAsc:
		return "↑"
	case SortDesc:
		return "↓"
	default:
		return "⇅"
	}
}

// QueryState is the pagination, sort, search and filter tuple driving a
// list fetch.
type QueryState struct {
	PageNumber int
	PageSize   int
	SortField  string
	SortDir    SortDir
	Search     string
	Filters    map[string]string
}

// NewQuery returns the first page of an unsorted, unfiltered query.
func NewQuery(pageSize int) QueryState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return QueryState{PageNumber: 1, PageSize: pageSize, Filters: make(map[string]string)}
}

// Clone returns a deep copy.
func (q QueryState) Clone() QueryState {
	c := q
	c.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		c.Filters[k] = v
	}

	return c
}

// Sorted returns the direction applied to field.
func (q QueryState) Sorted(field string) SortDir {
	if q.SortField != field {
		return SortNone
	}
	return q.SortDir
}

// CycleSort advances field through unsorted, asc, desc and back. Picking a
// different field starts it at asc and drops the previous one. The page is
// kept.
func (q *QueryState) CycleSort(field string) {
	if q.SortField != field {
		q.SortField, q.SortDir = field, SortAsc
		return
	}
	switch q.SortDir {
	case SortAsc:
		q.SortDir = SortDesc
	case SortDesc:
		q.SortField, q.SortDir = "", SortNone
	default:
		q.SortDir = SortAsc
	}
}

// SetSearch sets the search term and rewinds to page 1.
func (q *QueryState) SetSearch(term string) bool {
	if q.Search == term && q.PageNumber == 1 {
		return false
	}
	q.Search, q.PageNumber = term, 1

	return true
}

// SetFilter sets a column filter and rewinds to page 1. An empty value
// clears the filter.
func (q *QueryState) SetFilter(field, value string) bool {
	if q.Filters == nil {
		q.Filters = make(map[string]string)
	}
	if q.Filters[field] == value && q.PageNumber == 1 {
		return false
	}
	if value == "" {
		delete(q.Filters, field)
	} else {
		q.Filters[field] = value
	}
	q.PageNumber = 1

	return true
}

// SetPageSize changes the page size and rewinds to page 1.
func (q *QueryState) SetPageSize(n int) bool {
	if n <= 0 || (q.PageSize == n && q.PageNumber == 1) {
		return false
	}
	q.PageSize, q.PageNumber = n, 1

	return true
}

// SetPage moves to page n.
func (q *QueryState) SetPage(n int) bool {
	if n < 1 || n == q.PageNumber {
		return false
	}
	q.PageNumber = n

	return true
}

// Values returns the list query parameters.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	for _, p := range q.params() {
		v.Add(p[0], p[1])
	}

	return v
}

// Encode serializes the query in a stable order: paging, sort, search,
// then filters in natural key order.
func (q QueryState) Encode() string {
	pp := q.params()
	parts := make([]string, 0, len(pp))
	for _, p := range pp {
		parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}

	return strings.Join(parts, "&")
}

func (q QueryState) params() [][2]string {
	pp := [][2]string{
		{"pageNumber", strconv.Itoa(q.PageNumber)},
		{"pageSize", strconv.Itoa(q.PageSize)},
	}
	if q.SortField != "" && q.SortDir != SortNone {
		pp = append(pp, [2]string{"sortBy", q.SortField}, [2]string{"sortOrder", q.SortDir.String()})
	}
	if q.Search != "" {
		pp = append(pp, [2]string{"search", q.Search})
	}

	kk := make([]string, 0, len(q.Filters))
	for k, v := range q.Filters {
		if v != "" {
			kk = append(kk, k)
		}
	}
	sort.Sort(sortorder.Natural(kk))
	for _, k := range kk {
		pp = append(pp, [2]string{"filter[" + k + "]", q.Filters[k]})
	}

	return pp
}
