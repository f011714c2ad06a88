// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package grid

import (
	"encoding/json"
	"strconv"
)

// Page is a normalized list response.
type Page struct {
	Rows  []Row
	Total int
}

type rowsExtractor func(body any) ([]Row, bool)

type totalExtractor func(body any) (int, bool)

// List envelopes accepted from the API, tried in order.
var (
	rowExtractors = []rowsExtractor{
		keyedRows("data"),
		keyedRows("items"),
		bareRows,
	}
	totalExtractors = []totalExtractor{
		keyedTotal("total"),
		keyedTotal("totalRecords"),
	}
)

// Normalize extracts rows and the total count from a list response body.
// The total falls back to the number of rows.
func Normalize(body any) Page {
	var p Page
	for _, ex := range rowExtractors {
		if rows, ok := ex(body); ok {
			p.Rows = rows
			break
		}
	}
	if p.Rows == nil {
		p.Rows = []Row{}
	}

	p.Total = len(p.Rows)
	for _, ex := range totalExtractors {
		if n, ok := ex(body); ok {
			p.Total = n
			break
		}
	}

	return p
}

func keyedRows(key string) rowsExtractor {
	return func(body any) ([]Row, bool) {
		m, ok := body.(map[string]any)
		if !ok {
			return nil, false
		}
		return toRows(m[key])
	}
}

func bareRows(body any) ([]Row, bool) {
	return toRows(body)
}

func toRows(v any) ([]Row, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			rows = append(rows, Row(m))
		}
	}

	return rows, true
}

// keyedTotal matches positive counts only; a zero total defers to the next
// candidate.
func keyedTotal(key string) totalExtractor {
	return func(body any) (int, bool) {
		m, ok := body.(map[string]any)
		if !ok {
			return 0, false
		}
		n, ok := toInt(m[key])
		return n, ok && n > 0
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		f, err := t.Float64()
		return int(f), err == nil
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}
