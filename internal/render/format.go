// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/portalctl/portalctl/internal/grid"
)

// Clock returns the current time for relative formats.
type Clock func() time.Time

// Formatter resolves a format name to a cell formatter. An empty name
// yields nil, leaving the raw value.
func Formatter(name string, now Clock) (grid.FormatFn, error) {
	if now == nil {
		now = time.Now
	}

	switch strings.ToLower(name) {
	case "":
		return nil, nil
	case FormatUpper:
		return func(v any, _ grid.Row) string { return strings.ToUpper(grid.Stringify(v)) }, nil
	case FormatLower:
		return func(v any, _ grid.Row) string { return strings.ToLower(grid.Stringify(v)) }, nil
	case FormatTitle:
		return func(v any, _ grid.Row) string { return title(grid.Stringify(v)) }, nil
	case FormatDate:
		return timeFormat(DateLayout), nil
	case FormatDateTime:
		return timeFormat(DateTimeLayout), nil
	case FormatAge:
		return func(v any, _ grid.Row) string {
			t, ok := ParseTime(v)
			if !ok {
				return MissingValue
			}
			return ToAge(t, now())
		}, nil
	case FormatActive:
		return func(v any, _ grid.Row) string {
			if Truthy(v) {
				return "Active"
			}
			return "Inactive"
		}, nil
	case FormatYesNo:
		return func(v any, _ grid.Row) string {
			if Truthy(v) {
				return "Yes"
			}
			return "No"
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

func timeFormat(layout string) grid.FormatFn {
	return func(v any, _ grid.Row) string {
		t, ok := ParseTime(v)
		if !ok {
			return Missing(grid.Stringify(v))
		}
		return t.Format(layout)
	}
}

func title(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
