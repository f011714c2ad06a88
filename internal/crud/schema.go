// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package crud

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/portalctl/portalctl/internal/grid"
)

// Kind is a form input kind.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindSelect   Kind = "select"
	KindTextarea Kind = "textarea"
	KindPassword Kind = "password"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Option is one choice of a select field.
type Option struct {
	Value any
	Label string
}

// Field describes one form input.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	// Prop is the record property the field maps to; defaults to Name.
	Prop    string
	Options []Option

	// CreateOnly limits Required to the create form.
	CreateOnly bool
	// MinLength applies to non-empty string values.
	MinLength int
	// Matches names a field this one must equal.
	Matches string
	// Transient fields are validated but never sent.
	Transient bool
}

// Key returns the record property of f.
func (f Field) Key() string {
	if f.Prop != "" {
		return f.Prop
	}
	return f.Name
}

// OptionLabel returns the label of the option holding v.
func (f Field) OptionLabel(v any) (string, bool) {
	for _, o := range f.Options {
		if sameValue(o.Value, v) {
			return o.Label, true
		}
	}

	return "", false
}

// Values holds form input keyed by field name.
type Values map[string]any

// FieldErrors holds at most one message per field name.
type FieldErrors map[string]string

// Schema is an ordered field set driving the create and edit forms.
type Schema []Field

// Field looks a field up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Defaults returns blank create values. Selects start on their first option.
func (s Schema) Defaults() Values {
	v := make(Values, len(s))
	for _, f := range s {
		if f.Kind == KindSelect && len(f.Options) > 0 {
			v[f.Name] = f.Options[0].Value
			continue
		}
		v[f.Name] = ""
	}

	return v
}

// FromRecord prefills edit values from row, reading each field's prop then
// its name. Absent values become "".
func (s Schema) FromRecord(row grid.Row) Values {
	v := make(Values, len(s))
	for _, f := range s {
		v[f.Name] = ""
		if f.Transient || f.Kind == KindPassword {
			continue
		}
		for _, k := range []string{f.Key(), f.Name} {
			if val, ok := row[k]; ok && !blank(val) {
				v[f.Name] = normalize(val)
				break
			}
		}
	}

	return v
}

// Validate checks v for the given mode.
func (s Schema) Validate(v Values, mode Mode) FieldErrors {
	errs := make(FieldErrors)
	for _, f := range s {
		if msg := s.check(f, v, mode); msg != "" {
			errs[f.Name] = msg
		}
	}

	return errs
}

func (s Schema) check(f Field, v Values, mode Mode) string {
	val := v[f.Name]
	if blank(val) {
		if f.Required && (!f.CreateOnly || mode == ModeCreate) {
			return f.Label + " is required"
		}
		if f.Matches != "" && !blank(v[f.Matches]) {
			return "Passwords do not match"
		}
		return ""
	}

	str, isStr := val.(string)
	switch f.Kind {
	case KindEmail:
		if isStr && !emailRx.MatchString(str) {
			return "Invalid email format"
		}
	case KindNumber:
		if _, ok := toFloat(val); !ok {
			return f.Label + " must be a number"
		}
	}
	if isStr && f.MinLength > 0 && len([]rune(str)) < f.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", f.Label, f.MinLength)
	}
	if f.Matches != "" && !sameValue(val, v[f.Matches]) {
		return "Passwords do not match"
	}

	return ""
}

// Payload maps v to the request body keyed by prop. Empty values are left
// out and numbers are sent as numbers.
func (s Schema) Payload(v Values) map[string]any {
	out := make(map[string]any, len(s))
	for _, f := range s {
		if f.Transient {
			continue
		}
		val, ok := v[f.Name]
		if !ok || val == nil {
			continue
		}
		if str, isStr := val.(string); isStr && str == "" {
			continue
		}
		if f.Kind == KindNumber {
			if n, ok := toFloat(val); ok {
				val = n
			}
		}
		out[f.Key()] = val
	}

	return out
}

// Project returns the schema props of row, used to diff edits.
func (s Schema) Project(row grid.Row) map[string]any {
	out := make(map[string]any, len(s))
	for _, f := range s {
		if f.Transient {
			continue
		}
		if val, ok := row[f.Key()]; ok && val != nil {
			out[f.Key()] = normalize(val)
		}
	}

	return out
}

// blank reports a missing value: nil or a whitespace-only string. Booleans
// and numbers are never blank.
func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func normalize(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func sameValue(a, b any) bool {
	return grid.Stringify(normalize(a)) == grid.Stringify(normalize(b))
}
