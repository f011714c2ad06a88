// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package render turns declarative column specs into grid columns.
package render

const (
	// Format names accepted by ColumnSpec.Format.
	FormatUpper    = "upper"
	FormatLower    = "lower"
	FormatTitle    = "title"
	FormatDate     = "date"
	FormatDateTime = "datetime"
	FormatAge      = "age"
	FormatActive   = "active"
	FormatYesNo    = "yesno"

	// Kind names accepted by ColumnSpec.Kind.
	KindText   = "text"
	KindImage  = "image"
	KindLink   = "link"
	KindButton = "button"
	KindBadge  = "badge"
	KindIcon   = "icon"

	// Display values
	MissingValue = "-"
	UnknownValue = "<unknown>"

	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// Error is a sentinel render error.
type Error string

const (
	ErrUnknownKind   = Error("unknown column kind")
	ErrUnknownFormat = Error("unknown column format")
	ErrUnknownAlign  = Error("unknown column alignment")
)

func (e Error) Error() string {
	return string(e)
}
