// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package config

import (
	"github.com/portalctl/portalctl/internal/config/data"
)

// DefaultLogLevel is the default logging level.
const DefaultLogLevel = "info"

// NewFlags allocates every flag. Zero values leave the configuration as is.
func NewFlags() *data.Flags {
	return &data.Flags{
		BaseURL:    new(string),
		Timeout:    new(string),
		LogLevel:   new(string),
		LogFile:    new(string),
		Headless:   new(bool),
		Command:    new(string),
		ReadOnly:   new(bool),
		Write:      new(bool),
		Remember:   new(bool),
		AWSProfile: new(string),
		AWSRegion:  new(string),
	}
}

// IsBoolSet returns true if a bool pointer is non-nil and true.
func IsBoolSet(b *bool) bool {
	return b != nil && *b
}

// IsStringSet returns true if a string pointer is non-nil and non-empty.
func IsStringSet(s *string) bool {
	return s != nil && *s != ""
}
