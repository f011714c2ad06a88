// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import (
	"net/http"
	"sort"
	"time"

	"github.com/fvbommel/sortorder"
)

// Option customizes a single call.
type Option func(*options)

type options struct {
	showLoading    bool
	showToast      bool
	successToast   bool
	timeout        time.Duration
	headers        http.Header
	successMessage string
	fieldName      string
	formValues     map[string]string
}

func newOptions(method string, timeout time.Duration, opts []Option) *options {
	o := options{
		showLoading:  true,
		showToast:    method != http.MethodGet,
		successToast: method != http.MethodGet,
		timeout:      timeout,
		headers:      make(http.Header),
		formValues:   make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &o
}

// WithLoading toggles the global loading indicator for the call.
func WithLoading(b bool) Option {
	return func(o *options) {
		o.showLoading = b
	}
}

// WithToast toggles notifications for the call. Unauthorized responses
// are always notified regardless.
func WithToast(b bool) Option {
	return func(o *options) {
		o.showToast = b
	}
}

// WithTimeout overrides the configured per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHeader adds a request header.
func WithHeader(k, v string) Option {
	return func(o *options) {
		o.headers.Add(k, v)
	}
}

// WithSuccessMessage replaces the default success notification.
func WithSuccessMessage(msg string) Option {
	return func(o *options) {
		o.successMessage = msg
	}
}

// WithFieldName sets the multipart field carrying uploaded files.
func WithFieldName(name string) Option {
	return func(o *options) {
		o.fieldName = name
	}
}

// WithFormValue appends an extra multipart field to an upload.
func WithFormValue(k, v string) Option {
	return func(o *options) {
		o.formValues[k] = v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	kk := make([]string, 0, len(m))
	for k := range m {
		kk = append(kk, k)
	}
	sort.Sort(sortorder.Natural(kk))

	return kk
}
