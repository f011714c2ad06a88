// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import "net/http"

// Success messages.
const (
	MsgCreated  = "Record created successfully"
	MsgUpdated  = "Record updated successfully"
	MsgDeleted  = "Record deleted successfully"
	MsgUploaded = "File uploaded successfully"
	MsgSuccess  = "Operation completed successfully"
)

// Error messages.
const (
	MsgGeneric        = "An error occurred. Please try again."
	MsgNetwork        = "Network error. Please check your connection."
	MsgTimeout        = "Request timeout. Please try again."
	MsgSessionExpired = "Your session has expired. Please login again."
)

// SessionExpiredPath is the signed-out entry point navigated to after a 401.
const SessionExpiredPath = "/?sessionExpired=true"

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad request. Please check your input.",
	http.StatusUnauthorized:        "Unauthorized. Please login again.",
	http.StatusForbidden:           "Access forbidden.",
	http.StatusNotFound:            "Resource not found.",
	http.StatusConflict:            "Conflict. The resource already exists.",
	http.StatusUnprocessableEntity: "Validation error. Please check your input.",
	http.StatusInternalServerError: "Server error. Please try again later.",
	http.StatusBadGateway:          "Bad gateway. Please try again later.",
	http.StatusServiceUnavailable:  "Service unavailable. Please try again later.",
}

// StatusMessage returns the fallback message for a failure status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return MsgGeneric
}

// successMessage picks the default notification for a successful mutation.
func successMessage(method string, status int) string {
	switch {
	case method == http.MethodPost || status == http.StatusCreated:
		return MsgCreated
	case method == http.MethodPut || method == http.MethodPatch:
		return MsgUpdated
	case method == http.MethodDelete || status == http.StatusNoContent:
		return MsgDeleted
	default:
		return MsgSuccess
	}
}

func notifiableStatus(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated || status == http.StatusNoContent
}

// failureMessage extracts the message and detail lines from an error body.
func failureMessage(status int, data any) (string, []string) {
	body, _ := data.(map[string]any)

	msg := stringField(body, "message")
	if msg == "" {
		msg = stringField(body, "error")
	}
	if msg == "" {
		msg = StatusMessage(status)
	}

	var details []string
	if raw, ok := body["errors"]; ok && raw != nil {
		details = detailLines(raw)
	} else if m := stringField(body, "message"); m != "" {
		details = []string{m}
	}
	if details == nil {
		details = []string{}
	}

	return msg, details
}

func unauthorizedMessage(data any) string {
	body, _ := data.(map[string]any)
	if msg := stringField(body, "message"); msg != "" {
		return msg
	}
	if msg := stringField(body, "error"); msg != "" {
		return msg
	}
	return MsgSessionExpired
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func detailLines(raw any) []string {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if m := stringField(it, "message"); m != "" {
					out = append(out, m)
				} else if m := stringField(it, "msg"); m != "" {
					out = append(out, m)
				}
			}
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			switch it := v[k].(type) {
			case string:
				out = append(out, k+": "+it)
			case []any:
				for _, line := range detailLines(it) {
					out = append(out, k+": "+line)
				}
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}
