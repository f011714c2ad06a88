// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// File is one multipart upload part.
type File struct {
	Name   string
	Reader io.Reader
}

// UploadFile posts a single file as multipart form data under the "file"
// field unless WithFieldName says otherwise.
func (c *Client) UploadFile(ctx context.Context, path string, f File, opts ...Option) (*Response, error) {
	return c.upload(ctx, path, []File{f}, "file", opts)
}

// UploadFiles posts several files under the repeated "files" field unless
// WithFieldName says otherwise.
func (c *Client) UploadFiles(ctx context.Context, path string, ff []File, opts ...Option) (*Response, error) {
	return c.upload(ctx, path, ff, "files", opts)
}

func (c *Client) upload(ctx context.Context, path string, ff []File, field string, opts []Option) (*Response, error) {
	if len(ff) == 0 {
		return nil, ErrEmptyUpload
	}

	o := newOptions(http.MethodPost, c.timeout, append([]Option{WithSuccessMessage(MsgUploaded)}, opts...))
	if o.fieldName != "" {
		field = o.fieldName
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range ff {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("create form part %q: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("read upload %q: %w", f.Name, err)
		}
	}
	for _, k := range sortedKeys(o.formValues) {
		if err := w.WriteField(k, o.formValues[k]); err != nil {
			return nil, fmt.Errorf("write form field %q: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType(), o)
}
