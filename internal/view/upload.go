// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"context"
	"log/slog"
	"strings"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/logger"
	"github.com/portalctl/portalctl/internal/source"
)

// UploadKind selects the upload endpoint.
type UploadKind string

const (
	// UploadAuto picks single or multiple from the file count.
	UploadAuto     UploadKind = ""
	UploadSingle   UploadKind = "single"
	UploadAvatar   UploadKind = "avatar"
	UploadDocument UploadKind = "document"
)

// Upload endpoints.
const (
	UploadSinglePath   = "/upload/single"
	UploadMultiplePath = "/upload/multiple"
	UploadAvatarPath   = "/upload/avatar"
	UploadDocumentPath = "/upload/document"
)

func parseUploadKind(s string) (UploadKind, bool) {
	switch k := UploadKind(strings.ToLower(s)); k {
	case UploadSingle, UploadAvatar, UploadDocument:
		return k, true
	default:
		return UploadAuto, false
	}
}

// UploadPath returns the endpoint receiving n files of kind.
func UploadPath(kind UploadKind, n int) string {
	switch kind {
	case UploadAvatar:
		return UploadAvatarPath
	case UploadDocument:
		return UploadDocumentPath
	case UploadSingle:
		return UploadSinglePath
	}
	if n > 1 {
		return UploadMultiplePath
	}

	return UploadSinglePath
}

// Uploader sends files through the request orchestrator.
type Uploader interface {
	UploadFile(ctx context.Context, path string, f client.File, opts ...client.Option) (*client.Response, error)
	UploadFiles(ctx context.Context, path string, ff []client.File, opts ...client.Option) (*client.Response, error)
}

// Upload opens refs and posts them to the endpoint of kind. It returns the
// uploaded file URLs the API reports.
func Upload(ctx context.Context, api Uploader, opener *source.Opener, kind UploadKind, refs []string) ([]string, error) {
	items, err := opener.OpenAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	defer source.CloseAll(items)

	ctx = logger.WithResource(ctx, "upload")
	files := source.Files(items)
	path := UploadPath(kind, len(files))

	var resp *client.Response
	if path == UploadMultiplePath {
		resp, err = api.UploadFiles(ctx, path, files)
	} else {
		resp, err = api.UploadFile(ctx, path, files[0])
	}
	if err != nil {
		return nil, err
	}

	return uploadedURLs(resp.Data), nil
}

func (a *App) upload(kind UploadKind, refs []string) {
	opener := a.deps.Opener
	if opener == nil {
		opener = source.New(source.AWSConfig{})
	}

	urls, err := Upload(a.Context(), a.deps.Client, opener, kind, refs)
	if err != nil {
		a.reportErr(err)
		return
	}
	a.log.Info("uploaded", slog.Int("files", len(refs)), slog.Any("urls", urls))
	if len(urls) > 0 {
		a.flash.Infof("Uploaded: %s", strings.Join(urls, ", "))
	}
}

// uploadedURLs reads url or files[].url from the upload reply, unwrapping a
// data envelope.
func uploadedURLs(body any) []string {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := m["data"].(map[string]any); ok {
		m = inner
	}
	if u, ok := m["url"].(string); ok && u != "" {
		return []string{u}
	}

	var out []string
	ff, _ := m["files"].([]any)
	for _, f := range ff {
		if fm, ok := f.(map[string]any); ok {
			if u, ok := fm["url"].(string); ok && u != "" {
				out = append(out, u)
			}
		}
	}

	return out
}
