// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/derailed/tview"
	"github.com/wI2L/jsondiff"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/crud"
	"github.com/portalctl/portalctl/internal/dao"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/logger"
)

// Editor errors.
const (
	ErrEditorCancelled = Error("editor cancelled")
	ErrNoChanges       = Error("no changes detected")
)

const editRetryHeader = "// Fix the issue below and save, or save without changes to cancel.\n// ---\n\n"

// EditSession is one round trip of a record through $EDITOR.
type EditSession struct {
	Original map[string]any
	Prefix   string
	TempFile string
	ErrorMsg string
}

// NewEditSession returns a session over record.
func NewEditSession(record grid.Row) *EditSession {
	return &EditSession{Original: map[string]any(record)}
}

// StartEdit writes the record to a temp file, suspends app while the editor
// runs and returns the parsed result.
func (e *EditSession) StartEdit(app *tview.Application) (map[string]any, error) {
	if e.TempFile == "" {
		pattern := "portalctl-edit-*.json"
		if e.Prefix != "" {
			pattern = "portalctl-" + data.SanitizeFileName(e.Prefix) + "-*.json"
		}
		f, err := os.CreateTemp("", pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		e.TempFile = f.Name()
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(e.TempFile, e.content(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	code, err := e.spawnEditor(app)
	if err != nil {
		return nil, fmt.Errorf("editor failed: %w", err)
	}
	if code != 0 {
		return nil, ErrEditorCancelled
	}

	raw, err := os.ReadFile(e.TempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}

	return ParseEdited(raw)
}

// Cleanup removes the temporary file.
func (e *EditSession) Cleanup() {
	if e.TempFile != "" {
		_ = os.Remove(e.TempFile)
		e.TempFile = ""
	}
}

func (e *EditSession) content() []byte {
	var buf bytes.Buffer
	if e.ErrorMsg != "" {
		buf.WriteString("// ERROR: " + e.ErrorMsg + "\n")
		buf.WriteString(editRetryHeader)
	}
	out, _ := json.MarshalIndent(e.Original, "", "  ")
	buf.Write(out)
	buf.WriteString("\n")

	return buf.Bytes()
}

func (e *EditSession) spawnEditor(app *tview.Application) (int, error) {
	editor := getEditor()

	var code int
	suspended := app.Suspend(func() {
		cmd := exec.Command(editor, e.TempFile)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				code = 1
			}
		}
	})
	if !suspended {
		return 1, errors.New("failed to suspend application")
	}

	return code, nil
}

// ParseEdited strips the leading comment block and decodes the document.
func ParseEdited(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(stripErrorComment(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return doc, nil
}

// Diff returns the patch turning original into modified, or ErrNoChanges.
func Diff(original, modified map[string]any) (jsondiff.Patch, error) {
	patch, err := jsondiff.Compare(original, modified)
	if err != nil {
		return nil, fmt.Errorf("failed to compare documents: %w", err)
	}
	if len(patch) == 0 {
		return nil, ErrNoChanges
	}

	return patch, nil
}

// edit sends row through $EDITOR and saves the result with a PUT. wf, when
// set, is bumped so its list refetches.
func (a *App) edit(res *dao.Resource, wf *crud.Workflow, row grid.Row) {
	ep := res.Endpoints()
	if ep.Update == nil {
		a.flash.Err(crud.ErrNoEndpoint)
		return
	}
	id := grid.Stringify(row[res.IDKey()])
	if id == "" {
		a.flash.Err(crud.ErrNoID)
		return
	}

	go func() {
		err := a.editRecord(a.Context(), res, ep.Update(id), id, row)
		switch {
		case errors.Is(err, ErrNoChanges), errors.Is(err, ErrEditorCancelled):
			a.flash.Info(err.Error())
		case err != nil:
			a.reportErr(err)
		default:
			res.Forget(a.cache)
			if wf != nil {
				wf.Bump()
			}
		}
	}()
}

func (a *App) editRecord(ctx context.Context, res *dao.Resource, path, id string, row grid.Row) error {
	ctx = logger.WithResource(ctx, res.Name())
	rec, err := res.Fetch(ctx, a.deps.Client, a.cache, id)
	if err != nil {
		a.log.WarnContext(ctx, "edit falls back to the listed row", slog.String("error", err.Error()))
		rec = row
	}

	s := NewEditSession(rec)
	s.Prefix = res.Name() + "-" + id
	defer s.Cleanup()
	for {
		modified, err := s.StartEdit(a.Application)
		if err != nil {
			return err
		}
		patch, err := Diff(s.Original, modified)
		if err != nil {
			if errors.Is(err, ErrNoChanges) && s.ErrorMsg != "" {
				return ErrEditorCancelled
			}
			return err
		}
		a.log.DebugContext(ctx, "raw edit", slog.String("id", id), slog.String("patch", patch.String()))

		_, err = a.deps.Client.Put(ctx, path, modified)
		if err == nil {
			return nil
		}
		if client.StatusOf(err) < 400 || client.StatusOf(err) >= 500 {
			return err
		}
		s.ErrorMsg = client.MessageOf(err)
		s.Original = modified
	}
}

// getEditor returns $EDITOR, $VISUAL, vim or nano, in that order.
func getEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if _, err := exec.LookPath("vim"); err == nil {
		return "vim"
	}

	return "nano"
}

// stripErrorComment removes the comment block from the top of content.
func stripErrorComment(content []byte) []byte {
	lines := bytes.Split(content, []byte("\n"))
	start := 0
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if bytes.HasPrefix(trimmed, []byte("//")) {
			start = i + 1
			continue
		}
		break
	}
	if start > 0 && start < len(lines) {
		return bytes.Join(lines[start:], []byte("\n"))
	}

	return content
}
