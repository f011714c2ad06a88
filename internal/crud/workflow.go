// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

// Package crud drives the create, edit and delete flow shared by every
// management view. A Workflow owns the selected record and a refresh token
// the list grid watches to refetch in place.
package crud

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wI2L/jsondiff"

	"github.com/portalctl/portalctl/internal/client"
	"github.com/portalctl/portalctl/internal/grid"
	"github.com/portalctl/portalctl/internal/logger"
)

// Error is a sentinel workflow error.
type Error string

const (
	ErrNoSelection = Error("no record selected")
	ErrNoID        = Error("record has no identifier")
	ErrNotOpen     = Error("no form is open")
	ErrNoEndpoint  = Error("operation not supported by this resource")
)

func (e Error) Error() string {
	return string(e)
}

// Mode is the workflow state.
type Mode int

const (
	ModeNone Mode = iota
	ModeCreate
	ModeEdit
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeDelete:
		return "delete"
	default:
		return "none"
	}
}

// Mutator issues the write calls.
type Mutator interface {
	Post(ctx context.Context, path string, body any, opts ...client.Option) (*client.Response, error)
	Put(ctx context.Context, path string, body any, opts ...client.Option) (*client.Response, error)
	Delete(ctx context.Context, path string, opts ...client.Option) (*client.Response, error)
}

// Endpoints builds the paths of a resource. A nil builder disables the
// operation.
type Endpoints struct {
	List   string
	Create string
	Update func(id string) string
	Delete func(id string) string
}

// Listener observes workflow transitions.
type Listener interface {
	WorkflowChanged(Mode)
	Refreshed(token uint64)
}

// Options configure a Workflow.
type Options struct {
	Name string
	// IDKey is the record identifier property; defaults to "id".
	IDKey string
	// DisplayKeys name the record in the delete prompt, first non-empty wins.
	DisplayKeys []string
	// Noun qualifies the record in the delete prompt, e.g. "user".
	Noun   string
	Logger *slog.Logger
}

// Workflow is the create, edit and delete state machine of one resource.
type Workflow struct {
	api       Mutator
	schema    Schema
	ep        Endpoints
	opts      Options
	log       *slog.Logger
	mode      Mode
	selected  grid.Row
	token     uint64
	listeners []Listener
	mx        sync.RWMutex
}

// NewWorkflow returns an idle workflow.
func NewWorkflow(api Mutator, schema Schema, ep Endpoints, opts Options) *Workflow {
	if opts.IDKey == "" {
		opts.IDKey = "id"
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Workflow{api: api, schema: schema, ep: ep, opts: opts, log: log}
}

// Schema returns the form schema.
func (w *Workflow) Schema() Schema {
	w.mx.RLock()
	defer w.mx.RUnlock()
	return w.schema
}

// SetOptions replaces the choices of the select fields named in oo.
func (w *Workflow) SetOptions(oo map[string][]Option) {
	w.mx.Lock()
	defer w.mx.Unlock()

	s := make(Schema, len(w.schema))
	copy(s, w.schema)
	for i, f := range s {
		if opts, ok := oo[f.Name]; ok {
			s[i].Options = opts
		}
	}
	w.schema = s
}

// Endpoints returns the resource endpoints.
func (w *Workflow) Endpoints() Endpoints {
	return w.ep
}

// AddListener registers a workflow listener.
func (w *Workflow) AddListener(l Listener) {
	w.mx.Lock()
	defer w.mx.Unlock()
	w.listeners = append(w.listeners, l)
}

// RemoveListener unregisters a workflow listener.
func (w *Workflow) RemoveListener(l Listener) {
	w.mx.Lock()
	defer w.mx.Unlock()
	for i, lis := range w.listeners {
		if lis == l {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

// Mode returns the current state.
func (w *Workflow) Mode() Mode {
	w.mx.RLock()
	defer w.mx.RUnlock()
	return w.mode
}

// Selected returns the record under edit or deletion.
func (w *Workflow) Selected() grid.Row {
	w.mx.RLock()
	defer w.mx.RUnlock()
	return w.selected
}

// RefreshToken returns the current refresh token.
func (w *Workflow) RefreshToken() uint64 {
	w.mx.RLock()
	defer w.mx.RUnlock()
	return w.token
}

// CanCreate reports whether the resource accepts creates.
func (w *Workflow) CanCreate() bool { return w.ep.Create != "" }

// CanUpdate reports whether the resource accepts updates.
func (w *Workflow) CanUpdate() bool { return w.ep.Update != nil }

// CanDelete reports whether the resource accepts deletes.
func (w *Workflow) CanDelete() bool { return w.ep.Delete != nil }

// OpenCreate opens the create form and returns its defaults.
func (w *Workflow) OpenCreate() Values {
	w.transition(ModeCreate, nil)
	return w.Schema().Defaults()
}

// OpenEdit opens the edit form for row and returns the prefilled values.
func (w *Workflow) OpenEdit(row grid.Row) Values {
	w.transition(ModeEdit, row)
	return w.Schema().FromRecord(row)
}

// Submit validates v and saves it. Field errors come back without any
// call being made. The form stays open when the call fails.
func (w *Workflow) Submit(ctx context.Context, v Values) (FieldErrors, error) {
	w.mx.RLock()
	mode, row := w.mode, w.selected
	w.mx.RUnlock()

	if mode != ModeCreate && mode != ModeEdit {
		return nil, ErrNotOpen
	}
	if errs := w.Schema().Validate(v, mode); len(errs) > 0 {
		return errs, nil
	}

	ctx = logger.WithResource(ctx, w.opts.Name)
	payload := w.Schema().Payload(v)
	switch mode {
	case ModeCreate:
		if w.ep.Create == "" {
			return nil, ErrNoEndpoint
		}
		if _, err := w.api.Post(ctx, w.ep.Create, payload); err != nil {
			return nil, err
		}
	case ModeEdit:
		id, err := w.id(row)
		if err != nil {
			return nil, err
		}
		if w.ep.Update == nil {
			return nil, ErrNoEndpoint
		}
		w.logDiff(ctx, id, row, payload)
		if _, err := w.api.Put(ctx, w.ep.Update(id), payload); err != nil {
			return nil, err
		}
	}
	w.complete()

	return nil, nil
}

// RequestDelete selects row for deletion and returns the confirmation text.
func (w *Workflow) RequestDelete(row grid.Row) string {
	w.transition(ModeDelete, row)
	return w.DeleteMessage(row)
}

// DeleteMessage names row in the delete confirmation.
func (w *Workflow) DeleteMessage(row grid.Row) string {
	what := "delete"
	if w.opts.Noun != "" {
		what += " " + w.opts.Noun
	}

	return fmt.Sprintf("Are you sure you want to %s %q? This action cannot be undone.", what, w.DisplayName(row))
}

// DisplayName returns the human name of row.
func (w *Workflow) DisplayName(row grid.Row) string {
	for _, k := range w.opts.DisplayKeys {
		if s := grid.Stringify(row[k]); s != "" {
			return s
		}
	}

	return grid.Stringify(row[w.opts.IDKey])
}

// ConfirmDelete deletes the selected record.
func (w *Workflow) ConfirmDelete(ctx context.Context) error {
	w.mx.RLock()
	mode, row := w.mode, w.selected
	w.mx.RUnlock()

	if mode != ModeDelete || row == nil {
		return ErrNoSelection
	}
	if w.ep.Delete == nil {
		return ErrNoEndpoint
	}
	id, err := w.id(row)
	if err != nil {
		return err
	}
	ctx = logger.WithResource(ctx, w.opts.Name)
	if _, err := w.api.Delete(ctx, w.ep.Delete(id)); err != nil {
		return err
	}
	w.complete()

	return nil
}

// Cancel discards the selection without any call.
func (w *Workflow) Cancel() {
	w.transition(ModeNone, nil)
}

// Bump advances the refresh token and returns it.
func (w *Workflow) Bump() uint64 {
	w.mx.Lock()
	w.token++
	tok := w.token
	w.mx.Unlock()

	for _, l := range w.snapshot() {
		l.Refreshed(tok)
	}

	return tok
}

// ID returns the identifier of row.
func (w *Workflow) ID(row grid.Row) (string, error) {
	return w.id(row)
}

func (w *Workflow) id(row grid.Row) (string, error) {
	if row == nil {
		return "", ErrNoSelection
	}
	id := grid.Stringify(row[w.opts.IDKey])
	if id == "" {
		return "", ErrNoID
	}

	return id, nil
}

func (w *Workflow) complete() {
	w.transition(ModeNone, nil)
	w.Bump()
}

func (w *Workflow) transition(m Mode, row grid.Row) {
	w.mx.Lock()
	w.mode, w.selected = m, row
	w.mx.Unlock()

	for _, l := range w.snapshot() {
		l.WorkflowChanged(m)
	}
}

func (w *Workflow) snapshot() []Listener {
	w.mx.RLock()
	defer w.mx.RUnlock()
	return append([]Listener(nil), w.listeners...)
}

func (w *Workflow) logDiff(ctx context.Context, id string, row grid.Row, payload map[string]any) {
	patch, err := jsondiff.Compare(w.Schema().Project(row), payload)
	if err != nil {
		w.log.DebugContext(ctx, "record diff failed", slog.String("error", err.Error()))
		return
	}
	w.log.InfoContext(ctx, "updating record",
		slog.String("id", id),
		slog.Int("changes", len(patch)),
		slog.String("patch", patch.String()),
	)
}
