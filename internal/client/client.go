// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portalctl/portalctl/internal/logger"
)

// Defaults applied when Config leaves a field blank.
const (
	DefaultBaseURL       = "https://api.example.com/api/v1"
	DefaultTimeout       = 30 * time.Second
	DefaultRedirectDelay = 1500 * time.Millisecond
)

// TokenSource yields the current session token, empty when signed out.
type TokenSource interface {
	Token() string
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RedirectDelay time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Response is the outcome of a successful call.
type Response struct {
	Data   any
	Status int
	Header http.Header
	Raw    []byte
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(r.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(r.Raw, v)
}

// Client is the single choke point for every API call. It owns the loading
// counter, the notification sink, the session invalidation callback and the
// navigator used after an unauthorized response.
type Client struct {
	baseURL       string
	timeout       time.Duration
	redirectDelay time.Duration
	http          *http.Client
	tokens        TokenSource
	loading       *LoadingCounter
	log           *slog.Logger

	notify     Notifier
	invalidate func()
	navigate   func(string)
	mx         sync.RWMutex
}

// New returns a client for the given API.
func New(cfg Config, tokens TokenSource) *Client {
	c := Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		timeout:       cfg.Timeout,
		redirectDelay: cfg.RedirectDelay,
		http:          cfg.HTTPClient,
		tokens:        tokens,
		loading:       NewLoadingCounter(),
		log:           cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.redirectDelay <= 0 {
		c.redirectDelay = DefaultRedirectDelay
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}

	return &c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Loading returns the loading counter.
func (c *Client) Loading() *LoadingCounter {
	return c.loading
}

// SetNotifier registers the notification sink, replacing any previous one.
// A nil sink unregisters.
func (c *Client) SetNotifier(n Notifier) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.notify = n
}

// SetSessionInvalidator registers the callback fired on unauthorized responses.
func (c *Client) SetSessionInvalidator(fn func()) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.invalidate = fn
}

// SetNavigator registers the callback receiving the signed-out entry point.
func (c *Client) SetNavigator(fn func(path string)) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.navigate = fn
}

// Get fetches path. Success is never notified; failures only when WithToast(true).
func (c *Client) Get(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.send(ctx, http.MethodGet, path, nil, opts)
}

// Post creates a resource.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.send(ctx, http.MethodPost, path, body, opts)
}

// Put replaces a resource.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.send(ctx, http.MethodPut, path, body, opts)
}

// Patch updates a resource partially.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...Option) (*Response, error) {
	return c.send(ctx, http.MethodPatch, path, body, opts)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.send(ctx, http.MethodDelete, path, nil, opts)
}

func (c *Client) send(ctx context.Context, method, path string, body any, opts []Option) (*Response, error) {
	o := newOptions(method, c.timeout, opts)

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = raw
	}

	return c.do(ctx, method, path, payload, "application/json", o)
}

// do runs one call through the full pipeline.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, contentType string, o *options) (*Response, error) {
	if o.showLoading {
		c.loading.Inc()
		defer c.loading.Dec()
	}

	reqID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, reqID)
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	authed := c.decorate(req, o, contentType, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportFailure(ctx, callCtx, method, path, err, o)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportFailure(ctx, callCtx, method, path, err, o)
	}
	data := parseBody(resp.Header.Get("Content-Type"), raw)

	c.log.DebugContext(ctx, "api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusFailure(ctx, method, path, resp.StatusCode, data, o, authed)
	}

	if o.showToast && o.successToast && notifiableStatus(resp.StatusCode) {
		msg := o.successMessage
		if msg == "" {
			msg = successMessage(method, resp.StatusCode)
		}
		c.emit(Notification{Kind: KindSuccess, Message: msg})
	}

	return &Response{
		Data:   data,
		Status: resp.StatusCode,
		Header: resp.Header,
		Raw:    raw,
	}, nil
}

// decorate sets the call headers and reports whether a bearer token went
// out with it.
func (c *Client) decorate(req *http.Request, o *options, contentType, reqID string) bool {
	for k, vv := range o.headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	var authed bool
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authed = true
		}
	}
	req.Header.Set("X-Request-ID", reqID)

	return authed
}

// transportFailure classifies errors raised before a response was read.
func (c *Client) transportFailure(ctx, callCtx context.Context, method, path string, err error, o *options) error {
	if ctx.Err() != nil {
		// Caller cancelled or its own deadline passed.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return c.timeoutFailure(ctx, method, path, o)
		}
		return ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return c.timeoutFailure(ctx, method, path, o)
	}

	c.log.WarnContext(ctx, "api call failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	if o.showToast {
		c.emit(Notification{Kind: KindError, Message: MsgNetwork, Details: []string{}})
	}

	return &NetworkError{Message: MsgNetwork, Err: err}
}

func (c *Client) timeoutFailure(ctx context.Context, method, path string, o *options) error {
	c.log.WarnContext(ctx, "api call timed out",
		slog.String("method", method),
		slog.String("path", path),
		slog.Duration("timeout", o.timeout),
	)
	if o.showToast {
		c.emit(Notification{Kind: KindError, Message: MsgTimeout, Details: []string{}})
	}

	return &TimeoutError{Message: MsgTimeout}
}

// statusFailure reports a non 2xx answer. A 401 is always notified and
// always invalidates the session; the expired-session redirect only follows
// when a token was actually sent, so rejected credentials keep their message.
func (c *Client) statusFailure(ctx context.Context, method, path string, status int, data any, o *options, authed bool) error {
	msg, details := failureMessage(status, data)
	c.log.WarnContext(ctx, "api call rejected",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("message", msg),
	)

	httpErr := HTTPError{Status: status, Message: msg, Details: details, Data: data}
	if status == http.StatusUnauthorized {
		note := msg
		if authed {
			note = unauthorizedMessage(data)
		}
		c.emit(Notification{Kind: KindError, Message: note, Details: details})
		c.teardown(authed)
		return &UnauthorizedError{HTTPError: &httpErr}
	}
	if o.showToast {
		c.emit(Notification{Kind: KindError, Message: msg, Details: details})
	}

	return &httpErr
}

// teardown invalidates the session and, when redirect is set, schedules
// navigation to the signed-out entry point once the notification had time
// to show.
func (c *Client) teardown(redirect bool) {
	c.mx.RLock()
	invalidate, navigate, delay := c.invalidate, c.navigate, c.redirectDelay
	c.mx.RUnlock()

	if invalidate != nil {
		invalidate()
	}
	if redirect && navigate != nil {
		time.AfterFunc(delay, func() { navigate(SessionExpiredPath) })
	}
}

func (c *Client) emit(n Notification) {
	c.mx.RLock()
	notify := c.notify
	c.mx.RUnlock()

	if notify != nil {
		notify(n)
	}
}

// parseBody decodes JSON bodies structurally and keeps anything else as text.
func parseBody(contentType string, raw []byte) any {
	if !strings.Contains(contentType, "application/json") {
		return string(raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return string(raw)
	}

	return data
}
