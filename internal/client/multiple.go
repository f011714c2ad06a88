// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package client

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// Request describes one call of an aggregate.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Outcome is the settled result of one aggregate call.
type Outcome struct {
	Index    int
	Response *Response
	Err      error
}

// MultiResult partitions the settled outcomes of an aggregate.
type MultiResult struct {
	Successes    []Outcome
	Errors       []Outcome
	AllSucceeded bool
	AllFailed    bool
}

// Multiple fires every request concurrently and waits for all of them to
// settle. Individual calls never notify; the aggregate emits a single
// notification unless WithToast(false) is given. An empty batch settles at
// once, silently, as succeeded.
func (c *Client) Multiple(ctx context.Context, reqs []Request, opts ...Option) (*MultiResult, error) {
	if len(reqs) == 0 {
		return &MultiResult{AllSucceeded: true}, nil
	}
	o := newOptions(http.MethodPost, c.timeout, opts)
	if o.showLoading {
		c.loading.Inc()
		defer c.loading.Dec()
	}

	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	for i, r := range reqs {
		g.Go(func() error {
			resp, err := c.single(ctx, r, o)
			outcomes[i] = Outcome{Index: i, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var res MultiResult
	for _, out := range outcomes {
		if out.Err != nil {
			res.Errors = append(res.Errors, out)
		} else {
			res.Successes = append(res.Successes, out)
		}
	}
	res.AllSucceeded = len(res.Errors) == 0
	res.AllFailed = len(res.Successes) == 0

	if o.showToast {
		switch {
		case len(res.Errors) > 0:
			details := make([]string, 0, len(res.Errors))
			for _, e := range res.Errors {
				msg := MessageOf(e.Err)
				if msg == "" {
					msg = MsgGeneric
				}
				details = append(details, msg)
			}
			c.emit(Notification{
				Kind:    KindError,
				Message: fmt.Sprintf("Failed to complete %d request(s)", len(res.Errors)),
				Details: details,
			})
		case len(res.Successes) > 0:
			c.emit(Notification{Kind: KindSuccess, Message: MsgSuccess})
		}
	}

	return &res, nil
}

func (c *Client) single(ctx context.Context, r Request, agg *options) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	opts := []Option{WithLoading(false), WithToast(false), WithTimeout(agg.timeout)}
	for k, vv := range r.Header {
		for _, v := range vv {
			opts = append(opts, WithHeader(k, v))
		}
	}

	return c.send(ctx, method, r.Path, r.Body, opts)
}
