// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/time/rate"

	"github.com/gogama/retryx/backoff"
	"github.com/gogama/retryx/request"
	"github.com/gogama/retryx/retry"
	"github.com/gogama/retryx/timeout"
	"github.com/gogama/retryx/transient"
)

// An HTTPDoer sends one HTTP request and returns its response, in the
// manner of http.Client from the standard net/http package.
type HTTPDoer interface {
	// Do must follow the contract documented on http.Client.Do.
	Do(r *http.Request) (*http.Response, error)
}

// A Client is a robust HTTP client which retries failed attempts as
// directed by a retry decider. Its zero value is a valid configuration
// and it is safe for concurrent use by multiple goroutines.
//
// The HTTPDoer does the low-level work of each attempt, including
// redirects and connection reuse, so Client instances should be reused
// rather than created as needed. On top of it, Client:
//
// • buffers the whole response body into Execution.Body;
//
// • sets a timeout on each attempt as directed by TimeoutPolicy;
//
// • marks attempts which failed before the request was sent, such as
// dial and DNS failures, with transient.UnprocessedError;
//
// • after each attempt asks Decider whether, and after what backoff,
// to retry, and waits for the asynchronous decision;
//
// • optionally throttles attempts with a rate limiter; and
//
// • fires events to the Handlers at fixed points of the loop.
//
// Client.Do consumes a request.Plan, which can be turned into a fresh
// http.Request for every attempt, and returns a request.Execution
// holding the final attempt's state.
type Client struct {
	// HTTPDoer sends the HTTP request of each attempt. If nil,
	// http.DefaultClient is used.
	HTTPDoer HTTPDoer
	// Decider decides, after each attempt, whether to retry and with
	// what backoff. If nil, retry.Default() is used.
	Decider retry.Decider
	// TimeoutPolicy sets the timeout of each attempt. If nil,
	// timeout.Default() is used.
	TimeoutPolicy timeout.Policy
	// Handlers are run when events occur during an execution. If nil,
	// no handlers are run.
	Handlers *HandlerGroup
	// Limiter, if not nil, throttles every attempt, including the
	// first. The wait for a token is bounded by the plan's context.
	Limiter *rate.Limiter
	// Clock provides the timers for retry waits. If nil, the real
	// clock is used.
	Clock quartz.Clock
}

var (
	emptyHandlers  = HandlerGroup{}
	realClock      = quartz.NewReal()
	errNilDecision = errors.New("nil decision")
)

// Do executes an HTTP request plan and returns the state after the
// final attempt.
//
// After every attempt Do passes the execution and the attempt's error
// to the Decider, then waits until the returned retry.Decision settles
// or the plan's context ends. A settled Outcome with a backoff makes
// Do wait for the backoff's duration and try again. The Stop outcome
// ends the execution with the last attempt's result. A faulted or nil
// Decision, or a panic in the Decider, also ends the execution, and Do
// returns the fault even if the plan's context ends at the same time.
//
// A non-2XX status code in the final attempt is not an error. The
// returned error is either nil or of type *url.Error, and is always
// the same as the Err field of the returned Execution. Its Timeout
// method, and that of the Execution, report true if the final attempt
// or the whole plan timed out.
//
// The returned Execution is never nil. If the final attempt produced
// no response, both Response and Body are nil. If the response body
// could not be fully read, Response is non-nil and the error is
// returned.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	e := request.Execution{
		Plan: p,
	}

	doer := c.doer()

	timeoutPolicy := c.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.Default()
	}

	decider := c.Decider
	if decider == nil {
		decider = retry.Default()
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}

	handlers.run(BeforeExecutionStart, &e)
	if e.Plan == nil {
		panic("retryx: plan deleted from execution")
	}
	p = e.Plan
	ctx := p.Context()
	e.Start = time.Now()

	for {
		if err := c.throttle(ctx); err != nil {
			abort(&e, handlers, err)
			break
		}
		sendAndReceive(p, &e, doer, handlers, timeoutPolicy)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, &e)
		}
		handlers.run(AfterAttempt, &e)
		if err := ctx.Err(); err != nil {
			if e.Err == nil {
				e.Err = urlErrorWrap(p, err)
			}
			if err == context.DeadlineExceeded {
				handlers.run(AfterPlanTimeout, &e)
			}
			break
		}

		b, err := decide(ctx, decider, &e)
		var fault *retry.FaultError
		if err != nil && errors.As(err, &fault) {
			e.Err = urlErrorWrap(p, err)
			break
		} else if err != nil {
			abort(&e, handlers, err)
			break
		} else if b == nil {
			break
		}

		e.RetryWait = b.Wait(&e)
		handlers.run(BeforeRetryWait, &e)
		if err := c.sleep(ctx, e.RetryWait); err != nil {
			abort(&e, handlers, err)
			break
		}
		e.PrevTimedOut = e.Timeout()
		e.Response = nil
		e.Err = nil
		e.Body = nil
		e.RetryWait = 0
		e.Attempt++
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, &e)
	return &e, e.Err
}

// decide asks the decider about the attempt just ended and waits for
// the decision. It returns a nil backoff if the decision is to stop.
// A failed decider is reported as a *retry.FaultError. If ctx ends
// first the decision is abandoned and ctx.Err() is returned.
func decide(ctx context.Context, decider retry.Decider, e *request.Execution) (backoff.Backoff, error) {
	d, err := propose(decider, e)
	if err != nil {
		return nil, err
	}
	o, err := d.Wait(ctx)
	if err != nil {
		return nil, err
	}
	b, _ := o.Backoff()
	return b, nil
}

// propose calls the decider, turning a panic or a nil Decision into a
// fault.
func propose(decider retry.Decider, e *request.Execution) (d *retry.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = nil
			if rerr, ok := r.(error); ok {
				err = &retry.FaultError{Err: fmt.Errorf("panic: %w", rerr)}
			} else {
				err = &retry.FaultError{Err: fmt.Errorf("panic: %v", r)}
			}
		}
	}()
	d = decider.Decide(e, e.Err)
	if d == nil {
		return nil, &retry.FaultError{Err: errNilDecision}
	}
	return d, nil
}

// abort ends the execution between attempts, replacing the last
// attempt's error with err.
func abort(e *request.Execution, handlers *HandlerGroup, err error) {
	e.Err = urlErrorWrap(e.Plan, err)
	if err == context.DeadlineExceeded {
		handlers.run(AfterPlanTimeout, e)
	}
}

func (c *Client) throttle(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("retryx: rate limiter: %w", err)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	clock := c.Clock
	if clock == nil {
		clock = realClock
	}
	timer := clock.NewTimer(d, "retryx", "retryWait")
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sendAndReceive(p *request.Plan, e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	ctx, cancel := context.WithTimeout(p.Context(), timeoutPolicy.Timeout(e))
	defer cancel()
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	var err error
	e.Response, err = doer.Do(e.Request)
	if err != nil {
		e.Response = nil
		e.Err = attemptErr(p, err)
		return
	}
	readBody(p, e, handlers)
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	body := e.Response.Body
	defer func() {
		_ = body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	if e.Response == nil {
		panic("retryx: attempt response was nilled")
	} else if e.Response.Body == nil {
		panic("retryx: attempt response body was nilled")
	} else if e.Response.Body != body {
		body2 := e.Response.Body
		defer func() {
			_ = body2.Close()
		}()
	}
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	}
}

// attemptErr wraps an error returned by the HTTPDoer in a *url.Error,
// marking it as unprocessed if the request cannot have been sent.
func attemptErr(p *request.Plan, err error) error {
	if !transient.NotSent(err) {
		return urlErrorWrap(p, err)
	}
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: ue.URL, Err: transient.Unprocessed(ue.Err)}
	}
	return urlErrorWrap(p, transient.Unprocessed(err))
}

// Get issues a GET to the specified URL, following the same policies
// as Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, following the same policies
// as Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, following the same policies
// as Do. The body may be nil or any type accepted by
// request.BodyBytes.
//
// A POST is not idempotent, so unless Decider is a decider such as
// retry.OnUnprocessed, a retried POST may reach the server twice.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL with data's keys and
// values URL-encoded as the request body.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections calls CloseIdleConnections on the HTTPDoer if it
// has such a method, and otherwise does nothing.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}
	return c.HTTPDoer
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp matches the Op of the errors returned by http.Client.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
