// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/retryx/status"
	"github.com/gogama/retryx/transient"
)

// An Execution represents the state of a single Plan execution. It is
// the request context handed to timeout policies, retry deciders,
// backoffs, and event handlers.
//
// Callbacks may attach data using SetValue and read it back with Value,
// but must otherwise treat the exported fields as read-only. In
// particular a retry decider must never modify the execution it is
// asked to decide on.
type Execution struct {
	// Plan specifies the HTTP request plan being executed. It is never
	// nil.
	Plan *Plan
	// Start is the start time of the plan execution. It is set when
	// the execution starts and remains constant thereafter.
	Start time.Time
	// End is the end time of the plan execution. It holds the zero
	// value until the execution ends.
	End time.Time
	// Attempt is the zero-based number of the current HTTP request
	// attempt: zero on the initial attempt, one on the first retry,
	// and so on. Once the execution has ended it is the number of the
	// last attempt made.
	Attempt int
	// AttemptTimeouts counts the attempts which timed out during the
	// execution. Plan timeouts do not contribute to the count.
	AttemptTimeouts int
	// PrevTimedOut reports whether the attempt before the current one
	// timed out. It is false on the initial attempt. Timeout policies
	// read it because Err is reset when a new attempt starts.
	PrevTimedOut bool
	// Request is the HTTP request to be made in the current attempt,
	// or already made in the last attempt.
	Request *http.Request
	// Response is the HTTP response received in the most recent
	// attempt. It is nil if that attempt ended in error before a
	// response arrived, while an attempt is underway, and before the
	// execution starts.
	Response *http.Response
	// Err is the error from the most recent attempt, or nil if that
	// attempt completed. Once the execution has ended, Err has the same
	// value as the error returned by the client.
	//
	// Whenever Err is non-nil, it has the type *url.Error.
	Err error
	// Body is the complete response body read after the most recent
	// attempt. Both Body and Err may be non-nil if reading the body
	// failed part way through.
	Body []byte
	// RetryWait is the wait which precedes the next attempt. It is
	// set when the retry decider asks for a retry and reset to zero
	// when the next attempt starts.
	RetryWait time.Duration

	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent attempt, or 0 if there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Status returns the status of the most recent attempt as an optional
// status code. It returns status.None if the attempt has not received
// a response.
func (e *Execution) Status() status.Code {
	return status.Code(e.StatusCode())
}

// Header returns the HTTP response headers from the most recent
// attempt, or a nil header if there is no response. The nil header is
// safe for read-only use.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}
	return e.Response.Header
}

// Duration returns the duration of the execution: zero before it
// starts, the time elapsed since Start while it is in flight, and End
// minus Start once it has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently indicates a timeout, either
// of the most recent attempt or of the whole plan.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue stores arbitrary data in the execution. The key follows the
// same rules as the key parameter of context.WithValue: it must be
// non-nil and comparable, and should be of an unexported type to avoid
// collisions.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	if e.data == nil {
		return nil
	}
	return e.data.Value(key)
}
