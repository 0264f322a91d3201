// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/retryx/backoff"
	"github.com/gogama/retryx/request"
	"github.com/gogama/retryx/status"
	"github.com/gogama/retryx/transient"
)

// A Decider decides if a retry should be done after an HTTP request
// attempt.
//
// The execution e describes the attempt which just completed. The
// cause is the attempt's error, or nil if the attempt received a
// response. Decide must not modify e and must return a non-nil
// Decision. A nil Decision is treated as a fault.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines, and must not carry state from one call to the
// next.
type Decider interface {
	Decide(e *request.Execution, cause error) *Decision
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders.
type DeciderFunc func(e *request.Execution, cause error) *Decision

// Decide returns f(e, cause).
func (f DeciderFunc) Decide(e *request.Execution, cause error) *Decision {
	return f(e, cause)
}

// A StatusFunc decides whether to retry from the status code of the
// attempt and its error. The code is status.None if the attempt did not
// receive a response. Returning an error reports a fault, not a
// decision to stop.
type StatusFunc func(code status.Code, cause error) (Outcome, error)

const (
	nilBackoffMsg    = "retryx/retry: nil backoff"
	nilStatusFuncMsg = "retryx/retry: nil status function"
)

var never = Settled(Stop())

// Never returns a decider that never retries. It is useful to disable
// retries while keeping the other features of the robust client.
func Never() Decider {
	return DeciderFunc(func(_ *request.Execution, _ error) *Decision {
		return never
	})
}

// OnStatus returns a decider which settles each decision with the
// result of fn, called with the status of the attempt and its error.
// If fn returns an error or panics, the decision is settled with a
// fault. OnStatus panics if fn is nil.
func OnStatus(fn StatusFunc) Decider {
	if fn == nil {
		panic(nilStatusFuncMsg)
	}
	return DeciderFunc(func(e *request.Execution, cause error) *Decision {
		return evaluate(func() (Outcome, error) {
			return fn(e.Status(), cause)
		})
	})
}

// OnUnprocessed returns a decider which retries with b if, and only
// if, the attempt failed before the request was sent to the server.
// The unprocessed marker is found however deeply it is wrapped within
// the cause. Since the server never saw the request, the retry is safe
// regardless of the method. OnUnprocessed panics if b is nil.
func OnUnprocessed(b backoff.Backoff) Decider {
	retry := RetryAfter(b)
	return OnStatus(func(_ status.Code, cause error) (Outcome, error) {
		if cause != nil && transient.IsUnprocessed(cause) {
			return retry, nil
		}
		return Stop(), nil
	})
}

// OnServerErrorStatus returns a decider which retries with b if the
// attempt failed with any error, or if it received a response whose
// status is in the 5xx server error class. The error need not be an
// unprocessed error, so requests which are not idempotent may be
// repeated. OnServerErrorStatus panics if b is nil.
func OnServerErrorStatus(b backoff.Backoff) Decider {
	retry := RetryAfter(b)
	return OnStatus(func(code status.Code, cause error) (Outcome, error) {
		if cause != nil || code.Class() == status.ServerError {
			return retry, nil
		}
		return Stop(), nil
	})
}

// RetryUnprocessed returns OnUnprocessed with the default backoff.
func RetryUnprocessed() Decider {
	return OnUnprocessed(backoff.Default())
}

// RetryServerError returns OnServerErrorStatus with the default
// backoff.
func RetryServerError() Decider {
	return OnServerErrorStatus(backoff.Default())
}

// DefaultTimes is the number of times Default will retry.
const DefaultTimes = 5

// Default returns a general-purpose retry decider suitable for common
// use cases. It allows up to DefaultTimes retries (i.e. up to 6 total
// attempts) with the default backoff, and retries on a transient error
// (Transient), on an unprocessed error (Unprocessed), or if a valid
// HTTP response is received but it contains one of the following
// status codes: 429 (Too Many Requests); 502 (Bad Gateway); 503
// (Service Unavailable); or 504 (Gateway Timeout).
func Default() Decider {
	return Bounded(
		Times(DefaultTimes),
		When(StatusCode(429, 502, 503, 504).Or(Transient()).Or(Unprocessed()), backoff.Default()),
	)
}
