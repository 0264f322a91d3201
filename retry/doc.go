// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry decides whether a failed or completed HTTP request
// attempt should be retried, and if so with what backoff.
//
// The interface Decider defines the decision contract. After every
// attempt the robust client calls Decide with the attempt's execution
// state and the attempt's error (nil if a response was received) and
// receives a Decision, a single-assignment asynchronous result which
// eventually settles to an Outcome or to a fault. A settled Outcome
// carrying a backoff means "retry after the backoff's wait", while the
// Stop outcome means "stop retrying and surface the last attempt".
//
// The built-in deciders cover the common cases:
//
//	retry.Never()                    // never retry
//	retry.OnUnprocessed(b)           // retry only if the request was never sent
//	retry.OnServerErrorStatus(b)     // retry on any error or on a 5xx status
//	retry.OnStatus(fn)               // retry according to fn(status, cause)
//	retry.Default()                  // bounded retry on common transient failures
//
// Conditions compose into further deciders:
//
//	d := retry.Bounded(
//		retry.Times(3).And(retry.Before(5*time.Second)),
//		retry.When(retry.StatusCode(500).Or(retry.Transient()), backoff.Default()),
//	)
//
// Deciders which need to wait for something, for example an external
// lookup, can return a Decision built with Async or Pending and settle
// it later from another goroutine. A Decision which is never consumed
// leaks nothing, so the client is free to abandon it when the request
// context ends.
package retry
