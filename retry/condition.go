// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/retryx/backoff"
	"github.com/gogama/retryx/request"
	"github.com/gogama/retryx/transient"
)

// A Condition is a predicate over a completed attempt and its error.
// Conditions compose into complex decision trees using And and Or, and
// become deciders via When and Bounded.
//
// Every Condition must be safe for concurrent use by multiple
// goroutines.
type Condition func(e *request.Execution, cause error) bool

// And composes two conditions into a new condition which holds if both
// hold.
//
// Short-circuit logic is used, so g will not be evaluated if c does not
// hold.
func (c Condition) And(g Condition) Condition {
	return func(e *request.Execution, cause error) bool {
		return c(e, cause) && g(e, cause)
	}
}

// Or composes two conditions into a new condition which holds if
// either holds.
//
// Short-circuit logic is used, so g will not be evaluated if c holds.
func (c Condition) Or(g Condition) Condition {
	return func(e *request.Execution, cause error) bool {
		return c(e, cause) || g(e, cause)
	}
}

// Times constructs a condition which allows up to n retries. It holds
// while the execution attempt index e.Attempt is less than n.
func Times(n int) Condition {
	return func(e *request.Execution, _ error) bool {
		return e.Attempt < n
	}
}

// Before constructs a condition allowing retries until a certain
// amount of time has elapsed since the start of the HTTP request plan
// execution. It holds while the execution duration is less than d.
func Before(d time.Duration) Condition {
	return func(e *request.Execution, _ error) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a condition which holds if the attempt received
// a valid HTTP response whose status code is one of codes.
func StatusCode(codes ...int) Condition {
	codes2 := make([]int, len(codes))
	copy(codes2, codes)
	return func(e *request.Execution, _ error) bool {
		sc := e.StatusCode()
		for _, code := range codes2 {
			if sc == code {
				return true
			}
		}
		return false
	}
}

// Transient returns a condition which holds if the cause is transient
// according to transient.Categorize.
//
// Transient only looks at the cause, so it never holds if a valid HTTP
// response is received.
func Transient() Condition {
	return func(_ *request.Execution, cause error) bool {
		return transient.Categorize(cause) != transient.Not
	}
}

// Unprocessed returns a condition which holds if the cause carries the
// unprocessed marker, meaning the request never reached the server.
func Unprocessed() Condition {
	return func(_ *request.Execution, cause error) bool {
		return cause != nil && transient.IsUnprocessed(cause)
	}
}

// Idempotent returns a condition which holds if the plan's method is
// idempotent, so that repeating it cannot duplicate side effects.
func Idempotent() Condition {
	return func(e *request.Execution, _ error) bool {
		return e.Plan != nil && e.Plan.Idempotent()
	}
}

// When returns a decider which retries with b whenever c holds, and
// stops otherwise. A panic in c is reported as a fault. When panics if
// c or b is nil.
func When(c Condition, b backoff.Backoff) Decider {
	if c == nil {
		panic(nilConditionMsg)
	}
	retry := RetryAfter(b)
	return DeciderFunc(func(e *request.Execution, cause error) *Decision {
		return evaluate(func() (Outcome, error) {
			if c(e, cause) {
				return retry, nil
			}
			return Stop(), nil
		})
	})
}

// Bounded returns a decider which stops whenever c does not hold, and
// otherwise delegates to d. It is typically used to put a limit on the
// retries made by another decider:
//
//	retry.Bounded(retry.Times(3), retry.RetryServerError())
//
// Bounded panics if c or d is nil.
func Bounded(c Condition, d Decider) Decider {
	if c == nil {
		panic(nilConditionMsg)
	}
	if d == nil {
		panic("retryx/retry: nil decider")
	}
	return DeciderFunc(func(e *request.Execution, cause error) *Decision {
		var holds bool
		if dec := evaluate(func() (Outcome, error) {
			holds = c(e, cause)
			return Stop(), nil
		}); !holds {
			return dec
		}
		return d.Decide(e, cause)
	})
}

const nilConditionMsg = "retryx/retry: nil condition"
