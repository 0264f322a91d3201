// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package backoff provides the delay schedules a retry decider hands
// back when it decides a failed attempt should be retried.
//
// A Backoff is an opaque value to the retry deciders: they obtain one
// (usually Default) and forward it, and the robust client asks it how
// long to wait before the next attempt. The built-in backoffs are
// immutable comparable values, so two backoffs built from the same
// configuration are equal.
package backoff

import (
	"math/rand/v2"
	"time"

	"github.com/gogama/retryx/request"
)

// A Backoff specifies how long to wait before retrying a failed HTTP
// request attempt.
//
// Implementations of Backoff must be safe for concurrent use by
// multiple goroutines. The client only consults a Backoff after a retry
// decider has decided to retry.
type Backoff interface {
	Wait(e *request.Execution) time.Duration
}

const (
	// DefaultBase is the base wait of the Default backoff.
	DefaultBase = 50 * time.Millisecond
	// DefaultMax is the maximum wait of the Default backoff.
	DefaultMax = 1 * time.Second
)

// Default returns the default backoff: jittered exponential growth from
// DefaultBase up to DefaultMax. Every call returns an equal value.
func Default() Backoff {
	return exponential{base: DefaultBase, max: DefaultMax, jitter: true}
}

// Fixed returns a Backoff that always waits d. A negative d is treated
// as zero.
func Fixed(d time.Duration) Backoff {
	if d < 0 {
		d = 0
	}
	return fixed(d)
}

type fixed time.Duration

func (b fixed) Wait(_ *request.Execution) time.Duration {
	return time.Duration(b)
}

func (b fixed) String() string {
	return "fixed(" + time.Duration(b).String() + ")"
}

// Exponential returns a Backoff implementing an exponential backoff
// formula with optional jitter.
//
// The ceiling for the wait after attempt number a is
//
//	ceil := min(base * 2**a, max)
//
// Without jitter the wait is ceil. With jitter the wait is a uniformly
// random duration in [0, ceil), which is the "Full Jitter" approach
// described in:
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Base must be positive and max must be at least base.
func Exponential(base, max time.Duration, jitter bool) Backoff {
	if base < 1 {
		panic("retryx/backoff: base must be positive")
	}
	if max < base {
		panic("retryx/backoff: max must be at least base")
	}
	return exponential{base: base, max: max, jitter: jitter}
}

type exponential struct {
	base   time.Duration
	max    time.Duration
	jitter bool
}

func (b exponential) Wait(e *request.Execution) time.Duration {
	ceil := b.ceil(e.Attempt)
	if b.jitter && ceil > 0 {
		return time.Duration(rand.Int64N(int64(ceil)))
	}
	return ceil
}

func (b exponential) String() string {
	s := "exponential(" + b.base.String() + ", " + b.max.String()
	if b.jitter {
		s += ", jitter"
	}
	return s + ")"
}

func (b exponential) ceil(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 63 {
		return b.max
	}
	exp := int64(1) << attempt
	ceil := int64(b.base) * exp
	if ceil/exp != int64(b.base) || int64(b.max) < ceil {
		return b.max
	}
	return time.Duration(ceil)
}
