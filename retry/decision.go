// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogama/retryx/backoff"
)

// An Outcome is the business result of a retry decision: either retry
// after a backoff, or stop.
//
// The zero Outcome means stop. Outcomes are comparable, and two
// Outcomes are equal when both stop or both retry with equal backoffs.
type Outcome struct {
	b backoff.Backoff
}

// Stop returns the Outcome which stops retrying.
func Stop() Outcome {
	return Outcome{}
}

// RetryAfter returns the Outcome which retries after waiting according
// to b. It panics if b is nil.
func RetryAfter(b backoff.Backoff) Outcome {
	if b == nil {
		panic(nilBackoffMsg)
	}
	return Outcome{b: b}
}

// Backoff returns the backoff to retry with and true, or nil and false
// if the Outcome stops retrying.
func (o Outcome) Backoff() (backoff.Backoff, bool) {
	return o.b, o.b != nil
}

// Retry indicates whether the Outcome retries.
func (o Outcome) Retry() bool {
	return o.b != nil
}

func (o Outcome) String() string {
	if o.b == nil {
		return "stop"
	}
	return fmt.Sprintf("retry(%v)", o.b)
}

// ErrUnsettled is returned by Decision.Result while the decision has
// not yet settled.
var ErrUnsettled = errors.New("retryx/retry: decision not settled")

// A FaultError reports that a retry decider failed to evaluate, as
// opposed to deciding to stop. It indicates a defect in the decider and
// terminates the retry sequence.
type FaultError struct {
	Err error
}

func (err *FaultError) Error() string {
	return "retryx/retry: decider fault: " + err.Err.Error()
}

func (err *FaultError) Unwrap() error {
	return err.Err
}

// A Decision is the asynchronous result of a call to Decider.Decide.
// It settles exactly once, either to an Outcome or to an error, and
// may be settled from a goroutine other than the one which created it.
//
// A Decision is safe for concurrent use. Nobody is obliged to consume
// it: an abandoned Decision holds no resources beyond its own memory.
type Decision struct {
	done    chan struct{}
	mu      sync.Mutex
	settled bool
	outcome Outcome
	err     error
}

// A Settle function settles its Decision with either an Outcome or a
// non-nil error. Only the first call has any effect; it returns true,
// and later calls return false. Settle never blocks.
type Settle func(o Outcome, err error) bool

// Settled returns a Decision already settled to o.
func Settled(o Outcome) *Decision {
	d, settle := Pending()
	settle(o, nil)
	return d
}

// Faulted returns a Decision already settled to a fault wrapping err.
// If err is already a *FaultError, it is used as is. Faulted panics if
// err is nil.
func Faulted(err error) *Decision {
	if err == nil {
		panic("retryx/retry: nil fault")
	}
	d, settle := Pending()
	settle(Stop(), fault(err))
	return d
}

// Pending returns an unsettled Decision together with the function
// which settles it. A non-nil error passed to the settle function is
// recorded as a fault.
func Pending() (*Decision, Settle) {
	d := &Decision{done: make(chan struct{})}
	return d, d.settle
}

// Async returns a Decision which is settled with the result of f, run
// on a new goroutine. If f returns an error or panics, the Decision is
// settled with a fault.
func Async(f func() (Outcome, error)) *Decision {
	d, settle := Pending()
	go func() {
		o, err := protect(f)
		settle(o, err)
	}()
	return d
}

// Done returns a channel which is closed when the Decision settles.
func (d *Decision) Done() <-chan struct{} {
	return d.done
}

// Result returns the settled Outcome, or the fault if the decider
// failed. Before the Decision settles, Result returns ErrUnsettled.
func (d *Decision) Result() (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.settled {
		return Stop(), ErrUnsettled
	}
	return d.outcome, d.err
}

// Wait blocks until the Decision settles or ctx ends, whichever is
// first. A Decision which has already settled is returned even if ctx
// has ended too. Otherwise, if ctx ends first, Wait returns ctx.Err()
// and the Decision is left to settle unobserved.
func (d *Decision) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-d.done:
		return d.Result()
	case <-ctx.Done():
		select {
		case <-d.done:
			return d.Result()
		default:
			return Stop(), ctx.Err()
		}
	}
}

func (d *Decision) settle(o Outcome, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return false
	}
	if err != nil {
		o, err = Stop(), fault(err)
	}
	d.settled, d.outcome, d.err = true, o, err
	close(d.done)
	return true
}

func fault(err error) error {
	if f, ok := err.(*FaultError); ok {
		return f
	}
	return &FaultError{Err: err}
}

// evaluate runs f on the calling goroutine and packages the result,
// including any panic, as a settled Decision.
func evaluate(f func() (Outcome, error)) *Decision {
	o, err := protect(f)
	if err != nil {
		return Faulted(err)
	}
	return Settled(o)
}

func protect(f func() (Outcome, error)) (o Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", rerr)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
			o = Stop()
		}
	}()
	return f()
}
