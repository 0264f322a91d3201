// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"net"
)

// MaxPeelDepth bounds how many wrapper layers Peel will look through.
// Wrapper chains are short in practice; the bound only matters for
// pathological (for example cyclic) Unwrap implementations.
const MaxPeelDepth = 64

// An UnprocessedError marks a failure which happened before the request
// was transmitted to the remote peer. Retrying such a request is always
// safe, regardless of the HTTP method, because the peer never saw it.
//
// The robust client wraps connection establishment failures (dial
// errors, DNS failures, refused connections) in an UnprocessedError.
// Custom HTTP doers may use Unprocessed to mark their own failures.
type UnprocessedError struct {
	// Err is the failure that prevented the request from being sent.
	// It may be nil.
	Err error
}

// Unprocessed wraps err in an UnprocessedError. If err is already
// marked as unprocessed, err is returned as is.
func Unprocessed(err error) error {
	var u *UnprocessedError
	if errors.As(err, &u) {
		return err
	}
	return &UnprocessedError{Err: err}
}

func (err *UnprocessedError) Error() string {
	if err.Err == nil {
		return "unprocessed request"
	}
	return "unprocessed request: " + err.Err.Error()
}

func (err *UnprocessedError) Unwrap() error {
	return err.Err
}

// Timeout reports whether the wrapped failure was a timeout, for
// example a dial timeout. It lets url.Error.Timeout see through the
// marker.
func (err *UnprocessedError) Timeout() bool {
	var t hasTimeout
	return errors.As(err.Err, &t) && t.Timeout()
}

// Peel walks the chain of causes wrapped inside err and returns the
// first *UnprocessedError found, or the innermost cause if the chain
// contains no unprocessed marker. Both single-error (Unwrap() error)
// and multi-error (Unwrap() []error) wrappers are peeled; for the
// latter each branch is searched for a marker in order, and the
// innermost cause of the first branch is returned if none is found.
//
// At most MaxPeelDepth layers are examined. Peel(nil) returns nil.
func Peel(err error) error {
	if err == nil {
		return nil
	}
	if u, ok := findUnprocessed(err, MaxPeelDepth); ok {
		return u
	}
	return innermost(err)
}

// IsUnprocessed reports whether err, after peeling wrapper layers,
// signals that the request was never transmitted.
func IsUnprocessed(err error) bool {
	_, ok := Peel(err).(*UnprocessedError)
	return ok
}

func findUnprocessed(err error, depth int) (*UnprocessedError, bool) {
	for ; err != nil && depth > 0; depth-- {
		if u, ok := err.(*UnprocessedError); ok {
			return u, true
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, branch := range x.Unwrap() {
				if u, ok := findUnprocessed(branch, depth-1); ok {
					return u, true
				}
			}
			return nil, false
		default:
			return nil, false
		}
	}
	return nil, false
}

func innermost(err error) error {
	for depth := 0; depth < MaxPeelDepth; depth++ {
		var next error
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			next = x.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := x.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

// NotSent reports whether err is a connection establishment failure,
// meaning no byte of the request can have reached the remote peer: a
// failed dial, a DNS lookup failure, or an already-marked unprocessed
// error.
func NotSent(err error) bool {
	if err == nil {
		return false
	}
	if IsUnprocessed(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
