// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category says why a failed attempt might succeed if retried. Not
// is the only category for which a retry is pointless; the retry
// package's Transient condition holds for every other one.
type Category int

const (
	// Not is the category of nil and of every error which gives no
	// reason to expect a different result from another attempt.
	Not Category = iota
	// Timeout is the category of an attempt which ran out of time. The
	// first Timeout() method found in the cause chain decides.
	Timeout
	// ConnRefused is the category of ECONNREFUSED, typically a peer
	// which is not listening yet.
	ConnRefused
	// ConnReset is the category of ECONNRESET, a connection the peer
	// dropped mid-exchange.
	ConnReset
	// Unsent is the category of an unprocessed error without a more
	// specific cause above.
	Unsent
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"NotSent",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

var errnoCategories = map[syscall.Errno]Category{
	syscall.ECONNREFUSED: ConnRefused,
	syscall.ECONNRESET:   ConnReset,
}

// Categorize returns the category of err, searching its whole cause
// chain. The checks run in order: a timeout, then a connection errno,
// then the unprocessed marker. Temporary() is ignored.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}
	var t hasTimeout
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if c, ok := errnoCategories[errno]; ok {
			return c
		}
	}
	if IsUnprocessed(err) {
		return Unsent
	}
	return Not
}

type hasTimeout interface {
	Timeout() bool
}
