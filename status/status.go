// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package status groups numeric HTTP response status codes into coarse
// classes, and provides an optional status code type for attempts that
// may not have received a response at all.
package status

import "strconv"

// A Class is a coarse grouping of HTTP status codes.
type Class int

const (
	// Unknown is the class of any code outside 100-599, including the
	// absent code None.
	Unknown Class = iota
	// Informational is the class of 1xx codes.
	Informational
	// Success is the class of 2xx codes.
	Success
	// Redirection is the class of 3xx codes.
	Redirection
	// ClientError is the class of 4xx codes.
	ClientError
	// ServerError is the class of 5xx codes.
	ServerError
)

var classNames = []string{
	"Unknown",
	"Informational",
	"Success",
	"Redirection",
	"ClientError",
	"ServerError",
}

// ClassOf returns the class of a numeric status code.
func ClassOf(code int) Class {
	if code < 100 || code > 599 {
		return Unknown
	}
	return Class(code / 100)
}

// String returns the name of the class.
func (c Class) String() string {
	if c < Unknown || c > ServerError {
		return "Class(" + strconv.Itoa(int(c)) + ")"
	}
	return classNames[c]
}

// A Code is the status code of the response received by an HTTP
// request attempt. The zero value, None, means no response was
// received.
type Code int

// None is the Code of an attempt which did not receive a response.
const None Code = 0

// Present reports whether c is an actual response status.
func (c Code) Present() bool {
	return c != None
}

// Class returns the class of c. The class of None is Unknown.
func (c Code) Class() Class {
	return ClassOf(int(c))
}

// String returns the decimal status code, or "none" for None.
func (c Code) String() string {
	if c == None {
		return "none"
	}
	return strconv.Itoa(int(c))
}
