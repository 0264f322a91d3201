// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

// An Event identifies a point in the execution of a request plan at
// which a Client runs the handlers installed for that event.
type Event int

const (
	// BeforeExecutionStart fires before the execution starts. Only the
	// execution's Plan is set.
	BeforeExecutionStart Event = iota
	// BeforeAttempt fires before each attempt, after the execution's
	// Request has been built for it. Handlers may replace the Request
	// or change its fields, but should clone the URL and Header before
	// changing them, since these initially reference the plan's.
	BeforeAttempt
	// BeforeReadBody fires when an attempt has received a response,
	// whatever its status code, and before its body is read. It never
	// fires for an attempt which ended in error.
	BeforeReadBody
	// AfterAttemptTimeout fires after an attempt timed out. The
	// execution's Err holds the timeout error and AttemptTimeouts has
	// already been incremented.
	AfterAttemptTimeout
	// AfterAttempt fires after every attempt, before the retry decider
	// is consulted. At least one of Response and Err is non-nil; both
	// are non-nil if reading the body failed.
	AfterAttempt
	// AfterPlanTimeout fires when the deadline of the plan's context
	// is exceeded, either during an attempt, while waiting for the
	// retry decision, or during the retry wait. It always follows the
	// AfterAttempt of the last attempt.
	AfterPlanTimeout
	// BeforeRetryWait fires when the retry decider has decided to
	// retry, before the client waits. The execution's RetryWait holds
	// the wait computed by the decision's backoff, and Attempt still
	// holds the number of the attempt which just ended.
	BeforeRetryWait
	// AfterExecutionEnd fires after the execution ends. The execution
	// is as it was after the last attempt, except that End is set and
	// Err may hold a plan-level error or a retry decider fault.
	AfterExecutionEnd

	eventSentinel

	numEvents = int(eventSentinel)
)

var eventNames = [numEvents]string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterPlanTimeout",
	"BeforeRetryWait",
	"AfterExecutionEnd",
}

// Events returns all events a Client can fire, in the order in which
// they first occur.
func Events() []Event {
	evts := make([]Event, numEvents)
	for i := range evts {
		evts[i] = Event(i)
	}
	return evts
}

// Name returns the name of the event.
func (evt Event) Name() string {
	if evt < 0 || int(evt) >= numEvents {
		return "Event(?)"
	}
	return eventNames[evt]
}

func (evt Event) String() string {
	return evt.Name()
}
