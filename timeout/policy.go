// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"fmt"
	"math"
	"time"

	"github.com/gogama/retryx/request"
)

// A Policy directs the timeout of the initial attempt and of every
// retry made by the robust client (retryx.Client).
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next attempt, given the
	// current state of the execution.
	Timeout(e *request.Execution) time.Duration
}

// DefaultTimeout is the attempt timeout of the Default policy.
const DefaultTimeout = 5 * time.Second

// Default returns the default timeout policy, a fixed timeout of
// DefaultTimeout on each attempt.
func Default() Policy {
	return Fixed(DefaultTimeout)
}

// Infinite returns a policy which never times out.
func Infinite() Policy {
	return Fixed(math.MaxInt64)
}

// Fixed returns a policy that sets every attempt timeout to d.
func Fixed(d time.Duration) Policy {
	return adaptive{usual: d}
}

// Adaptive returns a policy that lengthens the next timeout when the
// previous attempt timed out. This suits a server which usually answers
// quickly but goes through bursts of slowness, where a short timeout
// cures one-off slow responses but would turn a burst into a retry
// storm.
//
// The policy returns usual for the initial attempt and for any retry
// whose preceding attempt did not time out. If the preceding attempt
// timed out and was the n-th timeout of the execution, it returns
// after[n-1], or the last element of after if there have been more
// timeouts than elements.
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	a := make([]time.Duration, len(after))
	copy(a, after)
	return adaptive{usual: usual, after: a}
}

type adaptive struct {
	usual time.Duration
	after []time.Duration
}

func (p adaptive) Timeout(e *request.Execution) time.Duration {
	if len(p.after) == 0 || !e.PrevTimedOut || e.AttemptTimeouts < 1 {
		return p.usual
	}
	i := e.AttemptTimeouts - 1
	if i > len(p.after)-1 {
		i = len(p.after) - 1
	}
	return p.after[i]
}

// Config is the declarative form of a timeout policy, suitable for
// unmarshalling from YAML:
//
//	attempt: 200ms
//	after-timeout: [1s, 10s]
//
// The zero Config describes Default.
type Config struct {
	// Attempt is the usual attempt timeout. Zero means DefaultTimeout.
	Attempt time.Duration `yaml:"attempt"`
	// AfterTimeout lists the timeouts used after consecutive attempt
	// timeouts, as in Adaptive.
	AfterTimeout []time.Duration `yaml:"after-timeout"`
}

// Policy builds the Policy described by c.
func (c Config) Policy() (Policy, error) {
	if c.Attempt < 0 {
		return nil, fmt.Errorf("retryx/timeout: negative attempt timeout %s", c.Attempt)
	}
	for _, d := range c.AfterTimeout {
		if d <= 0 {
			return nil, fmt.Errorf("retryx/timeout: non-positive after-timeout %s", d)
		}
	}
	usual := c.Attempt
	if usual == 0 {
		usual = DefaultTimeout
	}
	return Adaptive(usual, c.AfterTimeout...), nil
}
