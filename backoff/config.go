// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package backoff

import (
	"fmt"
	"time"
)

// Kinds of backoff understood by Config.
const (
	KindExponential = "exponential"
	KindFixed       = "fixed"
	// KindImmediate retries without waiting. It takes no durations.
	KindImmediate = "immediate"
)

// Config is the declarative form of a built-in backoff, suitable for
// unmarshalling from YAML. Durations are written as Go duration
// strings, for example "250ms".
//
// The zero Config describes Default.
type Config struct {
	// Kind is KindExponential, KindFixed or KindImmediate. Empty means
	// exponential.
	Kind string `yaml:"kind"`
	// Base is the base wait of an exponential backoff, or the wait of
	// a fixed backoff. Zero means DefaultBase.
	Base time.Duration `yaml:"base"`
	// Max is the maximum wait of an exponential backoff. Zero means
	// DefaultMax, or Base if Base exceeds DefaultMax. Only the
	// exponential kind accepts it.
	Max time.Duration `yaml:"max"`
	// Jitter enables full jitter on an exponential backoff. A nil value
	// means enabled. Only the exponential kind accepts it.
	Jitter *bool `yaml:"jitter"`
}

// Backoff builds the Backoff described by c.
func (c Config) Backoff() (Backoff, error) {
	if c.Base < 0 || c.Max < 0 {
		return nil, fmt.Errorf("retryx/backoff: negative duration (base %s, max %s)", c.Base, c.Max)
	}
	base := c.Base
	if base == 0 {
		base = DefaultBase
	}
	switch c.Kind {
	case "", KindExponential:
		max := c.Max
		if max == 0 {
			max = DefaultMax
			if max < base {
				max = base
			}
		}
		if max < base {
			return nil, fmt.Errorf("retryx/backoff: max %s less than base %s", max, base)
		}
		jitter := c.Jitter == nil || *c.Jitter
		return Exponential(base, max, jitter), nil
	case KindFixed:
		if c.Max != 0 || c.Jitter != nil {
			return nil, fmt.Errorf("retryx/backoff: max and jitter do not apply to kind %q", KindFixed)
		}
		return Fixed(base), nil
	case KindImmediate:
		if c.Base != 0 || c.Max != 0 || c.Jitter != nil {
			return nil, fmt.Errorf("retryx/backoff: kind %q takes no base, max or jitter", KindImmediate)
		}
		return Fixed(0), nil
	default:
		return nil, fmt.Errorf("retryx/backoff: unknown kind %q", c.Kind)
	}
}
