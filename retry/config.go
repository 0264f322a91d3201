// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"os"

	"github.com/gogama/retryx/backoff"
	"github.com/gogama/retryx/status"
	"gopkg.in/yaml.v3"
)

// Policy names understood by Config.
const (
	PolicyNever         = "never"
	PolicyOnUnprocessed = "on-unprocessed"
	PolicyOnServerError = "on-server-error"
	PolicyOnStatus      = "on-status"
	PolicyDefault       = "default"
)

// Config is the declarative form of a retry decider, suitable for
// unmarshalling from YAML:
//
//	policy: on-status
//	statuses: [429, 503]
//	max-retries: 3
//	backoff:
//	  kind: exponential
//	  base: 50ms
//	  max: 1s
//
// The zero Config describes Default.
type Config struct {
	// Policy names the built-in decider. Empty means PolicyDefault.
	Policy string `yaml:"policy"`
	// Statuses lists the status codes retried by PolicyOnStatus. That
	// policy also retries unprocessed errors.
	Statuses []int `yaml:"statuses"`
	// MaxRetries bounds the number of retries. Zero means no bound
	// beyond the policy's own, which for PolicyDefault is
	// DefaultTimes.
	MaxRetries int `yaml:"max-retries"`
	// Backoff describes the backoff used on retry.
	Backoff backoff.Config `yaml:"backoff"`
}

// ParseConfig parses a YAML retry configuration and validates it. An
// empty document gives the zero Config.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("retryx/retry: failed to parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("retryx/retry: invalid config: %w", err)
	}
	return &c, nil
}

// LoadConfig reads and parses the YAML retry configuration in the named
// file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("retryx/retry: failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// Decider builds the Decider described by c.
func (c *Config) Decider() (Decider, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("retryx/retry: invalid config: %w", err)
	}
	b, err := c.Backoff.Backoff()
	if err != nil {
		return nil, err
	}

	var d Decider
	switch c.Policy {
	case PolicyNever:
		return Never(), nil
	case PolicyOnUnprocessed:
		d = OnUnprocessed(b)
	case PolicyOnServerError:
		d = OnServerErrorStatus(b)
	case PolicyOnStatus:
		d = When(StatusCode(c.Statuses...).Or(Unprocessed()), b)
	case "", PolicyDefault:
		n := c.MaxRetries
		if n == 0 {
			n = DefaultTimes
		}
		return Bounded(Times(n), When(StatusCode(429, 502, 503, 504).Or(Transient()).Or(Unprocessed()), b)), nil
	}

	if c.MaxRetries > 0 {
		d = Bounded(Times(c.MaxRetries), d)
	}
	return d, nil
}

func (c *Config) validate() error {
	switch c.Policy {
	case "", PolicyNever, PolicyOnUnprocessed, PolicyOnServerError, PolicyDefault:
		if len(c.Statuses) > 0 {
			return fmt.Errorf("statuses only apply to policy %q", PolicyOnStatus)
		}
	case PolicyOnStatus:
		if len(c.Statuses) == 0 {
			return fmt.Errorf("policy %q requires at least one status", PolicyOnStatus)
		}
		for _, code := range c.Statuses {
			if status.ClassOf(code) == status.Unknown {
				return fmt.Errorf("status %d out of range", code)
			}
		}
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries cannot be negative")
	}
	return nil
}
