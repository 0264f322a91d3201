// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

import (
	"fmt"
	"os"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/gogama/retryx/retry"
	"github.com/gogama/retryx/timeout"
)

// Config is the declarative form of a Client, suitable for
// unmarshalling from YAML:
//
//	retry:
//	  policy: on-server-error
//	  max-retries: 3
//	  backoff:
//	    kind: fixed
//	    base: 250ms
//	timeout:
//	  attempt: 2s
//	rate-limit:
//	  per-second: 20
//	  burst: 5
//
// The zero Config describes a Client with the default decider, the
// default timeout policy and no rate limit.
type Config struct {
	// Retry describes the Decider.
	Retry retry.Config `yaml:"retry"`
	// Timeout describes the TimeoutPolicy.
	Timeout timeout.Config `yaml:"timeout"`
	// RateLimit describes the Limiter. If nil, attempts are not
	// throttled.
	RateLimit *RateLimitConfig `yaml:"rate-limit"`
}

// RateLimitConfig describes a token bucket rate limiter.
type RateLimitConfig struct {
	// PerSecond is the number of attempts allowed per second. It must
	// be positive.
	PerSecond float64 `yaml:"per-second"`
	// Burst is the bucket size. Zero means 1.
	Burst int `yaml:"burst"`
}

// ParseConfig parses a YAML client configuration and validates it.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("retryx: failed to parse config: %w", err)
	}
	if _, err := c.Client(nil); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads and parses the YAML client configuration in the
// named file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("retryx: failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// Client builds a new Client described by c which sends its requests
// through doer. A nil doer means http.DefaultClient. Handlers and Clock
// are left for the caller to set.
func (c *Config) Client(doer HTTPDoer) (*Client, error) {
	decider, err := c.Retry.Decider()
	if err != nil {
		return nil, err
	}
	timeoutPolicy, err := c.Timeout.Policy()
	if err != nil {
		return nil, err
	}
	limiter, err := c.RateLimit.limiter()
	if err != nil {
		return nil, err
	}
	return &Client{
		HTTPDoer:      doer,
		Decider:       decider,
		TimeoutPolicy: timeoutPolicy,
		Limiter:       limiter,
	}, nil
}

func (c *RateLimitConfig) limiter() (*rate.Limiter, error) {
	if c == nil {
		return nil, nil
	}
	if c.PerSecond <= 0 {
		return nil, fmt.Errorf("retryx: invalid config: rate-limit per-second must be positive, not %g", c.PerSecond)
	}
	burst := c.Burst
	if burst < 0 {
		return nil, fmt.Errorf("retryx: invalid config: negative rate-limit burst %d", burst)
	} else if burst == 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.PerSecond), burst), nil
}
