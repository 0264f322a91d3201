// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/retryx/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	a := Default().Timeout(&request.Execution{})
	assert.Equal(t, 5*time.Second, a)
	b := Default().Timeout(&request.Execution{AttemptTimeouts: 3, Err: syscall.ETIMEDOUT, Body: []byte("foo")})
	assert.Equal(t, 5*time.Second, b)
}

func TestInfinite(t *testing.T) {
	a := Infinite().Timeout(&request.Execution{})
	assert.Equal(t, time.Duration(math.MaxInt64), a)
	b := Infinite().Timeout(&request.Execution{AttemptTimeouts: 10, Err: syscall.ETIMEDOUT})
	assert.Equal(t, time.Duration(math.MaxInt64), b)
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Execution{}))
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Execution{AttemptTimeouts: 1, Err: syscall.ETIMEDOUT, Attempt: 1}))
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Execution{AttemptTimeouts: 2, Err: syscall.ETIMEDOUT, Attempt: 2}))
}

func TestAdaptive(t *testing.T) {
	p := Adaptive(5*time.Millisecond, 10*time.Millisecond, 100*time.Millisecond)
	x := &request.Execution{}
	assert.Equal(t, 5*time.Millisecond, p.Timeout(x))
	x.AttemptTimeouts = 1
	x.PrevTimedOut = true
	assert.Equal(t, 10*time.Millisecond, p.Timeout(x))
	x.Attempt = 1
	x.PrevTimedOut = false
	assert.Equal(t, 5*time.Millisecond, p.Timeout(x))
	x.Attempt = 2
	x.AttemptTimeouts = 2
	assert.Equal(t, 5*time.Millisecond, p.Timeout(x))
	x.Err = syscall.ETIMEDOUT
	assert.Equal(t, 5*time.Millisecond, p.Timeout(x), "current error is not consulted")
	x.PrevTimedOut = true
	assert.Equal(t, 100*time.Millisecond, p.Timeout(x))
	x.Attempt = 3
	x.AttemptTimeouts = 3
	assert.Equal(t, 100*time.Millisecond, p.Timeout(x))
}

func TestAdaptive_CopiesAfter(t *testing.T) {
	after := []time.Duration{time.Second}
	p := Adaptive(time.Millisecond, after...)
	after[0] = time.Hour
	assert.Equal(t, time.Second, p.Timeout(&request.Execution{AttemptTimeouts: 1, PrevTimedOut: true}))
}

func TestConfig_Policy(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		p, err := Config{}.Policy()
		require.NoError(t, err)
		assert.Equal(t, DefaultTimeout, p.Timeout(&request.Execution{}))
	})
	t.Run("yaml", func(t *testing.T) {
		var c Config
		require.NoError(t, yaml.Unmarshal([]byte("attempt: 200ms\nafter-timeout: [1s, 10s]\n"), &c))
		p, err := c.Policy()
		require.NoError(t, err)
		assert.Equal(t, Adaptive(200*time.Millisecond, time.Second, 10*time.Second), p)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := Config{Attempt: -time.Second}.Policy()
		assert.EqualError(t, err, "retryx/timeout: negative attempt timeout -1s")
		_, err = Config{AfterTimeout: []time.Duration{0}}.Policy()
		assert.EqualError(t, err, "retryx/timeout: non-positive after-timeout 0s")
	})
}
