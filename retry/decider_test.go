// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/retryx/backoff"
	"github.com/gogama/retryx/request"
	"github.com/gogama/retryx/status"
	"github.com/gogama/retryx/transient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNever(t *testing.T) {
	never := Never()
	for i, e := range executions() {
		for j, cause := range causes() {
			t.Run(fmt.Sprintf("executions[%d].causes[%d]", i, j), func(t *testing.T) {
				assertOutcome(t, Stop(), never.Decide(e, cause))
			})
		}
	}
}

func TestOnUnprocessed(t *testing.T) {
	b := backoff.Fixed(10 * time.Millisecond)
	d := OnUnprocessed(b)
	t.Run("unprocessed", func(t *testing.T) {
		for i, cause := range unprocessedErrs() {
			t.Run(fmt.Sprintf("unprocessedErrs[%d]", i), func(t *testing.T) {
				assertOutcome(t, RetryAfter(b), d.Decide(&request.Execution{}, cause))
			})
		}
	})
	t.Run("not unprocessed", func(t *testing.T) {
		for i, cause := range append(transientErrs, nonTransientErrs...) {
			t.Run(fmt.Sprintf("cause[%d]=%v", i, cause), func(t *testing.T) {
				assertOutcome(t, Stop(), d.Decide(&request.Execution{}, cause))
				assertOutcome(t, Stop(), d.Decide(execution(503), cause))
			})
		}
	})
	t.Run("nil backoff", func(t *testing.T) {
		assert.PanicsWithValue(t, nilBackoffMsg, func() {
			OnUnprocessed(nil)
		})
	})
	t.Run("default backoff", func(t *testing.T) {
		assertOutcome(t, RetryAfter(backoff.Default()), RetryUnprocessed().Decide(&request.Execution{}, unprocessedErrs()[0]))
	})
}

func TestOnServerErrorStatus(t *testing.T) {
	b := backoff.Exponential(time.Millisecond, time.Second, false)
	d := OnServerErrorStatus(b)
	someFailure := errors.New("some failure")
	testCases := []struct {
		name     string
		e        *request.Execution
		cause    error
		expected Outcome
	}{
		{"200 none", execution(200), nil, Stop()},
		{"503 none", execution(503), nil, RetryAfter(b)},
		{"200 failure", execution(200), someFailure, RetryAfter(b)},
		{"404 none", execution(404), nil, Stop()},
		{"none failure", &request.Execution{}, someFailure, RetryAfter(b)},
		{"none none", &request.Execution{}, nil, Stop()},
		{"500 none", execution(500), nil, RetryAfter(b)},
		{"599 none", execution(599), nil, RetryAfter(b)},
		{"600 none", execution(600), nil, Stop()},
		{"429 none", execution(429), nil, Stop()},
		{"none unprocessed", &request.Execution{}, unprocessedErrs()[2], RetryAfter(b)},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assertOutcome(t, testCase.expected, d.Decide(testCase.e, testCase.cause))
		})
	}
	t.Run("nil backoff", func(t *testing.T) {
		assert.PanicsWithValue(t, nilBackoffMsg, func() {
			OnServerErrorStatus(nil)
		})
	})
	t.Run("default backoff", func(t *testing.T) {
		assertOutcome(t, RetryAfter(backoff.Default()), RetryServerError().Decide(execution(502), nil))
	})
}

func TestOnStatus(t *testing.T) {
	t.Run("passes status and cause", func(t *testing.T) {
		type call struct {
			code  status.Code
			cause error
		}
		cause := errors.New("read failed")
		testCases := []struct {
			e        *request.Execution
			cause    error
			expected call
		}{
			{&request.Execution{}, cause, call{status.None, cause}},
			{execution(418), nil, call{418, nil}},
			{execution(500), cause, call{500, cause}},
		}
		for i, testCase := range testCases {
			t.Run(fmt.Sprintf("testCases[%d]", i), func(t *testing.T) {
				var actual call
				d := OnStatus(func(code status.Code, cause error) (Outcome, error) {
					actual = call{code, cause}
					return Stop(), nil
				})
				assertOutcome(t, Stop(), d.Decide(testCase.e, testCase.cause))
				assert.Equal(t, testCase.expected, actual)
			})
		}
	})
	t.Run("result is the function result", func(t *testing.T) {
		b := backoff.Fixed(time.Minute)
		d := OnStatus(func(code status.Code, _ error) (Outcome, error) {
			if code == 409 {
				return RetryAfter(b), nil
			}
			return Stop(), nil
		})
		assertOutcome(t, RetryAfter(b), d.Decide(execution(409), nil))
		assertOutcome(t, Stop(), d.Decide(execution(410), nil))
		assertOutcome(t, Stop(), d.Decide(&request.Execution{}, errors.New("x")))
	})
	t.Run("function error is a fault", func(t *testing.T) {
		cause := errors.New("broken policy")
		d := OnStatus(func(_ status.Code, _ error) (Outcome, error) {
			return RetryAfter(backoff.Default()), cause
		})
		o, err := d.Decide(execution(503), nil).Result()
		assert.Equal(t, Stop(), o)
		var f *FaultError
		require.ErrorAs(t, err, &f)
		assert.Same(t, cause, f.Err)
	})
	t.Run("function panic is a fault", func(t *testing.T) {
		d := OnStatus(func(_ status.Code, _ error) (Outcome, error) {
			var m map[string]int
			m["x"]++
			return Stop(), nil
		})
		_, err := d.Decide(execution(503), nil).Result()
		var f *FaultError
		require.ErrorAs(t, err, &f)
		assert.Contains(t, f.Err.Error(), "panic: ")
	})
	t.Run("nil function", func(t *testing.T) {
		assert.PanicsWithValue(t, nilStatusFuncMsg, func() {
			OnStatus(nil)
		})
	})
}

func TestDefault(t *testing.T) {
	d := Default()
	t.Run("Retryable status codes", func(t *testing.T) {
		for i, code := range []int{429, 502, 503, 504} {
			t.Run(fmt.Sprintf("codes[%d]=%d", i, code), func(t *testing.T) {
				e := execution(code)
				for j := 0; j < DefaultTimes; j++ {
					e.Attempt = j
					assertOutcome(t, RetryAfter(backoff.Default()), d.Decide(e, nil))
				}
				e.Attempt = DefaultTimes
				assertOutcome(t, Stop(), d.Decide(e, nil))
			})
		}
	})
	t.Run("Non-retryable status codes", func(t *testing.T) {
		for i, code := range []int{200, 201, 202, 203, 204, 205, 400, 401, 402, 403, 404, 500} {
			t.Run(fmt.Sprintf("codes[%d]=%d", i, code), func(t *testing.T) {
				e := execution(code)
				assertOutcome(t, Stop(), d.Decide(e, nil))
				e.Attempt = 4
				assertOutcome(t, Stop(), d.Decide(e, nil))
			})
		}
	})
	t.Run("Transient and unprocessed errors", func(t *testing.T) {
		for i, cause := range append(transientErrs, unprocessedErrs()...) {
			t.Run(fmt.Sprintf("cause[%d]=%v", i, cause), func(t *testing.T) {
				e := &request.Execution{}
				for j := 0; j < DefaultTimes; j++ {
					e.Attempt = j
					assertOutcome(t, RetryAfter(backoff.Default()), d.Decide(e, cause))
				}
				e.Attempt = DefaultTimes
				assertOutcome(t, Stop(), d.Decide(e, cause))
			})
		}
	})
	t.Run("Non-transient errors", func(t *testing.T) {
		for i, cause := range nonTransientErrs {
			t.Run(fmt.Sprintf("nonTransientErrs[%d]=%v", i, cause), func(t *testing.T) {
				assertOutcome(t, Stop(), d.Decide(&request.Execution{}, cause))
				assertOutcome(t, Stop(), d.Decide(&request.Execution{Attempt: 4}, cause))
			})
		}
	})
}

func TestDeciderFunc(t *testing.T) {
	var calledWith error
	cause := errors.New("qux")
	d := DeciderFunc(func(_ *request.Execution, c error) *Decision {
		calledWith = c
		return Settled(Stop())
	})
	assertOutcome(t, Stop(), d.Decide(&request.Execution{}, cause))
	assert.Same(t, cause, calledWith)
}

func TestBuiltIns_Idempotent(t *testing.T) {
	deciders := map[string]Decider{
		"Never":               Never(),
		"OnUnprocessed":       RetryUnprocessed(),
		"OnServerErrorStatus": RetryServerError(),
		"Default":             Default(),
	}
	for name, d := range deciders {
		t.Run(name, func(t *testing.T) {
			for i, e := range executions() {
				for j, cause := range causes() {
					first, err1 := d.Decide(e, cause).Result()
					second, err2 := d.Decide(e, cause).Result()
					assert.NoError(t, err1)
					assert.NoError(t, err2)
					assert.True(t, first == second, "executions[%d].causes[%d]: %v != %v", i, j, first, second)
				}
			}
		})
	}
}

func TestBuiltIns_Stateless(t *testing.T) {
	b := backoff.Fixed(time.Second)
	d := OnServerErrorStatus(b)
	retrying := execution(503)
	stopping := execution(200)
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if (g+i)%2 == 0 {
					o, err := d.Decide(retrying, nil).Wait(context.Background())
					assert.NoError(t, err)
					assert.Equal(t, RetryAfter(b), o)
				} else {
					o, err := d.Decide(stopping, nil).Wait(context.Background())
					assert.NoError(t, err)
					assert.Equal(t, Stop(), o)
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestBuiltIns_DoNotModifyExecution(t *testing.T) {
	e := execution(503)
	e.Attempt = 2
	before := *e
	for _, d := range []Decider{Never(), RetryUnprocessed(), RetryServerError(), Default()} {
		d.Decide(e, unprocessedErrs()[1])
	}
	assert.Equal(t, before, *e)
}

func assertOutcome(t *testing.T, expected Outcome, d *Decision) {
	t.Helper()
	require.NotNil(t, d)
	select {
	case <-d.Done():
	default:
		require.Fail(t, "decision not settled")
	}
	actual, err := d.Result()
	assert.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func execution(code int) *request.Execution {
	return &request.Execution{
		Response: &http.Response{StatusCode: code},
	}
}

func executions() []*request.Execution {
	return []*request.Execution{
		{},
		execution(200),
		execution(404),
		execution(500),
		execution(503),
		{Attempt: 3, Response: &http.Response{StatusCode: 502}},
	}
}

func causes() []error {
	errs := []error{nil}
	errs = append(errs, transientErrs...)
	errs = append(errs, nonTransientErrs[1:]...)
	return append(errs, unprocessedErrs()...)
}

func unprocessedErrs() []error {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}
	return []error{
		transient.Unprocessed(dial),
		&url.Error{Op: "Get", URL: "http://example.com", Err: transient.Unprocessed(dial)},
		fmt.Errorf("level 1: %w",
			fmt.Errorf("level 2: %w",
				&url.Error{Op: "Post", URL: "http://example.com", Err: transient.Unprocessed(errors.New("never sent"))})),
	}
}

var (
	transientErrs = []error{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ETIMEDOUT,
	}
	nonTransientErrs = []error{
		nil,
		errors.New("ain't transient"),
		syscall.EHOSTUNREACH,
		syscall.ENETDOWN,
	}
)
