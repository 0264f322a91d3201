// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retryx provides a robust HTTP client whose retries are driven
by pluggable, asynchronous retry deciders.

Create a Client to begin making requests.

	client := &retryx.Client{}
	ex, err := client.Get("https://www.example.com")
	...
	ex, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)

After every attempt the client asks its Decider whether to retry. The
decider returns a retry.Decision, which may already be settled or may
settle later, for example after consulting a remote quota service. A
settled decision carries an Outcome: either stop, or retry after the
wait computed by a backoff.Backoff. Package retry provides built-in
deciders and the conditions to compose them:

	client := &retryx.Client{
		Decider: retry.Bounded(retry.Times(3),
			retry.OnServerErrorStatus(backoff.Exponential(100*time.Millisecond, 2*time.Second, true))),
	}

Requests which failed before anything was sent, such as dial or DNS
failures, are marked with transient.UnprocessedError. Retrying them is
safe whatever the method, which is what retry.OnUnprocessed does.

For control over how the client sends HTTP requests and receives HTTP
responses, use a custom HTTPDoer, such as a standard library client:

	client := &retryx.Client{
		HTTPDoer: &http.Client{Transport: transport},
	}

Individual attempt timeouts are set by a timeout.Policy, and attempts
can be throttled by a rate.Limiter from golang.org/x/time/rate:

	client := &retryx.Client{
		TimeoutPolicy: timeout.Fixed(10*time.Second),
		Limiter:       rate.NewLimiter(10, 1),
	}

A whole client can also be described in YAML and loaded with
LoadConfig.

To hook into the details of request execution, install handlers into a
HandlerGroup. LogHandlers returns a ready-made group which writes
structured logs with log/slog:

	handlers := retryx.LogHandlers(slog.Default())
	handlers.PushBack(retryx.BeforeAttempt, retryx.HandlerFunc(
		func(_ retryx.Event, e *request.Execution) {
			e.Request.Header.Set("X-Attempt", strconv.Itoa(e.Attempt))
		}))
	client := &retryx.Client{
		Handlers: handlers,
	}

Package retryx provides basic interfaces for each method of the robust
client (Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a
combined interface that composes all the basic methods (Executor); and
utility functions for working with a Doer (Inflate, Get, Head, Post,
and PostForm).
*/
package retryx
