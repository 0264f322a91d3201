// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes a logical HTTP
request) and Execution (describes the state of a Plan execution).

A Plan can be executed several times over, once per attempt, because
its body is pre-buffered:

	p, err := request.NewPlan("PUT", "https://example.com/item/1", body)
	...
	e, err := client.Do(p)

A plan may carry a context, which bounds the whole execution including
retry decisions and retry waits:

	p, err := request.NewPlanWithContext(ctx, "GET", "https://example.com", nil)

An Execution is the request context seen by every callback during the
execution: the retry decider reads the status of the attempt from it
(Status, Header) and the backoff reads the attempt number from it.
*/
package request
