// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for the per-attempt timeout the
// robust client sets on each HTTP request attempt, including retries.
//
// A timed-out attempt ends with an error, so from the point of view of
// a retry decider it is an ordinary failure cause: retry.Transient and
// retry.OnServerErrorStatus both retry it.
package timeout
