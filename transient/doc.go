// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP request attempts. It
// answers two questions a retry decider cares about: whether an error
// is transient (a retry has some prospect of success), and whether the
// request that failed was ever transmitted to the remote peer (a retry
// cannot duplicate side effects).
//
// Both questions are answered by looking through the chain of wrapped
// causes, not just at the outermost error. Use Peel to recover the
// interesting cause from a layered error, Unprocessed to mark an error
// as having happened before the request was sent, and Categorize to
// obtain a transience category.
//
// Package transient depends only on the standard library, so it brings
// no significant dependencies when imported on its own.
package transient
