// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"net/url"
)

const badBodyTypeMsg = "retryx/request: invalid body type (use nil, string, " +
	"[]byte, url.Values or io.Reader)"

// BodyBytes buffers a body argument so that a plan can replay it on
// every attempt of an execution.
//
// A nil body gives a nil slice, a []byte is used as is, a string is
// copied and url.Values are form-encoded. An io.Reader is drained, and
// closed if it is also an io.Closer, even when reading fails. A read
// error takes precedence over a close error. Any other type is an
// error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case url.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		return drain(x)
	}
	return nil, errors.New(badBodyTypeMsg)
}

func drain(r io.Reader) ([]byte, error) {
	b, readErr := io.ReadAll(r)
	var closeErr error
	if c, ok := r.(io.Closer); ok {
		closeErr = c.Close()
	}
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return b, nil
}
