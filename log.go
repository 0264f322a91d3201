// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/gogama/retryx/request"
)

// Log messages written by the handlers returned from LogHandlers.
const (
	LogMsgAttempt   = "retryx: attempt ended"
	LogMsgRetryWait = "retryx: waiting to retry"
	LogMsgEnd       = "retryx: execution ended"
)

// LogHandlers returns a handler group which writes structured log
// records about an execution to logger. One record is written after
// every attempt, one before every retry wait and one when the
// execution ends.
//
// Records carry the attributes attempt, status, class (the status
// class), err, wait, elapsed (time since the execution started) and
// body (the size of the buffered response body). Attributes with no
// meaningful value, such as status when no response was received, are
// omitted. Successful attempts are logged at debug level and failed
// ones at warn level.
//
// The group can be merged into an existing group with Merge. It panics
// if logger is nil.
func LogHandlers(logger *slog.Logger) *HandlerGroup {
	if logger == nil {
		panic("retryx: nil logger")
	}
	h := &logHandler{logger: logger}
	g := &HandlerGroup{}
	g.PushBack(AfterAttempt, h)
	g.PushBack(BeforeRetryWait, h)
	g.PushBack(AfterExecutionEnd, h)
	return g
}

type logHandler struct {
	logger *slog.Logger
}

func (h *logHandler) Handle(evt Event, e *request.Execution) {
	ctx := context.Background()
	if e.Plan != nil {
		ctx = e.Plan.Context()
	}
	switch evt {
	case AfterAttempt:
		level := slog.LevelDebug
		if e.Err != nil {
			level = slog.LevelWarn
		}
		h.logger.LogAttrs(ctx, level, LogMsgAttempt, resultAttrs(e)...)
	case BeforeRetryWait:
		h.logger.LogAttrs(ctx, slog.LevelInfo, LogMsgRetryWait,
			slog.Int("attempt", e.Attempt),
			slog.Duration("wait", e.RetryWait))
	case AfterExecutionEnd:
		level := slog.LevelInfo
		if e.Err != nil {
			level = slog.LevelError
		}
		h.logger.LogAttrs(ctx, level, LogMsgEnd, resultAttrs(e)...)
	}
}

func resultAttrs(e *request.Execution) []slog.Attr {
	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs, slog.Int("attempt", e.Attempt))
	if code := e.Status(); code.Present() {
		attrs = append(attrs,
			slog.Int("status", int(code)),
			slog.String("class", code.Class().String()))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("err", e.Err.Error()))
	}
	attrs = append(attrs, slog.Duration("elapsed", e.Duration()))
	if e.Body != nil {
		attrs = append(attrs, slog.String("body", humanize.IBytes(uint64(len(e.Body)))))
	}
	return attrs
}
