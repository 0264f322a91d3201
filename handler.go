// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

import (
	"github.com/gogama/retryx/request"
)

// A Handler handles the occurrence of an event during a request plan
// execution.
type Handler interface {
	Handle(Event, *request.Execution)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// A HandlerGroup holds one chain of handlers per event. Install it in a
// Client to plug custom behavior into the attempt and retry loop. The
// zero value is an empty group.
//
// A HandlerGroup must not be modified while a Client using it is
// executing a plan.
type HandlerGroup struct {
	handlers [numEvents][]Handler
}

// PushBack adds h to the back of the handler chain for evt. It panics
// if h is nil or evt is not a valid event.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("retryx: nil handler")
	}
	if evt < 0 || int(evt) >= numEvents {
		panic("retryx: invalid event")
	}
	g.handlers[evt] = append(g.handlers[evt], h)
}

// Merge appends every handler chain of other to the back of the
// matching chain of g.
func (g *HandlerGroup) Merge(other *HandlerGroup) {
	for i := range other.handlers {
		g.handlers[i] = append(g.handlers[i], other.handlers[i]...)
	}
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	for _, h := range g.handlers[evt] {
		h.Handle(evt, e)
	}
}
