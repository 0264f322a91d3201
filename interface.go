// Copyright 2021 The retryx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retryx

import (
	"net/url"

	"github.com/gogama/retryx/request"
)

// Doer executes a request plan, retrying as its policy directs, and
// returns the final execution state. Any Doer must behave substantially
// like Client.Do. Inflate turns a Doer into an Executor.
type Doer interface {
	Do(p *request.Plan) (*request.Execution, error)
}

// Getter wraps the Get method, which must behave like Client.Get.
type Getter interface {
	Get(url string) (*request.Execution, error)
}

// Header wraps the Head method, which must behave like Client.Head.
type Header interface {
	Head(url string) (*request.Execution, error)
}

// Poster wraps the Post method, which must behave like Client.Post.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Execution, error)
}

// FormPoster wraps the PostForm method, which must behave like
// Client.PostForm.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Execution, error)
}

// IdleCloser wraps the CloseIdleConnections method, which closes
// keep-alive connections left idle by previous requests without
// interrupting connections in use. Implementations which keep no
// connections do nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor groups the Do, Get, Head, Post, PostForm and
// CloseIdleConnections methods. Client is an Executor.
type Executor interface {
	Doer
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get issues a GET to the specified URL using d.
func Get(d Doer, url string) (*request.Execution, error) {
	return doNew(d, "GET", url, "", nil)
}

// Head issues a HEAD to the specified URL using d.
func Head(d Doer, url string) (*request.Execution, error) {
	return doNew(d, "HEAD", url, "", nil)
}

// Post issues a POST to the specified URL using d. The body may be nil
// or any type accepted by request.BodyBytes.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return doNew(d, "POST", url, contentType, b)
}

// PostForm issues a POST to the specified URL using d, with data's keys
// and values URL-encoded as the body and the content type set to
// application/x-www-form-urlencoded.
func PostForm(d Doer, url string, data url.Values) (*request.Execution, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data)
}

func doNew(d Doer, method, url, contentType string, body []byte) (*request.Execution, error) {
	p, err := request.NewPlan(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		p.Header.Set("Content-Type", contentType)
	}
	return d.Do(p)
}

// Inflate converts a non-nil Doer into an Executor, returning d itself
// if it already is one.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("retryx: nil doer")
	}
	if e, ok := d.(Executor); ok {
		return e
	}
	return inflated{d}
}

type inflated struct {
	Doer
}

func (i inflated) Get(url string) (*request.Execution, error) {
	return Get(i.Doer, url)
}

func (i inflated) Head(url string) (*request.Execution, error) {
	return Head(i.Doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(i.Doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(i.Doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.Doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
