package transport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
)

// Callback resolves an asynchronous JSON call. Exactly one of err and raw
// is meaningful. userCtx is the opaque value supplied at call time, threaded
// through unchanged so callers can correlate concurrent outstanding calls.
type Callback func(err error, raw json.RawMessage, userCtx any)

// SizeCallback resolves an asynchronous download with the number of bytes
// written to the destination file.
type SizeCallback func(err error, size int64, userCtx any)

// Async tracks an in-flight asynchronous call. Wait blocks until the
// callback has been resolved.
type Async struct {
	wg sync.WaitGroup
}

// Wait blocks until the call has completed and its callback returned.
func (a *Async) Wait() { a.wg.Wait() }

func (c *Context) spawn(run func()) *Async {
	a := &Async{}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		run()
	}()
	return a
}

// Pooled sessions are not safe for concurrent use across call sites, so
// every asynchronous call gets its own.
func isolatedClient() *http.Client { return &http.Client{} }

// GetAsync sends a GET request on its own worker and session, resolving cb
// with the outcome. A 404 response resolves cb with a nil error and nil raw
// payload when allow404 is set.
func (c *Context) GetAsync(path string, cb Callback, userCtx any, params url.Values, errMsg string, allow404 bool) *Async {
	return c.spawn(func() {
		raw, found, err := getDelete(isolatedClient(), c.url, path, params, errMsg, allow404, false)
		if err != nil {
			cb(err, nil, userCtx)
			return
		}
		if !found {
			cb(nil, nil, userCtx)
			return
		}
		cb(nil, raw, userCtx)
	})
}

// DeleteAsync sends a DELETE request on its own worker and session.
func (c *Context) DeleteAsync(path string, cb Callback, userCtx any, params url.Values, errMsg string, allow404 bool) *Async {
	return c.spawn(func() {
		raw, found, err := getDelete(isolatedClient(), c.url, path, params, errMsg, allow404, true)
		if err != nil {
			cb(err, nil, userCtx)
			return
		}
		if !found {
			cb(nil, nil, userCtx)
			return
		}
		cb(nil, raw, userCtx)
	})
}

// PostAsync sends a POST request on its own worker and session.
func (c *Context) PostAsync(path string, body any, cb Callback, userCtx any, params url.Values, errMsg string) *Async {
	return c.spawn(func() {
		raw, err := postPut(isolatedClient(), c.url, path, body, params, errMsg, false)
		cb(err, raw, userCtx)
	})
}

// PutAsync sends a PUT request on its own worker and session.
func (c *Context) PutAsync(path string, body any, cb Callback, userCtx any, params url.Values, errMsg string) *Async {
	return c.spawn(func() {
		raw, err := postPut(isolatedClient(), c.url, path, body, params, errMsg, true)
		cb(err, raw, userCtx)
	})
}

// DownloadAsync streams a response body to dataFile on its own worker and
// session, resolving cb with the downloaded size.
func (c *Context) DownloadAsync(path, dataFile string, cb SizeCallback, userCtx any, params url.Values, body any, errMsg string) *Async {
	return c.spawn(func() {
		n, err := download(isolatedClient(), c.url, path, dataFile, params, body, errMsg)
		cb(err, n, userCtx)
	})
}

// UploadAsync uploads dataFile on its own worker and session.
func (c *Context) UploadAsync(path, dataFile string, cb Callback, userCtx any, contentType, fileName string, params url.Values, errMsg string) *Async {
	return c.spawn(func() {
		raw, err := upload(isolatedClient(), c.url, path, dataFile, contentType, fileName, params, errMsg)
		cb(err, raw, userCtx)
	})
}
