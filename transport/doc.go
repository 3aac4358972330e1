// Package transport provides the HTTP context shared by every client-side
// API of the secure-computation server.
//
// A Context owns exactly one underlying HTTP session bound to one base URL.
// The synchronous methods (Get, Post, Put, Delete, Upload, Download) must
// not be called from multiple goroutines concurrently on the same Context;
// pooled sessions are not safe for concurrent use by independent call
// sites. The asynchronous variants sidestep this by constructing an
// isolated session per call and resolving a caller-supplied callback.
//
// PUT and DELETE are expressed as POST and GET with an
// x-http-method-override header, which is what the server expects.
package transport
