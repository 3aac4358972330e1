// Package orchestrator is the client for the orchestration service managing
// named computations and their runs.
//
// A computation is owned by the orchestration service; the client holds a
// cache-free handle and re-fetches on every read. Launching a computation
// creates a server-side run whose completion is observed only through
// polling; there is no push channel.
package orchestrator
