// Package mpc drives multi-party computations across independently
// addressed player servers.
//
// One player, roster index 0 by convention, acts as the leader: it queues
// the computation definition and the full roster on its own server, which
// fans the request out to the other players. Every player, leader included,
// must then accept the computation with its own private input data before
// the run proceeds; the server, never the client, decides when all players
// have accepted. Each player's progress is observed by polling that
// player's own endpoint, and results are collected per player once its
// local state is terminal.
//
// There is no leader election. A roster whose index 0 is unreachable fails
// at the first leader-only call.
package mpc
