// Package cmd provides the CLI commands of the secure-computation client.
//
// # Commands
//
// webapp: Backend for the plugin web UIs, serving protected code deployment
// and view management against a secure-computation server, with a sqlite
// audit trail.
//
//	WEBAPP_SERVER_URL=http://localhost:9876 go run ./cmd/webapp
//
// mpc-run: Runs a quick multi-party computation across a roster of player
// servers, leader first, one data row per player.
//
//	go run ./cmd/mpc-run --servers=http://p0:9876,http://p1:9876,http://p2:9876 \
//	  --program=overlap --data='[[1],[2],[3]]'
package cmd
