// Package compute is the client surface of a single secure-computation
// server: view and dataset management plus the cryptographic primitive
// families the server exposes (private set intersection, functional
// encryption joins, homomorphic encryption, CKKS, distributed sums and
// enclave code deployment).
//
// Server is the entry point; each primitive family hangs off it as its own
// handle sharing the server's transport context.
package compute
