package compute

import "github.com/cosmian/scs/transport"

// Server is a connection to one secure-computation server. The zero value
// is not usable; construct with New.
type Server struct {
	ctx *transport.Context
}

// New returns a server handle for the given base URL. A trailing slash is
// tolerated.
func New(serverURL string) *Server {
	return &Server{ctx: transport.New(serverURL)}
}

// Context exposes the underlying transport for callers that need raw
// access, such as the streaming dataset writer.
func (s *Server) Context() *transport.Context { return s.ctx }

// Views manages how data in an underlying source is laid out and accessed,
// including on-the-fly transformations applied when the raw data is read.
func (s *Server) Views() *Views { return &Views{ctx: s.ctx} }

// Datasets exposes data sources through a view; their rows are laid out
// according to the schema that is part of the view.
func (s *Server) Datasets() *Datasets { return &Datasets{ctx: s.ctx} }

// PSI exposes private set intersection: two parties compare encrypted
// versions of their sets so that only the intersection is revealed, to one
// party only.
func (s *Server) PSI() *PSI { return &PSI{ctx: s.ctx} }

// FE exposes the functional encryption join primitives.
func (s *Server) FE() *FE { return &FE{ctx: s.ctx} }

// FHE exposes fully homomorphic encryption over encrypted vectors.
func (s *Server) FHE() *FHE { return &FHE{ctx: s.ctx} }

// CKKS exposes approximate homomorphic arithmetic over real vectors.
func (s *Server) CKKS() *CKKS { return &CKKS{ctx: s.ctx} }

// DSum exposes distributed sums over Curve 25519 secret shares.
func (s *Server) DSum() *DSum { return &DSum{ctx: s.ctx} }

// Enclave exposes code deployment into SGX enclaves. The routines only work
// when the server runs on SGX hardware.
func (s *Server) Enclave() *Enclave { return &Enclave{ctx: s.ctx} }
