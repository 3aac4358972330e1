package orchestrator

import (
	"time"

	"github.com/cosmian/scs/transport"
)

const defaultPollInterval = time.Second

// Orchestrator is the entry point to the orchestration service API.
type Orchestrator struct {
	ctx          *transport.Context
	pollInterval time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPollInterval overrides the interval between run status polls.
// The server contract assumes one second; shorter intervals are meant for
// tests.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// New creates an orchestration client for the given server URL.
func New(orchestratorURL string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ctx:          transport.New(orchestratorURL),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Authentication accesses the authentication API.
func (o *Orchestrator) Authentication() *Authentication {
	return &Authentication{ctx: o.ctx}
}

// Computations accesses the computations management API.
func (o *Orchestrator) Computations() *Computations {
	return &Computations{ctx: o.ctx, pollInterval: o.pollInterval}
}
