package mpc

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cosmian/scs/transport"
)

// quickRunID is the computation id the convenience orchestration uses so
// that aborted runs can be found and dequeued by hand.
const quickRunID = "quick_run"

// QuickRunResult is the aggregate outcome of a quick run: the leader's
// debug output and each participant's own results, in roster order.
type QuickRunResult struct {
	DebugOutput string    `json:"debug_output"`
	Data        [][][]any `json:"data"`
}

// Coordinator drives a multi-player computation across a fixed roster of
// player servers. Index 0 is the leader; there is no election.
type Coordinator struct {
	clients       []*Client
	roster        []Player
	computationID string
	waitTimeout   time.Duration
	log           *zap.Logger
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithComputationID overrides the id used for the run.
func WithComputationID(id string) CoordinatorOption {
	return func(co *Coordinator) { co.computationID = id }
}

// WithWaitTimeout bounds each status wait. Zero keeps the 60-second default.
func WithWaitTimeout(d time.Duration) CoordinatorOption {
	return func(co *Coordinator) { co.waitTimeout = d }
}

// WithLogger attaches a logger for cleanup diagnostics.
func WithLogger(log *zap.Logger) CoordinatorOption {
	return func(co *Coordinator) { co.log = log }
}

// WithClientOptions forwards options to every per-player client.
func WithClientOptions(opts ...ClientOption) CoordinatorOption {
	return func(co *Coordinator) {
		for i, server := range co.roster {
			co.clients[i] = NewClient(server.Address, opts...)
		}
	}
}

// NewCoordinator builds one client per server in the roster. The roster
// size is validated here, before any network call.
func NewCoordinator(servers []string, opts ...CoordinatorOption) (*Coordinator, error) {
	if len(servers) < MinPlayers {
		return nil, &transport.PreconditionError{
			Msg: fmt.Sprintf("an MPC computation requires at least %d players, got %d", MinPlayers, len(servers)),
		}
	}

	co := &Coordinator{
		clients:       make([]*Client, len(servers)),
		roster:        make([]Player, len(servers)),
		computationID: quickRunID,
		log:           zap.NewNop(),
	}
	for i, server := range servers {
		co.clients[i] = NewClient(server)
		co.roster[i] = Player{Address: server, Endpoint: server}
	}
	for _, opt := range opts {
		opt(co)
	}
	return co, nil
}

// Leader returns the client for roster index 0.
func (co *Coordinator) Leader() *Client { return co.clients[0] }

// Players returns the full roster.
func (co *Coordinator) Players() []Player { return co.roster }

// QuickRun executes program across the roster: the leader queues, waits for
// all players to be queued, every participant accepts its own row of data,
// and the leader waits for the run to finish before results are collected
// from each player. On any failure the queue entry is dequeued on every
// rostered server on a best-effort basis (cleanup failures are logged and
// swallowed, never masking the original error) and the leader's debug
// output is logged for diagnosis.
func (co *Coordinator) QuickRun(program Program, data [][]any) (*QuickRunResult, error) {
	if len(data) != len(co.clients) {
		return nil, &transport.PreconditionError{
			Msg: fmt.Sprintf("need one data row per player: %d rows for %d players", len(data), len(co.clients)),
		}
	}

	result, err := co.run(program, data)
	if err != nil {
		co.cleanup()
		return nil, err
	}
	return result, nil
}

func (co *Coordinator) run(program Program, data [][]any) (*QuickRunResult, error) {
	leader := co.Leader()

	id, err := leader.Queue(program, co.roster, &QueueOptions{ComputationID: co.computationID})
	if err != nil {
		return nil, err
	}

	if err := leader.WaitForLeaderStatus(id, StatePlayersQueued, co.waitTimeout); err != nil {
		return nil, err
	}

	// Accept order across players is irrelevant; the server alone decides
	// when all have accepted.
	var g errgroup.Group
	for i, client := range co.clients {
		i, client := i, client
		g.Go(func() error {
			if err := client.Accept(id, data[i], ""); err != nil {
				return fmt.Errorf("player %d accept: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := leader.WaitForPlayerStatus(id, StateFinished, co.waitTimeout); err != nil {
		return nil, err
	}

	result := &QuickRunResult{Data: make([][][]any, len(co.clients))}
	if entries, err := leader.Status(); err == nil {
		result.DebugOutput = entries[id].DebugOutput
	}
	for i, client := range co.clients {
		rows, err := client.Results(id)
		if err != nil {
			return nil, fmt.Errorf("player %d results: %w", i, err)
		}
		result.Data[i] = rows
	}
	return result, nil
}

// cleanup dequeues the computation on every rostered server, including ones
// the run never reached. Entries that were never created come back as 404s
// and are silently tolerated.
func (co *Coordinator) cleanup() {
	if entries, err := co.Leader().Status(); err == nil {
		if entry, ok := entries[co.computationID]; ok && entry.DebugOutput != "" {
			co.log.Info("leader debug output", zap.String("computation_id", co.computationID),
				zap.String("debug_output", entry.DebugOutput))
		}
	}
	for i, client := range co.clients {
		if err := client.Dequeue(co.computationID); err != nil {
			var remote *transport.RemoteError
			if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
				continue
			}
			co.log.Warn("cleanup dequeue failed",
				zap.Int("player", i),
				zap.String("server", client.URL()),
				zap.Error(err))
		}
	}
}
