package mpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cosmian/scs/transport"
)

// Linear secret sharing configuration used for every computation. The
// modulus is the fixed prime the MPC engines are deployed with.
const (
	lsssThreshold = 1
	lsssModP      = "146994499793943626591367124308987067351"
)

const (
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 60 * time.Second
)

// MinPlayers is the smallest roster an MPC computation accepts.
const MinPlayers = 3

// Program identifies the code to run: a source-repository reference and
// revision, or inline source.
type Program struct {
	Name     string `json:"name,omitempty"`
	Repo     string `json:"repo,omitempty"`
	Revision string `json:"revision,omitempty"`
	Source   string `json:"source,omitempty"`
}

// QueueOptions are the optional parts of a queue call.
type QueueOptions struct {
	// ComputationID names the computation; when empty the server assigns
	// one. Whatever id results must be reused for every subsequent call.
	ComputationID string
	// Data embeds the leader's input rows at queue time. Older protocol
	// servers take inputs here; newer ones defer all inputs to Accept.
	Data [][]any
	// OutputView names the server-side view the results are written to.
	OutputView string
}

// Client talks to one player server. Each player gets its own Client; there
// is no shared session across players.
type Client struct {
	ctx          *transport.Context
	pollInterval time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithPollInterval overrides the one-second status polling interval,
// meant for tests.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates a client for one player server.
func NewClient(serverURL string, opts ...ClientOption) *Client {
	c := &Client{
		ctx:          transport.New(serverURL),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the player server URL this client is bound to.
func (c *Client) URL() string { return c.ctx.URL() }

// CreateProgram uploads a new program under the given name. The upload is
// done once; the program can then be referenced by later computations.
func (c *Client) CreateProgram(name, source string) error {
	return c.ctx.Post("/mpc/program/"+name, map[string]string{"source": source}, nil, nil,
		"Mpc::failed to upload program")
}

// UpdateProgram replaces an existing program's source in place.
func (c *Client) UpdateProgram(name, source string) error {
	return c.ctx.Put("/mpc/program/"+name, map[string]string{"source": source}, nil, nil,
		"Mpc::failed to update program")
}

// DeleteProgram removes a program from the server.
func (c *Client) DeleteProgram(name string) error {
	return c.ctx.Delete("/mpc/program/"+name, nil, nil, "Mpc::failed to delete program")
}

// Program downloads the compiled program in the server's assembly format.
func (c *Client) Program(name string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.ctx.Get("/mpc/program/"+name, nil, &raw, "Mpc::failed to download program assembly")
	return raw, err
}

// SetOutputFormat registers the mapping from MPC array output to column
// names.
func (c *Client) SetOutputFormat(format any) error {
	return c.ctx.Post("/mpc/output_format", format, nil, nil, "Mpc::failed to set output format")
}

// Queue is the leader-only call registering the computation definition and
// the full player roster on this server, which relays it to the other
// players. The roster is validated before any network call. Returns the
// computation id every subsequent call must use.
func (c *Client) Queue(program Program, players []Player, opts *QueueOptions) (string, error) {
	if len(players) < MinPlayers {
		return "", &transport.PreconditionError{
			Msg: fmt.Sprintf("an MPC computation requires at least %d players, got %d", MinPlayers, len(players)),
		}
	}
	if opts == nil {
		opts = &QueueOptions{}
	}

	payload := map[string]any{
		"program":     program,
		"data":        opts.Data,
		"output_view": outputViewValue(opts.OutputView),
		"setup": map[string]any{
			"lsss": map[string]any{
				"threshold": lsssThreshold,
				"modp":      lsssModP,
			},
			"players":  players,
			"my_index": 0,
		},
	}

	path := "/mpc/queue"
	if opts.ComputationID != "" {
		path = "/mpc/" + opts.ComputationID
	}

	var resp map[string]json.RawMessage
	if err := c.ctx.Post(path, payload, nil, &resp, "Mpc::failed to enqueue program"); err != nil {
		return "", err
	}
	if opts.ComputationID != "" {
		return opts.ComputationID, nil
	}
	for _, key := range []string{"computation_id", "handle", "local_id"} {
		if raw, ok := resp[key]; ok {
			var id string
			if err := json.Unmarshal(raw, &id); err == nil && id != "" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("Mpc::queue response carries no computation id")
}

// Accept submits this player's private input data for an already-queued
// computation. Every player must accept exactly once; a player that never
// does stalls the computation for everyone.
func (c *Client) Accept(computationID string, data []any, outputView string) error {
	payload := map[string]any{
		"local_id":    computationID,
		"data":        data,
		"output_view": outputViewValue(outputView),
	}
	return c.ctx.Post("/mpc/accept", payload, nil, nil, "Mpc::failed to accept program")
}

// An absent output view travels as null; a server may treat "" as a view
// actually named empty-string.
func outputViewValue(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// LeaderStatus returns the leader's aggregate view of the computation
// across all players. Only meaningful on the leader's server.
func (c *Client) LeaderStatus(computationID string) (State, error) {
	var st State
	err := c.ctx.Get("/mpc/leader/"+computationID, nil, &st,
		"Mpc::failed to get leader status")
	return st, err
}

// Status returns this player's local queue, keyed by computation id.
func (c *Client) Status() (map[string]QueueEntry, error) {
	var out map[string]QueueEntry
	if err := c.ctx.Get("/mpc/status", nil, &out, "Mpc::failed to get mpc status"); err != nil {
		return nil, err
	}
	return out, nil
}

// Finished reports whether the computation has finished on this player.
func (c *Client) Finished(handle string) (bool, error) {
	var finished bool
	err := c.ctx.Get(fmt.Sprintf("/mpc/%s/finished", handle), nil, &finished,
		"Mpc::failed to query mpc `finished` flag")
	return finished, err
}

// Results returns all available results from this player. Only valid once
// this player's local state is terminal.
func (c *Client) Results(handle string) ([][]any, error) {
	var out [][]any
	err := c.ctx.Get(fmt.Sprintf("/mpc/%s/results", handle), nil, &out,
		"Mpc::failed to get mpc results")
	return out, err
}

// Result returns the result row with the given index from this player.
func (c *Client) Result(handle string, idx int) ([]any, error) {
	var out []any
	err := c.ctx.Get(fmt.Sprintf("/mpc/%s/result/%s", handle, strconv.Itoa(idx)), nil, &out,
		"Mpc::failed to get mpc result")
	return out, err
}

// Dequeue removes this player's local queue entry. Other players are only
// affected in that their side of the computation fails if it was still in
// flight; this is not a graceful abort protocol.
func (c *Client) Dequeue(handle string) error {
	return c.ctx.Delete("/mpc/"+handle, nil, nil, "Mpc::failed to remove mpc queue entry")
}

// Stop hard-terminates the current MPC node. Connected nodes will emit
// errors.
func (c *Client) Stop() error {
	return c.ctx.Get("/mpc/stop", nil, nil, "Mpc::failed to shut down mpc")
}

// WaitForLeaderStatus polls the leader's aggregate view at the poll
// interval until it equals or contains state. A zero timeout means the
// 60-second default. Failure states and countdown exhaustion are reported
// as ComputationError and TimeoutError respectively.
func (c *Client) WaitForLeaderStatus(computationID, state string, timeout time.Duration) error {
	_, err := c.waitFor(computationID, state, timeout, func() (State, string, error) {
		st, err := c.LeaderStatus(computationID)
		return st, "", err
	})
	return err
}

// WaitForPlayerStatus polls this player's own local queue until the entry
// for computationID equals or contains state. When the matched state is
// structured, the payload stored under state is returned (for instance the
// final results under "Finished").
func (c *Client) WaitForPlayerStatus(computationID, state string, timeout time.Duration) (json.RawMessage, error) {
	return c.waitFor(computationID, state, timeout, func() (State, string, error) {
		entries, err := c.Status()
		if err != nil {
			return State{}, "", err
		}
		entry, ok := entries[computationID]
		if !ok {
			return State{Tag: "not_queued"}, "", nil
		}
		return entry.State, entry.DebugOutput, nil
	})
}

func (c *Client) waitFor(computationID, state string, timeout time.Duration, observe func() (State, string, error)) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	start := time.Now()
	last := State{}
	for {
		st, debug, err := observe()
		if err != nil {
			return nil, err
		}
		if st.Is(state) {
			raw, _ := st.Get(state)
			return raw, nil
		}
		if st.Failed() {
			return nil, &transport.ComputationError{
				Handle:     computationID,
				Status:     st.String(),
				Diagnostic: debug,
			}
		}
		last = st

		if time.Since(start)+c.pollInterval > timeout {
			return nil, &transport.TimeoutError{
				What:      fmt.Sprintf("state %q of computation %s", state, computationID),
				Elapsed:   time.Since(start),
				LastState: last.String(),
			}
		}
		time.Sleep(c.pollInterval)
	}
}
