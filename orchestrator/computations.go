package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cosmian/scs/transport"
)

// RunStatusFinished is the single successful terminal run status.
const RunStatusFinished = "finished"

// Computation is the orchestrator's representation of a named computation.
// Beyond the identifying fields the attribute bag is opaque to this client
// and round-trips unchanged.
type Computation struct {
	UUID     string
	Revision string
	Name     string
	Attrs    map[string]json.RawMessage
}

// UnmarshalJSON keeps unknown attributes in the bag so edits made through
// other tools survive a retrieve/launch round trip.
func (c *Computation) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	str := func(key string) string {
		var s string
		if raw, ok := all[key]; ok {
			_ = json.Unmarshal(raw, &s)
		}
		return s
	}
	c.UUID = str("uuid")
	c.Revision = str("revision")
	c.Name = str("name")
	c.Attrs = all
	return nil
}

// Run is one execution of a computation at a fixed revision. Results are
// rows of columns and are only meaningful once Status is "finished".
type Run struct {
	UUID    string  `json:"uuid"`
	Status  string  `json:"status"`
	Results [][]any `json:"results"`
}

// Terminal reports whether the run reached a terminal state: "finished" or
// any status string starting with "error".
func (r *Run) Terminal() bool {
	return r.Status == RunStatusFinished || strings.HasPrefix(r.Status, "error")
}

// Succeeded reports whether the run finished successfully.
func (r *Run) Succeeded() bool { return r.Status == RunStatusFinished }

// Computations is the client for the computations management API.
type Computations struct {
	ctx          *transport.Context
	pollInterval time.Duration
}

// List returns all computations visible to the current session.
func (c *Computations) List() ([]Computation, error) {
	var out []Computation
	if err := c.ctx.Get("/computations", nil, &out, "Computations::failed listing the computations"); err != nil {
		return nil, err
	}
	return out, nil
}

// Retrieve fetches a computation by UUID from the source of truth.
func (c *Computations) Retrieve(uuid string) (*Computation, error) {
	var out Computation
	err := c.ctx.Get("/computations/"+uuid, nil, &out,
		fmt.Sprintf("Computations::failed retrieving computation: %s", uuid))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a computation and all its runs.
func (c *Computations) Delete(uuid string) error {
	return c.ctx.Delete("/computations/"+uuid, nil, nil,
		fmt.Sprintf("Computations::failed deleting computation: %s", uuid))
}

// Duplicate copies a computation's definition under a new UUID.
func (c *Computations) Duplicate(uuid string) (*Computation, error) {
	var out Computation
	err := c.ctx.Post("/computations/"+uuid+"/duplicate", map[string]string{}, nil, &out,
		fmt.Sprintf("Computations::failed duplicating computation: %s", uuid))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Launch queues a new run of the computation. When revision is empty the
// computation is first retrieved to discover its current revision. This
// fires the run; it does not wait for completion. The returned
// representation is whatever the server reports at queue time and may be
// stale by the time it is read.
func (c *Computations) Launch(uuid, revision string) (*Computation, error) {
	if revision == "" {
		comp, err := c.Retrieve(uuid)
		if err != nil {
			return nil, err
		}
		revision = comp.Revision
	}
	var out Computation
	err := c.ctx.Post("/computations/"+uuid+"/queue", map[string]string{"revision": revision}, nil, &out,
		fmt.Sprintf("Computations::failed queuing computation: %s", uuid))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Runs accesses the run introspection API for one computation.
func (c *Computations) Runs(uuid string) *Runs {
	return &Runs{ctx: c.ctx, uuid: uuid}
}

// WaitForCompletion polls the computation's latest run until it reaches a
// terminal state and returns its UUID and status. The loop is unbounded;
// cancel ctx to stop waiting early. Callers must treat any returned status
// other than "finished" as a failure and must not read results for it.
func (c *Computations) WaitForCompletion(ctx context.Context, uuid string) (runUUID, status string, err error) {
	return c.wait(ctx, uuid, 0)
}

// WaitForCompletionTimeout is WaitForCompletion with an upper bound; it
// returns a TimeoutError when the run is still not terminal after timeout.
func (c *Computations) WaitForCompletionTimeout(ctx context.Context, uuid string, timeout time.Duration) (runUUID, status string, err error) {
	return c.wait(ctx, uuid, timeout)
}

func (c *Computations) wait(ctx context.Context, uuid string, timeout time.Duration) (string, string, error) {
	runs := c.Runs(uuid)
	start := time.Now()
	last := ""
	for {
		run, err := runs.Latest()
		if err != nil {
			return "", "", err
		}
		if run.Terminal() {
			return run.UUID, run.Status, nil
		}
		last = run.Status

		if timeout > 0 && time.Since(start)+c.pollInterval > timeout {
			return "", "", &transport.TimeoutError{
				What:      fmt.Sprintf("completion of computation %s", uuid),
				Elapsed:   time.Since(start),
				LastState: last,
			}
		}
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Runs is the client for one computation's runs.
type Runs struct {
	ctx  *transport.Context
	uuid string
}

// List returns all runs of the computation in server-reported order.
// The ordering is not part of the server contract; callers should not rely
// on positional indexing.
func (r *Runs) List() ([]Run, error) {
	var out []Run
	err := r.ctx.Get(fmt.Sprintf("/computations/%s/runs", r.uuid), nil, &out,
		fmt.Sprintf("Computation Runs::failed listing the runs for computation: %s", r.uuid))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recently created run.
func (r *Runs) Latest() (*Run, error) {
	var out Run
	err := r.ctx.Get(fmt.Sprintf("/computations/%s/runs/latest", r.uuid), nil, &out,
		fmt.Sprintf("Computation Runs::failed retrieving the latest run for computation: %s", r.uuid))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrieve returns one run by UUID.
func (r *Runs) Retrieve(runUUID string) (*Run, error) {
	var out Run
	err := r.ctx.Get(fmt.Sprintf("/computations/%s/runs/%s", r.uuid, runUUID), nil, &out,
		fmt.Sprintf("Computation Runs::failed retrieving run %s for computation: %s", runUUID, r.uuid))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
