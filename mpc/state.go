package mpc

import (
	"encoding/json"
	"strings"
)

// Well-known computation states. The server vocabulary also includes
// intermediate states (queued, accepted, running) that the client only ever
// compares textually.
const (
	StatePlayersQueued = "PlayersQueued"
	StateFinished      = "Finished"
	StateError         = "Error"
)

// State is a player or leader computation state as reported by the server.
// The wire shape is duck-typed: sometimes a bare string tag, sometimes a
// map keyed by sub-state name whose values carry payloads (for instance the
// final results under "Finished"). State models that as an explicit tagged
// union instead of leaving the shape to the caller.
type State struct {
	// Tag is set when the server reported a plain string state.
	Tag string
	// Fields is set when the server reported a structured state.
	Fields map[string]json.RawMessage
}

func (s *State) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		s.Tag = tag
		s.Fields = nil
		return nil
	}
	s.Tag = ""
	return json.Unmarshal(data, &s.Fields)
}

func (s State) MarshalJSON() ([]byte, error) {
	if s.Fields != nil {
		return json.Marshal(s.Fields)
	}
	return json.Marshal(s.Tag)
}

// Is reports whether the state equals name (plain tag) or contains name as
// a sub-state key (structured form).
func (s State) Is(name string) bool {
	if s.Fields != nil {
		_, ok := s.Fields[name]
		return ok
	}
	return s.Tag == name
}

// Get returns the payload stored under the named sub-state, when the state
// is structured and carries one.
func (s State) Get(name string) (json.RawMessage, bool) {
	raw, ok := s.Fields[name]
	return raw, ok
}

// Failed reports whether the state is a terminal failure: an "error"-prefixed
// tag or a structured state containing an Error sub-state.
func (s State) Failed() bool {
	if s.Is(StateError) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(s.Tag), "error")
}

// String renders the state for diagnostics.
func (s State) String() string {
	if s.Fields != nil {
		raw, _ := json.Marshal(s.Fields)
		return string(raw)
	}
	if s.Tag == "" {
		return "<empty>"
	}
	return s.Tag
}

// Player is one roster entry: where the player can be reached and the REST
// endpoint the MPC engines use among themselves.
type Player struct {
	Address  string `json:"address"`
	Endpoint string `json:"endpoint"`
}

// QueueEntry is one player's local view of a queued computation. The
// leader's aggregate view of the same computation id is a different object
// served by a different route; the two must not be conflated.
type QueueEntry struct {
	ComputationID string   `json:"computation_id"`
	State         State    `json:"state"`
	Players       []Player `json:"players"`
	PlayerNumber  int      `json:"player_number"`
	DebugOutput   string   `json:"debug_output"`
}

// UnmarshalJSON tolerates the short wire forms: a bare state string, or a
// structured state map without the entry envelope.
func (e *QueueEntry) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		*e = QueueEntry{State: State{Tag: tag}}
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, hasState := probe["state"]; !hasState {
		// The whole object is the structured state.
		var st State
		if err := st.UnmarshalJSON(data); err != nil {
			return err
		}
		*e = QueueEntry{State: st}
		return nil
	}

	type entryAlias QueueEntry
	var full entryAlias
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*e = QueueEntry(full)
	return nil
}
