package mpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmian/scs/transport"
)

// mockCluster is the shared state behind a roster of mock player servers.
// Only the leader (index 0) ever sees queue and status traffic; accepts and
// dequeues arrive per player.
type mockCluster struct {
	mu          sync.Mutex
	queuePayload map[string]any
	accepts      map[int][]any
	dequeues     []int
	stallLeader  bool // leader never reaches PlayersQueued
	failAccept   int  // player index whose accept returns 500, -1 for none
	queued       bool
}

func newMockCluster() *mockCluster {
	return &mockCluster{accepts: map[int][]any{}, failAccept: -1}
}

func (c *mockCluster) playerRouter(t *testing.T, idx, rosterSize int) chi.Router {
	r := chi.NewRouter()

	r.Post("/mpc/{id}", func(w http.ResponseWriter, req *http.Request) {
		require.Zero(t, idx, "only the leader may be queued")
		var payload map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		c.mu.Lock()
		c.queuePayload = payload
		c.queued = true
		c.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"computation_id": chi.URLParam(req, "id")})
	})

	r.Post("/mpc/accept", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if idx == c.failAccept {
			http.Error(w, `{"error":"player storage offline"}`, http.StatusInternalServerError)
			return
		}
		c.mu.Lock()
		c.accepts[idx] = body["data"].([]any)
		c.mu.Unlock()
		w.Write([]byte("{}"))
	})

	r.Get("/mpc/leader/{id}", func(w http.ResponseWriter, req *http.Request) {
		c.mu.Lock()
		state := "queued"
		if c.queued && !c.stallLeader {
			state = StatePlayersQueued
		}
		c.mu.Unlock()
		json.NewEncoder(w).Encode(state)
	})

	r.Get("/mpc/status", func(w http.ResponseWriter, req *http.Request) {
		c.mu.Lock()
		entry := map[string]any{"computation_id": "quick_run", "state": "queued"}
		if len(c.accepts) == rosterSize {
			entry["state"] = StateFinished
			entry["debug_output"] = "mpc ok"
		}
		c.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"quick_run": entry})
	})

	r.Get("/mpc/{handle}/results", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode([][]any{{idx * 10}})
	})

	// Dequeue arrives as GET with a method override header.
	r.Get("/mpc/{handle}", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, http.MethodDelete, req.Header.Get("X-HTTP-Method-Override"))
		c.mu.Lock()
		c.dequeues = append(c.dequeues, idx)
		queued := c.queued && idx == 0
		c.mu.Unlock()
		if !queued {
			http.Error(w, `{"error":"no such entry"}`, http.StatusNotFound)
			return
		}
		w.Write([]byte("{}"))
	})

	return r
}

// startCluster spins up rosterSize mock players sharing cluster state and
// returns their base URLs.
func startCluster(t *testing.T, c *mockCluster, rosterSize int) []string {
	servers := make([]string, rosterSize)
	for i := range servers {
		srv := httptest.NewServer(c.playerRouter(t, i, rosterSize))
		t.Cleanup(srv.Close)
		servers[i] = srv.URL
	}
	return servers
}

func fastCoordinator(t *testing.T, servers []string, opts ...CoordinatorOption) *Coordinator {
	opts = append(opts, WithClientOptions(WithPollInterval(2*time.Millisecond)))
	co, err := NewCoordinator(servers, opts...)
	require.NoError(t, err)
	return co
}

func TestQuickRunThreePlayers(t *testing.T) {
	cluster := newMockCluster()
	servers := startCluster(t, cluster, 3)

	co := fastCoordinator(t, servers)
	result, err := co.QuickRun(Program{Name: "overlap", Source: "a & b"},
		[][]any{{1}, {2}, {3}})
	require.NoError(t, err)

	assert.Equal(t, "mpc ok", result.DebugOutput)
	assert.Equal(t, [][][]any{
		{{float64(0)}}, {{float64(10)}}, {{float64(20)}},
	}, result.Data)

	cluster.mu.Lock()
	defer cluster.mu.Unlock()

	// Every player accepted its own row.
	require.Len(t, cluster.accepts, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, []any{float64(i + 1)}, cluster.accepts[i])
	}

	// The leader's queue payload carries the fixed LSSS setup and the
	// full roster with the leader as player 0.
	setup := cluster.queuePayload["setup"].(map[string]any)
	lsss := setup["lsss"].(map[string]any)
	assert.Equal(t, lsssModP, lsss["modp"])
	assert.Equal(t, float64(lsssThreshold), lsss["threshold"])
	assert.Equal(t, float64(0), setup["my_index"])
	assert.Len(t, setup["players"].([]any), 3)

	// A clean run leaves nothing to dequeue.
	assert.Empty(t, cluster.dequeues)
}

func TestCoordinatorRefusesSmallRoster(t *testing.T) {
	_, err := NewCoordinator([]string{"http://a", "http://b"})
	var pre *transport.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Contains(t, pre.Error(), "at least 3 players")
}

func TestQueueRefusesSmallRosterBeforeNetwork(t *testing.T) {
	// The URL is unreachable on purpose: the roster check must fire first.
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Queue(Program{Name: "p"}, []Player{{}, {}}, nil)
	var pre *transport.PreconditionError
	require.ErrorAs(t, err, &pre)
}

func TestQuickRunWaitIsBounded(t *testing.T) {
	cluster := newMockCluster()
	cluster.stallLeader = true
	servers := startCluster(t, cluster, 3)

	co := fastCoordinator(t, servers, WithWaitTimeout(20*time.Millisecond))
	_, err := co.QuickRun(Program{Name: "overlap"}, [][]any{{1}, {2}, {3}})

	var timeout *transport.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "queued", timeout.LastState)

	// Cleanup still dequeued on every rostered server, tolerating the
	// followers that never held an entry.
	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	sort.Ints(cluster.dequeues)
	assert.Equal(t, []int{0, 1, 2}, cluster.dequeues)
}

func TestQuickRunCleansUpOnAcceptFailure(t *testing.T) {
	cluster := newMockCluster()
	cluster.failAccept = 2
	servers := startCluster(t, cluster, 3)

	co := fastCoordinator(t, servers, WithWaitTimeout(200*time.Millisecond))
	_, err := co.QuickRun(Program{Name: "overlap"}, [][]any{{1}, {2}, {3}})
	require.Error(t, err)

	// The accept failure survives cleanup unmasked.
	var remote *transport.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Contains(t, err.Error(), "player 2 accept")

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	sort.Ints(cluster.dequeues)
	assert.Equal(t, []int{0, 1, 2}, cluster.dequeues)
}

func TestQuickRunRequiresOneRowPerPlayer(t *testing.T) {
	co, err := NewCoordinator([]string{"http://a", "http://b", "http://c"})
	require.NoError(t, err)
	_, err = co.QuickRun(Program{Name: "p"}, [][]any{{1}, {2}})
	var pre *transport.PreconditionError
	require.ErrorAs(t, err, &pre)
}
