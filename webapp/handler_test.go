package webapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmian/scs/compute"
)

// mockComputeServer plays both the local enclave server and the view store.
type mockComputeServer struct {
	views     map[string]compute.View
	handshook bool
	deployed  map[string]string // algo name -> encrypted code
}

func (m *mockComputeServer) router(t *testing.T) chi.Router {
	r := chi.NewRouter()

	r.Post("/enclave/sender/handshake", func(w http.ResponseWriter, req *http.Request) {
		m.handshook = true
		w.Write([]byte("{}"))
	})
	r.Post("/enclave/sender/encrypt", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]string{"enc_code": "enc(" + body["code"] + ")"})
	})
	r.Post("/enclave/sender/code/{algo}", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		m.deployed[chi.URLParam(req, "algo")] = body["enc_code"]
		json.NewEncoder(w).Encode(map[string]string{"success": "ok"})
	})

	r.Get("/views", func(w http.ResponseWriter, req *http.Request) {
		all := make([]compute.View, 0, len(m.views))
		for _, v := range m.views {
			all = append(all, v)
		}
		json.NewEncoder(w).Encode(all)
	})
	r.Post("/view", func(w http.ResponseWriter, req *http.Request) {
		var v compute.View
		require.NoError(t, json.NewDecoder(req.Body).Decode(&v))
		m.views[v.Name()] = v
		w.Write([]byte("{}"))
	})
	r.Get("/view/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		if req.Header.Get("X-HTTP-Method-Override") == http.MethodDelete {
			delete(m.views, name)
			w.Write([]byte("{}"))
			return
		}
		v, ok := m.views[name]
		if !ok {
			http.Error(w, `{"error":"no such view"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(v)
	})

	return r
}

func newTestHandler(t *testing.T) (*Handler, *mockComputeServer, string) {
	mock := &mockComputeServer{views: map[string]compute.View{}, deployed: map[string]string{}}
	upstream := httptest.NewServer(mock.router(t))
	t.Cleanup(upstream.Close)

	history, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	return NewHandler(compute.New(upstream.URL), history, nil), mock, upstream.URL
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDeployCodeEncryptsAndShips(t *testing.T) {
	handler, mock, upstreamURL := newTestHandler(t)
	router := handler.Router()

	rec := postJSON(t, router, "/deploy_code", deployRequest{
		LocalServerURL:  upstreamURL,
		RemoteServerURL: "http://remote:9876",
		AlgoName:        "median",
		PythonCode:      "def run(): pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Msg, `"median"`)
	assert.NotEmpty(t, resp.DeploymentID)

	assert.True(t, mock.handshook)
	assert.Equal(t, "enc(def run(): pass)", mock.deployed["median"])

	// The deployment landed in the audit trail.
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	histRec := httptest.NewRecorder()
	router.ServeHTTP(histRec, req)
	var entries []HistoryEntry
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "deploy_code", entries[0].Action)
	assert.Equal(t, "median", entries[0].Subject)
	assert.Equal(t, "ok", entries[0].Status)
}

func TestDeployCodeValidatesInput(t *testing.T) {
	handler, _, upstreamURL := newTestHandler(t)
	router := handler.Router()

	rec := postJSON(t, router, "/deploy_code", deployRequest{
		LocalServerURL:  upstreamURL,
		RemoteServerURL: "http://remote:9876",
		AlgoName:        "   ",
		PythonCode:      "def run(): pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Msg, "algorithm name")
}

func TestHandlerWithoutHistoryStore(t *testing.T) {
	mock := &mockComputeServer{views: map[string]compute.View{}, deployed: map[string]string{}}
	upstream := httptest.NewServer(mock.router(t))
	t.Cleanup(upstream.Close)

	router := NewHandler(compute.New(upstream.URL), nil, nil).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)

	// Deploys still work, just without the audit trail.
	dep := postJSON(t, router, "/deploy_code", deployRequest{
		LocalServerURL:  upstream.URL,
		RemoteServerURL: "http://remote:9876",
		AlgoName:        "median",
		PythonCode:      "def run(): pass",
	})
	require.Equal(t, http.StatusOK, dep.Code)
}

func TestViewLifecycleThroughBackend(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	router := handler.Router()

	// Create.
	rec := postJSON(t, router, "/view", map[string]string{"name": "orders"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, mock.views, "orders")

	// Update arrives as POST with an override header.
	raw, _ := json.Marshal(map[string]string{"name": "orders", "sorted": "true"})
	req := httptest.NewRequest(http.MethodPost, "/view", bytes.NewReader(raw))
	req.Header.Set("X-HTTP-Method-Override", http.MethodPut)
	upd := httptest.NewRecorder()
	router.ServeHTTP(upd, req)
	require.Equal(t, http.StatusOK, upd.Code)

	// Retrieve.
	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/view/orders", nil))
	require.Equal(t, http.StatusOK, get.Code)

	// Retrieve of an unknown view is a 404 at the backend boundary.
	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/view/ghost", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	// Delete arrives as GET with an override header.
	del := httptest.NewRequest(http.MethodGet, "/view/orders", nil)
	del.Header.Set("X-HTTP-Method-Override", http.MethodDelete)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, del)
	require.Equal(t, http.StatusOK, delRec.Code)
	assert.NotContains(t, mock.views, "orders")
}
