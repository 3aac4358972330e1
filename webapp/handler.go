package webapp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cosmian/scs/compute"
)

// Handler serves the web UI backends against one secure-computation
// server.
type Handler struct {
	server  *compute.Server
	history *HistoryStore
	log     *zap.Logger
}

// NewHandler wires the backend to its server, audit store and logger. A
// nil logger disables logging; a nil history store disables the audit
// trail and /history serves an empty list.
func NewHandler(server *compute.Server, history *HistoryStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{server: server, history: history, log: log}
}

// Router returns a ready-to-serve router with the standard middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the backend routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/deploy_code", h.deployCode)

	r.Get("/views", h.listViews)
	r.Get("/views/json_schema", h.viewSchema)
	r.Post("/view", h.createOrUpdateView)
	r.Get("/view/{name}", h.retrieveOrDeleteView)

	r.Get("/history", h.listHistory)
}

type statusResponse struct {
	Status       string `json:"status"`
	Msg          string `json:"msg,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

type deployRequest struct {
	LocalServerURL  string `json:"local_server_url"`
	RemoteServerURL string `json:"remote_server_url"`
	AlgoName        string `json:"algo_name"`
	PythonCode      string `json:"python_code"`
}

func (r deployRequest) validate() string {
	switch {
	case strings.TrimSpace(r.LocalServerURL) == "":
		return "Please provide your server URL"
	case strings.TrimSpace(r.RemoteServerURL) == "":
		return "Please provide the remote server url"
	case strings.TrimSpace(r.AlgoName) == "":
		return "Please provide the algorithm name"
	case strings.TrimSpace(r.PythonCode) == "":
		return "Please provide python code"
	}
	return ""
}

// deployCode encrypts the submitted code on the local server's enclave and
// ships it to the remote data provider.
func (h *Handler) deployCode(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Msg: err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusOK, statusResponse{Status: "error", Msg: msg})
		return
	}

	// Every deployment gets its own id so repeated deployments of the
	// same algorithm stay distinguishable in the audit trail.
	deployID := uuid.NewString()

	enclave := compute.New(req.LocalServerURL).Enclave()
	err := func() error {
		if _, err := enclave.Handshake(req.RemoteServerURL); err != nil {
			return err
		}
		encCode, err := enclave.EncryptCode(req.PythonCode)
		if err != nil {
			return err
		}
		_, err = enclave.SendCode(req.RemoteServerURL, req.AlgoName, encCode)
		return err
	}()

	if err != nil {
		h.log.Error("code deployment failed",
			zap.String("deployment_id", deployID),
			zap.String("algo", req.AlgoName),
			zap.String("remote", req.RemoteServerURL),
			zap.Error(err))
		h.record(r, "deploy_code", req.AlgoName, "error", deployID+": "+err.Error())
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
		return
	}

	h.record(r, "deploy_code", req.AlgoName, "ok", deployID+" to "+req.RemoteServerURL)
	writeJSON(w, http.StatusOK, statusResponse{
		Status:       "ok",
		Msg:          `Deployed "` + req.AlgoName + `" to ` + req.RemoteServerURL,
		DeploymentID: deployID,
	})
}

func (h *Handler) listViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.server.Views().List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// viewSchema will serve the view JSON schema once the servers expose one.
func (h *Handler) viewSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{})
}

// createOrUpdateView dispatches on the method override header: a plain POST
// creates, an overridden PUT updates.
func (h *Handler) createOrUpdateView(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var view compute.View
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Msg: err.Error()})
		return
	}

	action, msg := "create_view", "Created the view"
	do := h.server.Views().Create
	if r.Header.Get("X-HTTP-Method-Override") == http.MethodPut {
		action, msg = "update_view", "Updated the view"
		do = h.server.Views().Update
	}

	if err := do(view); err != nil {
		h.record(r, action, view.Name(), "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
		return
	}
	h.record(r, action, view.Name(), "ok", "")
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Msg: msg})
}

// retrieveOrDeleteView dispatches on the method override header: a plain
// GET retrieves, an overridden DELETE deletes.
func (h *Handler) retrieveOrDeleteView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if r.Header.Get("X-HTTP-Method-Override") == http.MethodDelete {
		if err := h.server.Views().Delete(name); err != nil {
			h.record(r, "delete_view", name, "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
			return
		}
		h.record(r, "delete_view", name, "ok", "")
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Msg: "Deleted the view"})
		return
	}

	view, err := h.server.Views().Retrieve(name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
		return
	}
	if view == nil {
		writeJSON(w, http.StatusNotFound, statusResponse{Status: "error", Msg: "no such view: " + name})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []HistoryEntry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Msg: err.Error()})
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// record appends an audit entry, logging instead of failing the request
// when the store is unavailable.
func (h *Handler) record(r *http.Request, action, subject, status, detail string) {
	if h.history == nil {
		return
	}
	entry := HistoryEntry{Action: action, Subject: subject, Status: status, Detail: detail}
	if err := h.history.Record(r.Context(), entry); err != nil {
		h.log.Warn("failed to record history entry", zap.String("action", action), zap.Error(err))
	}
}
