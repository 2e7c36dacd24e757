package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
	"github.com/rh-john/ocp-eip-monitoring/internal/alerts"
	"github.com/rh-john/ocp-eip-monitoring/internal/registry"
)

// Version reported on the info endpoint.
const Version = "1.0.0"

// healthyWindow is how recently a publish must have happened for the health
// endpoint to report healthy. Ten degraded-but-completed cycles at the
// default interval still pass; only a stalled loop fails.
const healthyWindow = 5 * time.Minute

// Handler serves the read boundary: the Prometheus exposition, the health
// signal, and the JSON API. It only ever reads the registry; requests never
// trigger collection.
type Handler struct {
	registry *registry.Registry
	alerts   *alerts.Engine // may be nil
	mux      *http.ServeMux
	now      func() time.Time
}

// New creates a Handler wired to the given registry and registers all routes.
// alertEngine may be nil, in which case the alerts endpoint serves an empty
// list.
func New(reg *registry.Registry, alertEngine *alerts.Engine) *Handler {
	h := &Handler{registry: reg, alerts: alertEngine, mux: http.NewServeMux(), now: time.Now}

	h.mux.Handle("/metrics", reg.Handler())
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/v1/summary", h.summary)
	h.mux.HandleFunc("/api/v1/nodes", h.nodes)
	h.mux.HandleFunc("/api/v1/mismatches", h.mismatches)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/", h.root)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /health: 200 while the collection loop is alive,
// 503 when no cycle has published within the healthy window.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	at, ok := h.registry.LastPublish()
	if !ok {
		jsonResp(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unhealthy",
			Message: "no collection cycle has completed yet",
		})
		return
	}

	since := h.now().Sub(at)
	resp := HealthResponse{
		LastUpdate:         at.UTC().Format(time.RFC3339),
		SecondsSinceUpdate: since.Seconds(),
	}
	if since > healthyWindow {
		resp.Status = "unhealthy"
		resp.Message = "metrics not updated recently"
		jsonResp(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Status = "healthy"
	jsonResp(w, http.StatusOK, resp)
}

// summary returns GET /api/v1/summary: the full published bundle.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSummary(h.registry))
}

// nodes returns GET /api/v1/nodes: the per-node breakdown, sorted by name.
func (h *Handler) nodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	b := h.registry.Bundle()
	out := make([]NodeResponse, 0, len(b.Nodes))
	for _, node := range b.Nodes {
		st := b.NodeStats[node]
		out = append(out, NodeResponse{
			Node:           node,
			Assigned:       st.Assigned,
			Primary:        st.Primary,
			Secondary:      st.Secondary,
			CPICSuccess:    st.CPICSuccess,
			CPICPending:    st.CPICPending,
			CPICError:      st.CPICError,
			Capacity:       b.NodeCapacity,
			UtilizationPct: st.UtilizationPct,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// mismatches returns GET /api/v1/mismatches: this cycle's mismatch records.
func (h *Handler) mismatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records := h.registry.Bundle().Mismatches
	if records == nil {
		// Never serialize null; clients expect a list.
		records = []aggregate.MismatchRecord{}
	}
	jsonResp(w, http.StatusOK, records)
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// root returns GET /: basic service info.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	resp := InfoResponse{
		Service: "EIP Metrics Server",
		Version: Version,
		Endpoints: map[string]string{
			"metrics":    "/metrics",
			"health":     "/health",
			"summary":    "/api/v1/summary",
			"nodes":      "/api/v1/nodes",
			"mismatches": "/api/v1/mismatches",
			"alerts":     "/api/v1/alerts",
			"live":       "/ws/stream",
		},
	}
	if at, ok := h.registry.LastPublish(); ok {
		resp.LastUpdate = at.UTC().Format(time.RFC3339)
	}
	jsonResp(w, http.StatusOK, resp)
}

// BuildSummary assembles the summary payload served on /api/v1/summary and
// broadcast by the WebSocket hub.
func BuildSummary(reg *registry.Registry) SummaryResponse {
	resp := SummaryResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Metrics:     reg.Bundle(),
	}
	if at, ok := reg.LastPublish(); ok {
		resp.LastPublish = at.UTC().Format(time.RFC3339)
	}
	return resp
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
