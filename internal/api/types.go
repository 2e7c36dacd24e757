package api

import "github.com/rh-john/ocp-eip-monitoring/internal/aggregate"

// SummaryResponse is the payload for GET /api/v1/summary and the WebSocket
// broadcast envelope body.
type SummaryResponse struct {
	GeneratedAt string            `json:"generated_at"`           // RFC3339
	LastPublish string            `json:"last_publish,omitempty"` // RFC3339, absent before first cycle
	Metrics     *aggregate.Bundle `json:"metrics"`
}

// NodeResponse is one node entry in GET /api/v1/nodes.
type NodeResponse struct {
	Node           string  `json:"node"`
	Assigned       int     `json:"assigned"`
	Primary        int     `json:"primary"`
	Secondary      int     `json:"secondary"`
	CPICSuccess    int     `json:"cpic_success"`
	CPICPending    int     `json:"cpic_pending"`
	CPICError      int     `json:"cpic_error"`
	Capacity       int     `json:"capacity"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status             string  `json:"status"`
	LastUpdate         string  `json:"last_update,omitempty"`
	SecondsSinceUpdate float64 `json:"seconds_since_update,omitempty"`
	Message            string  `json:"message,omitempty"`
}

// InfoResponse is the payload for GET /.
type InfoResponse struct {
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Endpoints  map[string]string `json:"endpoints"`
	LastUpdate string            `json:"last_update,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
