// Package api is the HTTP read boundary: the Prometheus exposition on
// /metrics, the health signal on /health, and the JSON endpoints under
// /api/v1. Handlers only read the published registry state; a request never
// triggers a collection cycle.
package api
