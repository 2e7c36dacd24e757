// Package ws pushes the published metrics summary to WebSocket clients on a
// fixed interval, so dashboards can follow cluster egress state without
// polling the JSON API.
package ws
