// Package registry holds the latest computed metrics bundle and serves it in
// Prometheus exposition format.
//
// The Registry is a custom prometheus.Collector over a single atomic bundle
// pointer: the scheduler builds the next bundle off to the side and Publish
// swaps it in as one unit, so a concurrent scrape sees either the old cycle
// or the new one, never a mix. Labelled series are regenerated from the
// bundle on every scrape, which keeps stale node and resource labels from
// lingering after the eligible set changes.
package registry
