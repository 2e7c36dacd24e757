// Package collector obtains the three cluster inputs (egress-IP requests,
// reconciliation resources, eligible nodes) as one logical unit per cycle.
//
// Collect never fails. Each input is fetched independently and a failure
// degrades that input alone to an empty collection, counted on the
// api_calls_total counter and logged at the point of failure. The node list
// is read through a short-TTL cache to avoid redundant cluster queries.
package collector
