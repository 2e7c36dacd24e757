// Package cluster defines the engine's view of the three cluster resource
// collections (EgressIP, CloudPrivateIPConfig, egress-assignable nodes) and
// the Source that fetches them.
//
// ExecSource shells out to the cluster CLI (`oc get ... -o json`) with a
// bounded per-query timeout and classifies failures into the QueryError
// taxonomy: timeout, non-zero exit, parse error, exception. Decoding accepts
// only documents carrying an "items" array; everything else is malformed.
//
// Decoded values are immutable per collection cycle; downstream stages never
// write back into them.
package cluster
