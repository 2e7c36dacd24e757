// Package aggregate is the algorithmic core: it derives the full metrics
// bundle from each cycle's cluster snapshot.
//
// engine.go drives one aggregation pass: global and per-node assignment
// counts, the reconciliation rollup, anomaly detection, and the composite
// scores. fairness.go computes max/min/mean, sample standard deviation, and
// the Gini coefficient over the per-node distribution. mismatch.go runs the
// three-way consistency check between the reconciler's and the assignment
// resources' views of each IP. score.go holds the health and stability
// heuristics. trend.go keeps the two bounded cross-cycle event windows
// (assignment changes, recoveries) used for the hourly rate figures.
//
// Engine.Aggregate accepts an injectable time.Time so tests are
// deterministic. The only state surviving a cycle is the trend windows plus
// the previous assigned count and previous Gini value.
package aggregate
