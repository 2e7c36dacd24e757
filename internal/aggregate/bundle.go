package aggregate

import "time"

// NodeStats is the per-node breakdown included in a Bundle. Primary counts
// the first status binding per resource (the interface's own IP on the cloud
// side); Secondary counts all subsequent bindings.
type NodeStats struct {
	Assigned       int     `json:"assigned"`
	Primary        int     `json:"primary"`
	Secondary      int     `json:"secondary"`
	CPICSuccess    int     `json:"cpic_success"`
	CPICPending    int     `json:"cpic_pending"`
	CPICError      int     `json:"cpic_error"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// Bundle is the complete set of derived values for one cycle. It is built
// off to the side and published to the registry as one immutable unit; no
// field is mutated after Aggregate returns it.
type Bundle struct {
	// Global assignment counts. Configured counts requested IP addresses,
	// not resources. Configured = Assigned + Unassigned always holds.
	Configured     int     `json:"configured"`
	Assigned       int     `json:"assigned"`
	Unassigned     int     `json:"unassigned"`
	UtilizationPct float64 `json:"utilization_pct"`

	// Rate-of-change figures from the trend windows.
	AssignmentRatePerMin float64 `json:"assignment_rate_per_min"`
	ChangesLastHour      int     `json:"changes_last_hour"`

	// Reconciliation rollup by last condition reason.
	CPICSuccess        int `json:"cpic_success"`
	CPICPending        int `json:"cpic_pending"`
	CPICError          int `json:"cpic_error"`
	RecoveriesLastHour int `json:"recoveries_last_hour"`

	// Seconds each pending/error resource has spent in its current state,
	// keyed by resource name. Entries with unparsable transition timestamps
	// are absent.
	PendingDurations map[string]float64 `json:"pending_durations,omitempty"`
	ErrorDurations   map[string]float64 `json:"error_durations,omitempty"`

	// Eligible nodes this cycle, sorted, and their per-node stats. Stale
	// node names never appear: the maps are rebuilt from the current set.
	Nodes           []string             `json:"nodes"`
	NodeStats       map[string]NodeStats `json:"node_stats"`
	NodeCapacity    int                  `json:"node_capacity"`
	NodesAvailable  int                  `json:"nodes_available"`
	NodesWithErrors int                  `json:"nodes_with_errors"`

	// Distribution fairness over per-node assigned counts.
	MaxPerNode  int     `json:"max_per_node"`
	MinPerNode  int     `json:"min_per_node"`
	MeanPerNode float64 `json:"mean_per_node"`
	StdDev      float64 `json:"stddev"`
	Gini        float64 `json:"gini"`

	// Three-way consistency check results.
	MismatchTotal   int                   `json:"mismatch_total"`
	MismatchByClass map[MismatchClass]int `json:"mismatch_by_class"`
	Mismatches      []MismatchRecord      `json:"mismatches,omitempty"`
	Malfunctioning  int                   `json:"malfunctioning"`

	Overcommitted int `json:"overcommitted"`
	Critical      int `json:"critical"`

	// Composite heuristics, both 0–100.
	HealthScore    float64 `json:"health_score"`
	StabilityScore float64 `json:"stability_score"`

	// Cycle metadata.
	Degraded    bool      `json:"degraded"`
	CollectedAt time.Time `json:"collected_at"`

	// Per-operation snapshot-source call stats.
	OpLatencySeconds map[string]float64 `json:"op_latency_seconds,omitempty"`
	OpSuccessRate    map[string]float64 `json:"op_success_rate,omitempty"`
}

// EmptyBundle returns a Bundle with every scalar at its defined default so
// the registry can expose all declared metrics before the first cycle.
func EmptyBundle() *Bundle {
	return &Bundle{
		NodeStats:        map[string]NodeStats{},
		PendingDurations: map[string]float64{},
		ErrorDurations:   map[string]float64{},
		MismatchByClass: map[MismatchClass]int{
			MismatchNode:          0,
			MismatchMissingInEIP:  0,
			MismatchMissingInCPIC: 0,
		},
		StabilityScore: 100,
	}
}
