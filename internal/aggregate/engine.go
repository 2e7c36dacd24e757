package aggregate

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rh-john/ocp-eip-monitoring/internal/cluster"
	"github.com/rh-john/ocp-eip-monitoring/internal/collector"
)

// Engine derives the metrics bundle from each cycle's snapshot. Apart from
// the trend windows and the two previous-cycle scalars (assigned count,
// Gini), aggregation is a pure function of its inputs; no I/O happens here.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu           sync.Mutex
	trends       *TrendTracker
	nodeCapacity int

	prevAssigned    int
	hasPrevAssigned bool
	prevGini        float64
	hasPrevGini     bool
}

// New returns an Engine using the given per-node capacity estimate.
func New(nodeCapacity int) *Engine {
	return &Engine{
		trends:       NewTrendTracker(),
		nodeCapacity: nodeCapacity,
	}
}

// Aggregate computes the full metrics bundle for snap.
//
// now is passed explicitly so callers (and tests) control the clock without
// sleeping. Use time.Now() in production.
//
// Every division is guarded: a zero denominator yields the documented
// default rather than failing the cycle.
func (e *Engine) Aggregate(snap *collector.Snapshot, now time.Time) *Bundle {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Window eviction runs before aggregation so rate figures only ever see
	// in-horizon events.
	e.trends.Evict(now)

	b := EmptyBundle()
	b.Degraded = snap.Degraded
	b.CollectedAt = snap.CollectedAt
	b.OpLatencySeconds = snap.OpLatencySeconds
	b.OpSuccessRate = snap.OpSuccessRate
	b.NodeCapacity = e.nodeCapacity

	nodes := make([]string, len(snap.Nodes))
	copy(nodes, snap.Nodes)
	sort.Strings(nodes)
	b.Nodes = nodes
	b.NodesAvailable = len(nodes)

	eligible := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		eligible[n] = true
	}

	e.countAssignments(b, snap.EgressIPs, eligible)
	e.trackChanges(b, now)
	e.rollupReconciliation(b, snap.CPICs, eligible, now)
	e.detectAnomalies(b, snap.EgressIPs, snap.CPICs)

	b.HealthScore = healthScore(b.Configured, b.Assigned, e.prevGini, e.hasPrevGini)
	b.StabilityScore = stabilityScore(e.trends.ChangeEvents())

	// The fairness bonus always lags one cycle: this cycle's Gini feeds the
	// next cycle's score.
	e.prevGini = b.Gini
	e.hasPrevGini = true

	return b
}

// countAssignments fills the global counts, per-node counts with the
// primary/secondary split, and the distribution statistics.
func (e *Engine) countAssignments(b *Bundle, eips []cluster.EgressIP, eligible map[string]bool) {
	stats := make(map[string]NodeStats, len(b.Nodes))
	for _, n := range b.Nodes {
		stats[n] = NodeStats{}
	}

	for _, eip := range eips {
		b.Configured += len(eip.RequestedIPs)

		for i, a := range eip.Assignments {
			if a.Node == "" {
				continue
			}
			b.Assigned++

			// Per-node figures cover the current eligible set only.
			st, ok := stats[a.Node]
			if !ok {
				continue
			}
			st.Assigned++
			if i == 0 {
				st.Primary++
			} else {
				st.Secondary++
			}
			stats[a.Node] = st
		}
	}

	b.Unassigned = b.Configured - b.Assigned
	if b.Configured > 0 {
		b.UtilizationPct = float64(b.Assigned) / float64(b.Configured) * 100
	}

	counts := make([]int, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		st := stats[n]
		if e.nodeCapacity > 0 {
			st.UtilizationPct = clamp(float64(st.Assigned)/float64(e.nodeCapacity)*100, 0, 100)
			stats[n] = st
		}
		counts = append(counts, st.Assigned)
	}
	b.NodeStats = stats

	d := distribution(counts)
	b.MaxPerNode = d.Max
	b.MinPerNode = d.Min
	b.MeanPerNode = d.Mean
	b.StdDev = d.StdDev
	b.Gini = d.Gini
}

// trackChanges updates the previous-assigned scalar, records a change event
// when the count moved, and derives the hourly change figures.
func (e *Engine) trackChanges(b *Bundle, now time.Time) {
	if e.hasPrevAssigned {
		if delta := abs(b.Assigned - e.prevAssigned); delta > 0 {
			e.trends.RecordChange(now, delta)
		}
	}
	e.prevAssigned = b.Assigned
	e.hasPrevAssigned = true

	b.ChangesLastHour = e.trends.ChangeSum()

	// Rate per minute over the span between the oldest retained event and
	// now; zero when the window is empty or spans no time.
	if oldest, ok := e.trends.OldestChange(); ok {
		if span := now.Sub(oldest).Minutes(); span > 0 {
			b.AssignmentRatePerMin = float64(b.ChangesLastHour) / span
		}
	}
}

// rollupReconciliation classifies each reconciliation resource by its last
// condition, records recoveries, computes pending/error durations, and fills
// the per-node reconciliation counts.
func (e *Engine) rollupReconciliation(b *Bundle, cpics []cluster.CloudPrivateIPConfig, eligible map[string]bool, now time.Time) {
	errNodes := make(map[string]bool)

	for _, c := range cpics {
		latest, ok := c.Latest()
		if !ok {
			continue
		}

		node := c.Node()
		st, onEligible := b.NodeStats[node]

		switch latest.Reason {
		case cluster.ReasonSuccess:
			b.CPICSuccess++
			if onEligible {
				st.CPICSuccess++
			}
			if prev, ok := c.Previous(); ok && prev.Reason == cluster.ReasonError {
				e.trends.RecordRecovery(now)
			}

		case cluster.ReasonPending:
			b.CPICPending++
			if onEligible {
				st.CPICPending++
			}
			if secs, ok := sinceTransition(c.Name, latest, now); ok {
				b.PendingDurations[c.Name] = secs
			}

		case cluster.ReasonError:
			b.CPICError++
			if onEligible {
				st.CPICError++
			}
			if eligible[node] {
				errNodes[node] = true
			}
			if secs, ok := sinceTransition(c.Name, latest, now); ok {
				b.ErrorDurations[c.Name] = secs
			}
		}

		if onEligible {
			b.NodeStats[node] = st
		}
	}

	b.NodesWithErrors = len(errNodes)
	b.RecoveriesLastHour = e.trends.Recoveries()
}

// detectAnomalies runs mismatch classification, the overcommit sum, and the
// critical-resource count.
func (e *Engine) detectAnomalies(b *Bundle, eips []cluster.EgressIP, cpics []cluster.CloudPrivateIPConfig) {
	records := detectMismatches(eips, cpics, b.NodesAvailable)
	b.Mismatches = records
	b.MismatchTotal = len(records)

	mismatchedIPs := make(map[string]bool, len(records))
	malfunctioning := make(map[string]bool)
	for _, r := range records {
		b.MismatchByClass[r.Class]++
		mismatchedIPs[r.IP] = true
		if r.Resource != "" {
			malfunctioning[r.Resource] = true
		}
	}
	b.Malfunctioning = len(malfunctioning)

	for _, eip := range eips {
		if over := len(eip.RequestedIPs) - b.NodesAvailable; over > 0 {
			b.Overcommitted += over
		}

		if critical(eip, mismatchedIPs) {
			b.Critical++
		}
	}
}

// critical reports whether eip has zero working assignments: no status
// bindings at all, no bound IPs, or every bound IP caught in a mismatch.
func critical(eip cluster.EgressIP, mismatchedIPs map[string]bool) bool {
	if len(eip.Assignments) == 0 {
		return true
	}
	for _, a := range eip.Assignments {
		if a.Node == "" {
			continue
		}
		if !mismatchedIPs[a.IP] {
			return false
		}
	}
	return true
}

// sinceTransition returns the seconds elapsed since the condition's
// transition timestamp. Unparsable timestamps are skipped with a debug log.
func sinceTransition(resource string, cond cluster.Condition, now time.Time) (float64, bool) {
	if cond.LastTransitionTime == "" {
		return 0, false
	}
	at, err := time.Parse(time.RFC3339, cond.LastTransitionTime)
	if err != nil {
		slog.Debug("aggregate: unparsable condition timestamp",
			"resource", resource, "value", cond.LastTransitionTime, "err", err)
		return 0, false
	}
	return now.Sub(at).Seconds(), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
