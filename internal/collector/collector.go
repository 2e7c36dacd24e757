package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rh-john/ocp-eip-monitoring/internal/cluster"
)

// Operation names recorded on the api_calls counter and latency gauges.
const (
	OpEgressIPs = "eip_get"
	OpCPICs     = "cpic_get"
	OpNodes     = "nodes_get"
)

// Snapshot is the normalized output of one collection cycle. Inputs that
// failed are present as empty collections; downstream stages never observe
// absent data.
type Snapshot struct {
	EgressIPs []cluster.EgressIP
	CPICs     []cluster.CloudPrivateIPConfig
	Nodes     []string

	// Degraded is true when at least one input fell back to its empty
	// default this cycle. DegradedInputs names them.
	Degraded       bool
	DegradedInputs []string

	CollectedAt time.Time

	// OpLatencySeconds and OpSuccessRate carry per-operation call stats
	// into the metrics bundle. Success rates are cumulative since start.
	OpLatencySeconds map[string]float64
	OpSuccessRate    map[string]float64
}

// Collector obtains the three cluster inputs as one logical unit per cycle.
// Collect never fails: each input degrades independently to an empty
// collection and the failure is counted and logged where it happened.
type Collector struct {
	source cluster.Source
	cache  *nodeCache
	calls  *prometheus.CounterVec // labels: operation, status
	now    func() time.Time

	mu    sync.Mutex
	stats map[string]*opStats
}

// opStats accumulates per-operation call outcomes across cycles.
type opStats struct {
	success     int
	total       int
	lastLatency float64 // seconds
}

// New builds a Collector reading from source. calls is the
// api_calls_total{operation,status} counter owned by the metrics registry;
// nodeCacheTTL bounds how long a fetched node list is reused.
func New(source cluster.Source, calls *prometheus.CounterVec, nodeCacheTTL time.Duration) *Collector {
	return &Collector{
		source: source,
		cache:  newNodeCache(nodeCacheTTL),
		calls:  calls,
		now:    time.Now,
		stats: map[string]*opStats{
			OpEgressIPs: {},
			OpCPICs:     {},
			OpNodes:     {},
		},
	}
}

// Collect fetches assignments, reconciliations, and the eligible node list.
// Each input is fetched independently; one failure does not block the others.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{CollectedAt: c.now()}

	eips, err := timed(c, OpEgressIPs, func() ([]cluster.EgressIP, error) {
		return c.source.EgressIPs(ctx)
	})
	if err != nil {
		slog.Warn("collector: egressip fetch failed, degrading to empty",
			"operation", OpEgressIPs, "err", err)
		snap.DegradedInputs = append(snap.DegradedInputs, OpEgressIPs)
	}
	snap.EgressIPs = eips

	cpics, err := timed(c, OpCPICs, func() ([]cluster.CloudPrivateIPConfig, error) {
		return c.source.CloudPrivateIPConfigs(ctx)
	})
	if err != nil {
		slog.Warn("collector: cloudprivateipconfig fetch failed, degrading to empty",
			"operation", OpCPICs, "err", err)
		snap.DegradedInputs = append(snap.DegradedInputs, OpCPICs)
	}
	snap.CPICs = cpics

	nodes, cached, err := c.cache.get(ctx, func(ctx context.Context) ([]string, error) {
		out, ferr := timed(c, OpNodes, func() ([]string, error) {
			return c.source.EgressNodes(ctx)
		})
		return out, ferr
	})
	if err != nil {
		slog.Warn("collector: node fetch failed, degrading to empty",
			"operation", OpNodes, "err", err)
		snap.DegradedInputs = append(snap.DegradedInputs, OpNodes)
	} else if cached {
		slog.Debug("collector: node list served from cache", "nodes", len(nodes))
	}
	snap.Nodes = nodes

	snap.Degraded = len(snap.DegradedInputs) > 0
	snap.OpLatencySeconds, snap.OpSuccessRate = c.callStats()

	// Empty collections are well-formed downstream; nil slices are not
	// distinguished, but keep the invariant explicit.
	if snap.EgressIPs == nil {
		snap.EgressIPs = []cluster.EgressIP{}
	}
	if snap.CPICs == nil {
		snap.CPICs = []cluster.CloudPrivateIPConfig{}
	}
	if snap.Nodes == nil {
		snap.Nodes = []string{}
	}

	return snap
}

// timed runs fetch, records its latency and outcome on c's counters and
// per-operation stats, and passes the result through.
func timed[T any](c *Collector, operation string, fetch func() (T, error)) (T, error) {
	start := c.now()
	out, err := fetch()
	elapsed := c.now().Sub(start).Seconds()

	status := cluster.StatusSuccess
	if err != nil {
		status = cluster.ClassifyStatus(err)
	}
	c.calls.WithLabelValues(operation, status).Inc()

	c.mu.Lock()
	st := c.stats[operation]
	if st == nil {
		st = &opStats{}
		c.stats[operation] = st
	}
	st.total++
	if err == nil {
		st.success++
	}
	st.lastLatency = elapsed
	c.mu.Unlock()

	return out, err
}

// callStats returns the latest per-operation latency and the cumulative
// success-rate percentage. Operations with no calls yet report 100%.
func (c *Collector) callStats() (latency, successRate map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latency = make(map[string]float64, len(c.stats))
	successRate = make(map[string]float64, len(c.stats))
	for op, st := range c.stats {
		latency[op] = st.lastLatency
		if st.total == 0 {
			successRate[op] = 100
			continue
		}
		successRate[op] = float64(st.success) / float64(st.total) * 100
	}
	return latency, successRate
}
