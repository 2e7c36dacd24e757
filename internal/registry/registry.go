package registry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
)

// Registry holds the latest computed bundle and exposes it in Prometheus
// exposition format. Publishing swaps one immutable bundle pointer, so a
// scrape never observes a partially updated metric set. Cumulative counters
// (call outcomes, scrape errors, degraded cycles) are ordinary Prometheus
// counters incremented as events happen.
//
// Registry is owned by one engine instance and passed by handle to the
// scheduler and the read boundary; there is no process-global state, so
// tests can run isolated instances side by side.
type Registry struct {
	reg         *prometheus.Registry
	bundle      atomic.Pointer[aggregate.Bundle]
	lastPublish atomic.Int64 // unix nanos of the last publish; 0 = never
	now         func() time.Time

	// Cumulative operational counters, incremented outside the bundle swap.
	APICalls       *prometheus.CounterVec
	ScrapeErrors   prometheus.Counter
	DegradedCycles prometheus.Counter
	CycleFailures  prometheus.Counter
	CycleDuration  prometheus.Gauge

	d descs
}

// descs holds every bundle-derived metric descriptor, declared once.
type descs struct {
	configured     *prometheus.Desc
	assigned       *prometheus.Desc
	unassigned     *prometheus.Desc
	utilization    *prometheus.Desc
	assignmentRate *prometheus.Desc
	changesHour    *prometheus.Desc

	cpicSuccess    *prometheus.Desc
	cpicPending    *prometheus.Desc
	cpicError      *prometheus.Desc
	recoveriesHour *prometheus.Desc
	pendingFor     *prometheus.Desc
	errorFor       *prometheus.Desc

	nodeAssigned    *prometheus.Desc
	nodePrimary     *prometheus.Desc
	nodeSecondary   *prometheus.Desc
	nodeCPICSuccess *prometheus.Desc
	nodeCPICPending *prometheus.Desc
	nodeCPICError   *prometheus.Desc
	nodeCapacity    *prometheus.Desc
	nodeUtilization *prometheus.Desc
	nodesAvailable  *prometheus.Desc
	nodesWithErrors *prometheus.Desc

	stddev      *prometheus.Desc
	gini        *prometheus.Desc
	maxPerNode  *prometheus.Desc
	minPerNode  *prometheus.Desc
	meanPerNode *prometheus.Desc

	mismatchTotal  *prometheus.Desc
	mismatchByType *prometheus.Desc
	malfunctioning *prometheus.Desc
	overcommitted  *prometheus.Desc
	critical       *prometheus.Desc

	healthScore    *prometheus.Desc
	stabilityScore *prometheus.Desc

	apiResponseTime *prometheus.Desc
	apiSuccessRate  *prometheus.Desc

	lastPublish *prometheus.Desc
}

// New creates a Registry pre-published with a zero bundle so every declared
// metric has a defined value before the first cycle completes.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		now: time.Now,
		APICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Total number of snapshot-source calls made.",
		}, []string{"operation", "status"}),
		ScrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eip_scrape_errors_total",
			Help: "Total number of collection cycle errors.",
		}),
		DegradedCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eip_degraded_cycles_total",
			Help: "Cycles that completed with at least one input degraded to empty.",
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eip_cycle_failures_total",
			Help: "Cycles aborted by an unexpected failure in the pipeline.",
		}),
		CycleDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eip_scrape_duration_seconds",
			Help: "Time taken to complete the last collection cycle.",
		}),
		d: newDescs(),
	}
	r.bundle.Store(aggregate.EmptyBundle())

	r.reg.MustRegister(r.APICalls, r.ScrapeErrors, r.DegradedCycles, r.CycleFailures, r.CycleDuration, r)
	return r
}

func newDescs() descs {
	node := []string{"node"}
	resource := []string{"resource_name"}
	return descs{
		configured:     prometheus.NewDesc("eips_configured_total", "Total number of configured egress IP addresses.", nil, nil),
		assigned:       prometheus.NewDesc("eips_assigned_total", "Total number of assigned egress IP addresses.", nil, nil),
		unassigned:     prometheus.NewDesc("eips_unassigned_total", "Total number of unassigned egress IP addresses.", nil, nil),
		utilization:    prometheus.NewDesc("eip_utilization_percent", "Percentage of configured egress IPs currently assigned.", nil, nil),
		assignmentRate: prometheus.NewDesc("eip_assignment_rate_per_minute", "Rate of egress IP assignment changes per minute.", nil, nil),
		changesHour:    prometheus.NewDesc("eip_changes_last_hour", "Summed magnitude of egress IP state changes in the last hour.", nil, nil),

		cpicSuccess:    prometheus.NewDesc("cpic_success_total", "CloudPrivateIPConfig resources whose last condition is success.", nil, nil),
		cpicPending:    prometheus.NewDesc("cpic_pending_total", "CloudPrivateIPConfig resources whose last condition is pending.", nil, nil),
		cpicError:      prometheus.NewDesc("cpic_error_total", "CloudPrivateIPConfig resources whose last condition is error.", nil, nil),
		recoveriesHour: prometheus.NewDesc("cpic_recoveries_last_hour", "Error-to-success recoveries observed in the last hour.", nil, nil),
		pendingFor:     prometheus.NewDesc("cpic_pending_duration_seconds", "Time the resource has spent in the pending state.", resource, nil),
		errorFor:       prometheus.NewDesc("cpic_error_duration_seconds", "Time the resource has spent in the error state.", resource, nil),

		nodeAssigned:    prometheus.NewDesc("node_eip_assigned_total", "Egress IPs assigned to the node.", node, nil),
		nodePrimary:     prometheus.NewDesc("node_eip_primary_total", "First-binding egress IPs hosted by the node.", node, nil),
		nodeSecondary:   prometheus.NewDesc("node_eip_secondary_total", "Additional-binding egress IPs hosted by the node.", node, nil),
		nodeCPICSuccess: prometheus.NewDesc("node_cpic_success_total", "Successful CloudPrivateIPConfig resources on the node.", node, nil),
		nodeCPICPending: prometheus.NewDesc("node_cpic_pending_total", "Pending CloudPrivateIPConfig resources on the node.", node, nil),
		nodeCPICError:   prometheus.NewDesc("node_cpic_error_total", "Errored CloudPrivateIPConfig resources on the node.", node, nil),
		nodeCapacity:    prometheus.NewDesc("node_eip_capacity_total", "Estimated maximum egress IPs the node can host.", node, nil),
		nodeUtilization: prometheus.NewDesc("node_eip_utilization_percent", "Egress IP utilization percentage of the node.", node, nil),
		nodesAvailable:  prometheus.NewDesc("eip_nodes_available_total", "Number of egress-assignable nodes in the cluster.", nil, nil),
		nodesWithErrors: prometheus.NewDesc("eip_nodes_with_errors_total", "Egress-assignable nodes carrying errored reconciliations.", nil, nil),

		stddev:      prometheus.NewDesc("eip_distribution_stddev", "Sample standard deviation of the per-node egress IP distribution.", nil, nil),
		gini:        prometheus.NewDesc("eip_distribution_gini_coefficient", "Gini coefficient of the per-node distribution (0 equal, 1 unequal).", nil, nil),
		maxPerNode:  prometheus.NewDesc("eip_max_per_node", "Maximum egress IPs assigned to any single node.", nil, nil),
		minPerNode:  prometheus.NewDesc("eip_min_per_node", "Minimum egress IPs assigned to any single node.", nil, nil),
		meanPerNode: prometheus.NewDesc("eip_mean_per_node", "Mean egress IPs assigned per node.", nil, nil),

		mismatchTotal:  prometheus.NewDesc("eip_cpic_mismatch_total", "Total disagreements between EIP and CPIC views.", nil, nil),
		mismatchByType: prometheus.NewDesc("eip_cpic_mismatches", "Disagreements between EIP and CPIC views by classification.", []string{"type"}, nil),
		malfunctioning: prometheus.NewDesc("eip_malfunctioning_total", "Distinct EgressIP resources touched by any mismatch.", nil, nil),
		overcommitted:  prometheus.NewDesc("eip_overcommitted_total", "Requested egress IPs exceeding the eligible node count.", nil, nil),
		critical:       prometheus.NewDesc("eip_critical_total", "EgressIP resources with zero working assignments.", nil, nil),

		healthScore:    prometheus.NewDesc("cluster_eip_health_score", "Overall egress IP cluster health score (0-100, heuristic).", nil, nil),
		stabilityScore: prometheus.NewDesc("cluster_eip_stability_score", "Egress IP stability score based on change frequency (0-100, heuristic).", nil, nil),

		apiResponseTime: prometheus.NewDesc("api_response_time_seconds", "Latency of the last snapshot-source call per operation.", []string{"operation"}, nil),
		apiSuccessRate:  prometheus.NewDesc("api_success_rate_percent", "Cumulative success rate of snapshot-source calls per operation.", []string{"operation"}, nil),

		lastPublish: prometheus.NewDesc("eip_last_scrape_timestamp_seconds", "Unix timestamp of the last successful publish.", nil, nil),
	}
}

// Publish makes b the visible bundle and advances the last-publish
// timestamp. The swap is atomic relative to readers.
func (r *Registry) Publish(b *aggregate.Bundle) {
	r.bundle.Store(b)
	r.lastPublish.Store(r.now().UnixNano())
}

// Bundle returns the currently published bundle. Callers must treat it as
// read-only.
func (r *Registry) Bundle() *aggregate.Bundle {
	return r.bundle.Load()
}

// LastPublish returns the time of the most recent publish; ok is false when
// no cycle has published yet.
func (r *Registry) LastPublish() (time.Time, bool) {
	nanos := r.lastPublish.Load()
	if nanos == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// Handler returns the HTTP handler serving the exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying gatherer for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range r.allDescs() {
		ch <- d
	}
}

// Collect implements prometheus.Collector. It reads the bundle pointer once
// and emits every metric from that single consistent view; per-node and
// per-resource series are regenerated from scratch, so labels for nodes no
// longer in the eligible set disappear rather than go stale.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	b := r.bundle.Load()
	g := prometheus.GaugeValue

	ch <- prometheus.MustNewConstMetric(r.d.configured, g, float64(b.Configured))
	ch <- prometheus.MustNewConstMetric(r.d.assigned, g, float64(b.Assigned))
	ch <- prometheus.MustNewConstMetric(r.d.unassigned, g, float64(b.Unassigned))
	ch <- prometheus.MustNewConstMetric(r.d.utilization, g, b.UtilizationPct)
	ch <- prometheus.MustNewConstMetric(r.d.assignmentRate, g, b.AssignmentRatePerMin)
	ch <- prometheus.MustNewConstMetric(r.d.changesHour, g, float64(b.ChangesLastHour))

	ch <- prometheus.MustNewConstMetric(r.d.cpicSuccess, g, float64(b.CPICSuccess))
	ch <- prometheus.MustNewConstMetric(r.d.cpicPending, g, float64(b.CPICPending))
	ch <- prometheus.MustNewConstMetric(r.d.cpicError, g, float64(b.CPICError))
	ch <- prometheus.MustNewConstMetric(r.d.recoveriesHour, g, float64(b.RecoveriesLastHour))
	for resource, secs := range b.PendingDurations {
		ch <- prometheus.MustNewConstMetric(r.d.pendingFor, g, secs, resource)
	}
	for resource, secs := range b.ErrorDurations {
		ch <- prometheus.MustNewConstMetric(r.d.errorFor, g, secs, resource)
	}

	for _, node := range b.Nodes {
		st := b.NodeStats[node]
		ch <- prometheus.MustNewConstMetric(r.d.nodeAssigned, g, float64(st.Assigned), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodePrimary, g, float64(st.Primary), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeSecondary, g, float64(st.Secondary), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeCPICSuccess, g, float64(st.CPICSuccess), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeCPICPending, g, float64(st.CPICPending), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeCPICError, g, float64(st.CPICError), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeCapacity, g, float64(b.NodeCapacity), node)
		ch <- prometheus.MustNewConstMetric(r.d.nodeUtilization, g, st.UtilizationPct, node)
	}
	ch <- prometheus.MustNewConstMetric(r.d.nodesAvailable, g, float64(b.NodesAvailable))
	ch <- prometheus.MustNewConstMetric(r.d.nodesWithErrors, g, float64(b.NodesWithErrors))

	ch <- prometheus.MustNewConstMetric(r.d.stddev, g, b.StdDev)
	ch <- prometheus.MustNewConstMetric(r.d.gini, g, b.Gini)
	ch <- prometheus.MustNewConstMetric(r.d.maxPerNode, g, float64(b.MaxPerNode))
	ch <- prometheus.MustNewConstMetric(r.d.minPerNode, g, float64(b.MinPerNode))
	ch <- prometheus.MustNewConstMetric(r.d.meanPerNode, g, b.MeanPerNode)

	ch <- prometheus.MustNewConstMetric(r.d.mismatchTotal, g, float64(b.MismatchTotal))
	for class, count := range b.MismatchByClass {
		ch <- prometheus.MustNewConstMetric(r.d.mismatchByType, g, float64(count), string(class))
	}
	ch <- prometheus.MustNewConstMetric(r.d.malfunctioning, g, float64(b.Malfunctioning))
	ch <- prometheus.MustNewConstMetric(r.d.overcommitted, g, float64(b.Overcommitted))
	ch <- prometheus.MustNewConstMetric(r.d.critical, g, float64(b.Critical))

	ch <- prometheus.MustNewConstMetric(r.d.healthScore, g, b.HealthScore)
	ch <- prometheus.MustNewConstMetric(r.d.stabilityScore, g, b.StabilityScore)

	for op, secs := range b.OpLatencySeconds {
		ch <- prometheus.MustNewConstMetric(r.d.apiResponseTime, g, secs, op)
	}
	for op, pct := range b.OpSuccessRate {
		ch <- prometheus.MustNewConstMetric(r.d.apiSuccessRate, g, pct, op)
	}

	var published float64
	if at, ok := r.LastPublish(); ok {
		published = float64(at.UnixNano()) / float64(time.Second)
	}
	ch <- prometheus.MustNewConstMetric(r.d.lastPublish, g, published)
}

func (r *Registry) allDescs() []*prometheus.Desc {
	return []*prometheus.Desc{
		r.d.configured, r.d.assigned, r.d.unassigned, r.d.utilization,
		r.d.assignmentRate, r.d.changesHour,
		r.d.cpicSuccess, r.d.cpicPending, r.d.cpicError, r.d.recoveriesHour,
		r.d.pendingFor, r.d.errorFor,
		r.d.nodeAssigned, r.d.nodePrimary, r.d.nodeSecondary,
		r.d.nodeCPICSuccess, r.d.nodeCPICPending, r.d.nodeCPICError,
		r.d.nodeCapacity, r.d.nodeUtilization, r.d.nodesAvailable, r.d.nodesWithErrors,
		r.d.stddev, r.d.gini, r.d.maxPerNode, r.d.minPerNode, r.d.meanPerNode,
		r.d.mismatchTotal, r.d.mismatchByType, r.d.malfunctioning,
		r.d.overcommitted, r.d.critical,
		r.d.healthScore, r.d.stabilityScore,
		r.d.apiResponseTime, r.d.apiSuccessRate,
		r.d.lastPublish,
	}
}
