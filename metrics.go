package ospfap

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors this engine exports: neighbor
// adjacency counts, LSDB sizes, and SPF/throttle activity, labeled by
// router so a single registry can serve a multi-router process.
type Metrics struct {
	neighborsByState *prometheus.GaugeVec
	lsdbSize         *prometheus.GaugeVec
	spfRuns          *prometheus.CounterVec
	lsaOriginations  *prometheus.CounterVec
	isAreaLeader     *prometheus.GaugeVec
}

// NewMetrics constructs and registers the collectors against reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		neighborsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ospfap",
			Name:      "neighbors",
			Help:      "Number of neighbors in each adjacency state.",
		}, []string{"router", "state"}),
		lsdbSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ospfap",
			Name:      "lsdb_entries",
			Help:      "Number of entries currently stored in each LSDB.",
		}, []string{"router", "lsdb"}),
		spfRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ospfap",
			Name:      "spf_runs_total",
			Help:      "Number of SPF recomputations run.",
		}, []string{"router", "level"}),
		lsaOriginations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ospfap",
			Name:      "lsa_originations_total",
			Help:      "Number of LSAs originated, by type.",
		}, []string{"router", "type"}),
		isAreaLeader: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ospfap",
			Name:      "is_area_leader",
			Help:      "1 if this router currently believes itself the area leader.",
		}, []string{"router"}),
	}
	reg.MustRegister(m.neighborsByState, m.lsdbSize, m.spfRuns, m.lsaOriginations, m.isAreaLeader)
	return m
}

// SetMetrics installs m on this router. Subsequent Recompute/SPF calls
// update its collectors; pass nil to disable metrics export.
func (r *Router) SetMetrics(m *Metrics) {
	r.met = m
}

// ReportMetrics pushes the current neighbor/LSDB/leader snapshot into
// the installed Metrics. Callers typically invoke this on a timer
// alongside their scrape interval, since the core itself does not run
// a background goroutine.
func (r *Router) ReportMetrics() {
	if r.met == nil {
		return
	}
	id := r.RouterID.String()

	counts := map[NeighborState]int{}
	for _, iface := range r.Interfaces {
		for _, n := range iface.neighbors {
			counts[n.State]++
		}
	}
	for s := Down; s <= Full; s++ {
		r.met.neighborsByState.WithLabelValues(id, s.String()).Set(float64(counts[s]))
	}

	r.met.lsdbSize.WithLabelValues(id, "router").Set(float64(len(r.RouterLsdb)))
	r.met.lsdbSize.WithLabelValues(id, "l1summary").Set(float64(len(r.L1SummaryLsdb)))
	r.met.lsdbSize.WithLabelValues(id, "area").Set(float64(len(r.AreaLsdb)))
	r.met.lsdbSize.WithLabelValues(id, "l2summary").Set(float64(len(r.L2SummaryLsdb)))

	leader := 0.0
	if r.IsAreaLeader {
		leader = 1.0
	}
	r.met.isAreaLeader.WithLabelValues(id).Set(leader)
}
