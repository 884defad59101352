package ospfap

import (
	"time"

	"golang.org/x/time/rate"
)

// LsaThrottleStats counts how origination requests for one LsaKey were
// handled, naming the same five counters as the original's per-key
// throttle bookkeeping (ospf-app-lsa-throttling.cc).
type LsaThrottleStats struct {
	RecomputeTriggers uint64
	Immediate         uint64
	DeferredScheduled uint64
	Suppressed        uint64
	CancelledPending  uint64
}

type throttleEntry struct {
	lastOriginated time.Time
	pending        bool
	timer          TimerHandle
	stats          LsaThrottleStats
}

type lsaThrottleState struct {
	perKey  map[LsaKey]*throttleEntry
	limiter *rate.Limiter
}

// newLsaThrottleState seeds a generous defense-in-depth rate limiter
// across all keys; the per-key deferred-timer logic below is the
// throttle of record, this only caps pathological total origination
// rate.
func newLsaThrottleState() lsaThrottleState {
	return lsaThrottleState{
		perKey:  make(map[LsaKey]*throttleEntry),
		limiter: rate.NewLimiter(rate.Limit(1000), 100),
	}
}

func (r *Router) throttleEntryFor(key LsaKey) *throttleEntry {
	e, ok := r.throttle.perKey[key]
	if !ok {
		e = &throttleEntry{}
		r.throttle.perKey[key] = e
	}
	return e
}

// ThrottleStats returns a copy of the throttle counters recorded for key.
func (r *Router) ThrottleStats(key LsaKey) LsaThrottleStats {
	return r.throttleEntryFor(key).stats
}

// ResetLsaThrottleStats zeroes the throttle counters for key, mirroring
// the original's GetLsaThrottleStats/ResetLsaThrottleStats pair.
func (r *Router) ResetLsaThrottleStats(key LsaKey) {
	r.throttleEntryFor(key).stats = LsaThrottleStats{}
}

// throttledRecompute runs fn at most once per MinLSInterval for key. A
// request refused by the global rate limiter is dropped and counted in
// Suppressed, whatever MinLSInterval is. Otherwise, if MinLSInterval is
// 0 fn runs immediately. Otherwise a request
// arriving before the interval elapses is coalesced into a single
// deferred run timed to fire exactly MinLSInterval after the last
// origination.
func (r *Router) throttledRecompute(key LsaKey, fn func()) {
	e := r.throttleEntryFor(key)
	e.stats.RecomputeTriggers++

	if !r.throttle.limiter.Allow() {
		e.stats.Suppressed++
		return
	}

	if r.MinLSInterval == 0 {
		e.stats.Immediate++
		e.lastOriginated = r.Clock.Now()
		fn()
		return
	}

	now := r.Clock.Now()
	since := now.Sub(e.lastOriginated)
	if e.lastOriginated.IsZero() || since >= msDuration(r.MinLSInterval) {
		e.stats.Immediate++
		e.lastOriginated = now
		fn()
		return
	}

	if e.pending {
		e.stats.CancelledPending++
		return
	}

	e.pending = true
	e.stats.DeferredScheduled++
	wait := msDuration(r.MinLSInterval) - since
	e.timer = r.Scheduler.Schedule(wait, func() {
		e.pending = false
		e.lastOriginated = r.Clock.Now()
		fn()
	})
}

// RecomputeRouterLsa walks this router's interfaces, collects active
// RouterLinks, bumps the SeqNum for (RouterLSAs, self, self), floods the
// result as a one-LSA LSU, and — if this router is the current area
// leader — cascades into a throttled Area-LSA recomputation.
func (r *Router) RecomputeRouterLsa() {
	var links []RouterLink
	for _, iface := range r.Interfaces {
		links = append(links, iface.GetActiveRouterLinks()...)
	}

	body := &RouterLSABody{FlagB: r.hasCrossAreaLink(links), Links: links}
	key := LsaKey{Type: RouterLSAs, LsID: uint32(r.RouterID), AdvertisingRouter: r.RouterID}
	h := r.stampHeader(key)

	r.RouterLsdb[r.RouterID] = lsdbEntry{Header: h, Body: body}
	r.floodOriginated(h, body)
	r.scheduleL1SpfUpdate()
	r.traceOrigination(key)

	if r.IsAreaLeader {
		r.lastL1Trigger = key
		r.ThrottledRecomputeAreaLsa()
	}
}

// ThrottledRecomputeRouterLsa schedules RecomputeRouterLsa subject to
// MinLSInterval throttling, keyed on this router's own Router-LSA, the
// same way ThrottledRecomputeAreaLsa throttles the area leader's
// cascade. The original throttles all four LSA types identically
// (ThrottledRecomputeRouterLsa in ospf-app-lsa-throttling.cc); every
// caller that used to invoke RecomputeRouterLsa directly goes through
// here instead.
func (r *Router) ThrottledRecomputeRouterLsa() {
	key := LsaKey{Type: RouterLSAs, LsID: uint32(r.RouterID), AdvertisingRouter: r.RouterID}
	r.throttledRecompute(key, r.RecomputeRouterLsa)
}

func (r *Router) hasCrossAreaLink(links []RouterLink) bool {
	for _, l := range links {
		if l.Type == LinkTypeCrossArea {
			return true
		}
	}
	return false
}

// RecomputeL1SummaryLsa emits one SummaryRoute per ExternalRoute this
// router injects. StartApplication runs it once; assigning a new
// ExternalRoutes value afterwards does not re-run it by itself.
func (r *Router) RecomputeL1SummaryLsa() {
	routes := make([]SummaryRoute, 0, len(r.ExternalRoutes))
	for _, er := range r.ExternalRoutes {
		routes = append(routes, SummaryRoute{Address: er.DestNet, Mask: er.Mask, Metric: er.Metric})
	}
	body := NewL1SummaryLSABody(routes)
	key := LsaKey{Type: L1SummaryLSAs, LsID: uint32(r.RouterID), AdvertisingRouter: r.RouterID}
	h := r.stampHeader(key)

	r.L1SummaryLsdb[r.RouterID] = lsdbEntry{Header: h, Body: body}
	r.floodOriginated(h, body)
	r.scheduleL1SpfUpdate()
	r.traceOrigination(key)

	if r.IsAreaLeader {
		r.lastL1Trigger = key
		r.ThrottledRecomputeL2SummaryLsa()
	}
}

// ThrottledRecomputeL1SummaryLsa schedules RecomputeL1SummaryLsa subject
// to MinLSInterval throttling, keyed on this router's own L1SummaryLSA.
func (r *Router) ThrottledRecomputeL1SummaryLsa() {
	key := LsaKey{Type: L1SummaryLSAs, LsID: uint32(r.RouterID), AdvertisingRouter: r.RouterID}
	r.throttledRecompute(key, r.RecomputeL1SummaryLsa)
}

// ThrottledRecomputeAreaLsa schedules RecomputeAreaLsa subject to
// MinLSInterval throttling, keyed on this area's AreaLSA.
func (r *Router) ThrottledRecomputeAreaLsa() {
	key := LsaKey{Type: AreaLSAs, LsID: uint32(r.AreaID), AdvertisingRouter: r.RouterID}
	r.throttledRecompute(key, r.RecomputeAreaLsa)
}

// ThrottledRecomputeL2SummaryLsa schedules RecomputeL2SummaryLsa subject
// to MinLSInterval throttling, keyed on this area's L2SummaryLSA.
func (r *Router) ThrottledRecomputeL2SummaryLsa() {
	key := LsaKey{Type: L2SummaryLSAs, LsID: uint32(r.AreaID), AdvertisingRouter: r.RouterID}
	r.throttledRecompute(key, r.RecomputeL2SummaryLsa)
}

// RecomputeAreaLsa scans the RouterLsdb for Type-5 (cross-area) links and
// projects them into AreaLinks. If the resulting link set is unchanged
// from the last origination, the regeneration is suppressed; otherwise a
// fresh AreaLSA is flooded. Leader-only.
func (r *Router) RecomputeAreaLsa() {
	if !r.IsAreaLeader {
		return
	}
	var links []AreaLink
	for _, entry := range r.RouterLsdb {
		rb, ok := entry.Body.(*RouterLSABody)
		if !ok {
			continue
		}
		for _, l := range rb.Links {
			if l.Type != LinkTypeCrossArea {
				continue
			}
			links = append(links, AreaLink{AreaID: AreaID(l.LinkID), IPAddress: l.LinkData, Metric: l.Metric})
		}
	}

	key := LsaKey{Type: AreaLSAs, LsID: uint32(r.AreaID), AdvertisingRouter: r.RouterID}
	if prev, ok := r.AreaLsdb[r.AreaID]; ok {
		if pb, ok := prev.Body.(*AreaLSABody); ok && sameAreaLinks(pb.Links, links) {
			r.throttleEntryFor(key).stats.Suppressed++
			return
		}
	}

	body := &AreaLSABody{Links: links}
	h := r.stampHeader(key)
	r.AreaLsdb[r.AreaID] = lsdbEntry{Header: h, Body: body}
	r.floodOriginated(h, body)
	r.scheduleL2SpfUpdate()
	r.traceOrigination(key)
	r.traceMapping(key)
}

func sameAreaLinks(a, b []AreaLink) bool {
	if len(a) != len(b) {
		return false
	}
	count := make(map[AreaLink]int, len(a))
	for _, l := range a {
		count[l]++
	}
	for _, l := range b {
		count[l]--
	}
	for _, c := range count {
		if c != 0 {
			return false
		}
	}
	return true
}

// RecomputeL2SummaryLsa unions the SummaryRoutes of every L1SummaryLsdb
// entry in this area and flushes the result as one L2SummaryLSA, with
// the same change-suppression as RecomputeAreaLsa. Leader-only.
func (r *Router) RecomputeL2SummaryLsa() {
	if !r.IsAreaLeader {
		return
	}
	seen := make(map[SummaryRoute]bool)
	var routes []SummaryRoute
	for _, entry := range r.L1SummaryLsdb {
		sb, ok := entry.Body.(*L1SummaryLSABody)
		if !ok {
			continue
		}
		for _, rt := range sb.Routes {
			if seen[rt] {
				continue
			}
			seen[rt] = true
			routes = append(routes, rt)
		}
	}

	key := LsaKey{Type: L2SummaryLSAs, LsID: uint32(r.AreaID), AdvertisingRouter: r.RouterID}
	if prev, ok := r.L2SummaryLsdb[r.AreaID]; ok {
		if pb, ok := prev.Body.(*L2SummaryLSABody); ok && sameRoutes(pb.Routes, routes) {
			r.throttleEntryFor(key).stats.Suppressed++
			return
		}
	}

	body := NewL2SummaryLSABody(routes)
	h := r.stampHeader(key)
	r.L2SummaryLsdb[r.AreaID] = lsdbEntry{Header: h, Body: body}
	r.floodOriginated(h, body)
	r.scheduleRoutingInstall()
	r.traceOrigination(key)
	r.traceMapping(key)
}

// traceOrigination forwards to the installed Tracer and Metrics, if any.
func (r *Router) traceOrigination(key LsaKey) {
	if r.trace != nil {
		r.trace.TraceLsaOrigination(r.Clock.Now(), key)
	}
	if r.met != nil {
		r.met.lsaOriginations.WithLabelValues(r.RouterID.String(), key.Type.String()).Inc()
	}
}

// traceMapping records which L1 key most recently triggered an L2
// origination, per spec.md section 6's lsa_mapping.csv.
func (r *Router) traceMapping(l2 LsaKey) {
	if r.trace != nil && r.lastL1Trigger != (LsaKey{}) {
		r.trace.TraceLsaMapping(r.lastL1Trigger, l2)
	}
}

func sameRoutes(a, b []SummaryRoute) bool {
	if len(a) != len(b) {
		return false
	}
	count := make(map[SummaryRoute]int, len(a))
	for _, rt := range a {
		count[rt]++
	}
	for _, rt := range b {
		count[rt]--
	}
	for _, c := range count {
		if c != 0 {
			return false
		}
	}
	return true
}

// stampHeader increments and returns the SeqNum for key, and builds the
// LsaHeader this router stamps on its own originated LSAs.
func (r *Router) stampHeader(key LsaKey) LsaHeader {
	r.SeqNumbers[key]++
	return LsaHeader{
		Type:              key.Type,
		LsID:              key.LsID,
		AdvertisingRouter: r.RouterID,
		SeqNum:            r.SeqNumbers[key],
	}
}
