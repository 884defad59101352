package ospfap

// isSmallestInArea reports whether this router's RouterID is the
// numerically smallest key present in its RouterLsdb. Per spec.md's
// open question (resolved in SPEC_FULL.md's grounding decision), this
// is deliberately unfiltered by any further reachability check: the
// RouterLsdb is already area-scoped by the L1 flood boundary, so the
// smallest key within it is the smallest router in this area.
func (r *Router) isSmallestInArea() bool {
	smallest := r.RouterID
	for id := range r.RouterLsdb {
		if id < smallest {
			smallest = id
		}
	}
	return smallest == r.RouterID
}

// ScheduleInitialLeadershipAttempt arms the one-shot timer that, on
// firing, makes this router the area leader if it still believes itself
// smallest. Called once from StartApplication.
func (r *Router) ScheduleInitialLeadershipAttempt() {
	if !r.EnableAreaProxy {
		return
	}
	delay := msDuration(r.RouterDeadInterval) + r.jitter()
	r.areaLeaderTimer = r.Scheduler.Schedule(delay, r.attemptLeadership)
}

func (r *Router) attemptLeadership() {
	r.areaLeaderTimer = 0
	if r.isSmallestInArea() {
		r.AreaLeaderBegin()
	}
}

// AreaLeaderBegin promotes this router to area leader: it starts
// originating Area-LSA and L2-Summary-LSA for its area.
func (r *Router) AreaLeaderBegin() {
	if r.IsAreaLeader {
		return
	}
	r.IsAreaLeader = true
	r.RecomputeAreaLsa()
	r.RecomputeL2SummaryLsa()
}

// AreaLeaderEnd demotes this router from area leader. Existing
// Area/L2Summary LSAs already flooded are left in the LSDBs to be
// replaced by the new leader's higher-SeqNum originations; this router
// simply stops producing them.
func (r *Router) AreaLeaderEnd() {
	r.IsAreaLeader = false
}

// updateLeadershipEligibility is called after every RouterLsdb mutation.
// A leader that is no longer smallest steps down immediately; becoming
// smallest never promotes synchronously, since a momentarily-empty
// RouterLsdb (mid-flood, or just after a neighbor drop) would otherwise
// flap leadership. Either way a router that isn't currently leader gets
// a fresh RouterDeadInterval+jitter attempt timer, exactly as if it had
// just started up.
func (r *Router) updateLeadershipEligibility() {
	if !r.EnableAreaProxy {
		return
	}
	if r.areaLeaderTimer != 0 {
		r.Scheduler.Cancel(r.areaLeaderTimer)
		r.areaLeaderTimer = 0
	}

	smallest := r.isSmallestInArea()
	if !smallest && r.IsAreaLeader {
		r.AreaLeaderEnd()
	}
	if !r.IsAreaLeader && r.running {
		r.ScheduleInitialLeadershipAttempt()
	}
}
