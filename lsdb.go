package ospfap

// ProcessLsa applies an incoming (header, body) pair to the LSDB keyed by
// header.Type, per the install-vs-drop rule in spec.md section 4.4:
// install if absent, install if strictly newer, install on an
// equal-SeqNum tie broken toward the smaller AdvertisingRouter, else
// drop. It reports whether the entry was installed, and on install
// arranges the follow-on work (SPF debounce or routing install) the
// LSDB's own type implies.
func (r *Router) ProcessLsa(h LsaHeader, body LSABody) bool {
	switch h.Type {
	case RouterLSAs:
		if r.installLsdb(r.RouterLsdb, h.AdvertisingRouter, h, body) {
			r.scheduleL1SpfUpdate()
			r.updateLeadershipEligibility()
			return true
		}
	case L1SummaryLSAs:
		if r.installLsdb(r.L1SummaryLsdb, h.AdvertisingRouter, h, body) {
			r.scheduleL1SpfUpdate()
			return true
		}
	case AreaLSAs:
		if r.installLsdbByArea(r.AreaLsdb, AreaID(h.LsID), h, body) {
			r.scheduleL2SpfUpdate()
			return true
		}
	case L2SummaryLSAs:
		if r.installLsdbByArea(r.L2SummaryLsdb, AreaID(h.LsID), h, body) {
			r.scheduleRoutingInstall()
			return true
		}
	}
	return false
}

func (r *Router) installLsdb(m map[RouterID]lsdbEntry, key RouterID, h LsaHeader, body LSABody) bool {
	cur, ok := m[key]
	if !acceptLsa(ok, cur.Header, h) {
		return false
	}
	m[key] = lsdbEntry{Header: h, Body: body}
	return true
}

func (r *Router) installLsdbByArea(m map[AreaID]lsdbEntry, key AreaID, h LsaHeader, body LSABody) bool {
	cur, ok := m[key]
	if !acceptLsa(ok, cur.Header, h) {
		return false
	}
	m[key] = lsdbEntry{Header: h, Body: body}
	return true
}

// acceptLsa implements the shared comparison rule for all four LSDBs.
func acceptLsa(present bool, stored, incoming LsaHeader) bool {
	if !present {
		return true
	}
	if incoming.SeqNum > stored.SeqNum {
		return true
	}
	if incoming.SeqNum == stored.SeqNum && incoming.AdvertisingRouter < stored.AdvertisingRouter {
		return true
	}
	return false
}
