package ospfap

// routeKey identifies one destination prefix in the L1/L2 projection
// maps built by UpdateRouting.
type routeKey struct {
	Network uint32
	Mask    uint32
}

type routeValue struct {
	Gateway uint32
	IfIndex IfIndex
	Metric  uint32
}

// scheduleRoutingInstall is not itself debounced: it is only called from
// the already-debounced SPF completions and from L2Summary LSDB
// installs, so a direct call is sufficient to satisfy spec.md's "at most
// one recomputation per window" in practice.
func (r *Router) scheduleRoutingInstall() {
	r.UpdateRouting()
}

// UpdateRouting rebuilds the L1 and L2 projection maps and installs them
// into the host routing table, L1 always winning over L2, per spec.md
// section 4.7.
func (r *Router) UpdateRouting() {
	l1 := r.projectL1Routes()
	l2 := r.projectL2Routes(l1)

	r.clearInstalledRoutes()
	r.installRoutes(l1)
	r.installRoutes(l2)
}

func (r *Router) projectL1Routes() map[routeKey]routeValue {
	out := make(map[routeKey]routeValue)
	for _, er := range r.ExternalRoutes {
		out[routeKey{Network: er.DestNet, Mask: er.Mask}] = routeValue{
			Gateway: 0,
			IfIndex: er.IfIndex,
			Metric:  er.Metric,
		}
	}

	for remote, nh := range r.L1NextHop {
		entry, ok := r.L1SummaryLsdb[remote]
		if !ok {
			continue
		}
		sb, ok := entry.Body.(*L1SummaryLSABody)
		if !ok {
			continue
		}
		for _, rt := range sb.Routes {
			key := routeKey{Network: rt.Address, Mask: rt.Mask}
			cost := nh.Cost + rt.Metric
			cur, exists := out[key]
			if !exists || cost < cur.Metric {
				out[key] = routeValue{Gateway: nh.Gateway, IfIndex: nh.IfIndex, Metric: cost}
			}
		}
	}
	return out
}

func (r *Router) projectL2Routes(l1 map[routeKey]routeValue) map[routeKey]routeValue {
	out := make(map[routeKey]routeValue)
	for area, nh := range r.L2NextHop {
		if area == r.AreaID {
			continue
		}
		entry, ok := r.L2SummaryLsdb[area]
		if !ok {
			continue
		}
		sb, ok := entry.Body.(*L2SummaryLSABody)
		if !ok {
			continue
		}
		relay, ok := r.NextHopToShortestBorderRouter[nh.FirstHopArea]
		if !ok {
			continue
		}
		for _, rt := range sb.Routes {
			key := routeKey{Network: rt.Address, Mask: rt.Mask}
			if _, inL1 := l1[key]; inL1 {
				// L1 always wins.
				continue
			}
			cost := relay.NextHop.Cost + rt.Metric
			cur, exists := out[key]
			if !exists || cost < cur.Metric {
				out[key] = routeValue{Gateway: relay.NextHop.Gateway, IfIndex: relay.NextHop.IfIndex, Metric: cost}
			}
		}
	}
	return out
}

// clearInstalledRoutes removes the previously-OSPF-installed suffix of
// the host routing table, in reverse so earlier indexes stay valid.
func (r *Router) clearInstalledRoutes() {
	for i := len(r.installedRoutes) - 1; i >= 0; i-- {
		r.Routes.RemoveRoute(r.installedRoutes[i])
	}
	r.installedRoutes = r.installedRoutes[:0]
}

// installRoutes installs m's rows into the routing table in map
// iteration order, recording the resulting indexes for later removal.
func (r *Router) installRoutes(m map[routeKey]routeValue) {
	for key, v := range m {
		idx := r.Routes.AddNetworkRouteTo(key.Network, key.Mask, v.Gateway, v.IfIndex, v.Metric)
		r.installedRoutes = append(r.installedRoutes, idx)
	}
}
