package ospfap

import "container/heap"

// scheduleL1SpfUpdate debounces L1 SPF recomputation: multiple calls
// within ShortestPathUpdateDelay collapse into a single run, per
// spec.md section 4.6.
func (r *Router) scheduleL1SpfUpdate() {
	if r.spfL1Pending {
		return
	}
	r.spfL1Pending = true
	r.Scheduler.Schedule(msDuration(r.ShortestPathUpdateDelay), func() {
		r.spfL1Pending = false
		r.UpdateL1ShortestPath()
		r.scheduleRoutingInstall()
		if r.met != nil {
			r.met.spfRuns.WithLabelValues(r.RouterID.String(), "L1").Inc()
		}
	})
}

// scheduleL2SpfUpdate debounces L2 SPF recomputation the same way.
func (r *Router) scheduleL2SpfUpdate() {
	if r.spfL2Pending {
		return
	}
	r.spfL2Pending = true
	r.Scheduler.Schedule(msDuration(r.ShortestPathUpdateDelay), func() {
		r.spfL2Pending = false
		r.UpdateL2ShortestPath()
		r.scheduleRoutingInstall()
		if r.met != nil {
			r.met.spfRuns.WithLabelValues(r.RouterID.String(), "L2").Inc()
		}
	})
}

type pqItem struct {
	dist uint32
	node uint32
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra runs a generic shortest-path search over a node→edges graph,
// returning the distance and previous-hop maps from source.
func dijkstra(source uint32, edges func(u uint32) map[uint32]uint32) (dist, prev map[uint32]uint32) {
	dist = map[uint32]uint32{source: 0}
	prev = map[uint32]uint32{}
	visited := map[uint32]bool{}

	pq := &priorityQueue{{dist: 0, node: source}}
	heap.Init(pq)
	for pq.Len() > 0 {
		u := heap.Pop(pq).(pqItem)
		if visited[u.node] {
			continue
		}
		visited[u.node] = true
		for v, w := range edges(u.node) {
			nd := dist[u.node] + w
			if old, ok := dist[v]; !ok || nd < old {
				dist[v] = nd
				prev[v] = u.node
				heap.Push(pq, pqItem{dist: nd, node: v})
			}
		}
	}
	return dist, prev
}

// firstHop walks prev back from d to the hop immediately after source.
func firstHop(source, d uint32, prev map[uint32]uint32) (uint32, bool) {
	if d == source {
		return 0, false
	}
	cur := d
	for {
		p, ok := prev[cur]
		if !ok {
			return 0, false
		}
		if p == source {
			return cur, true
		}
		cur = p
	}
}

// UpdateL1ShortestPath runs Dijkstra over the RouterLsdb graph and
// rebuilds L1NextHop and NextHopToShortestBorderRouter, per spec.md
// section 4.6.
func (r *Router) UpdateL1ShortestPath() {
	edges := func(u uint32) map[uint32]uint32 {
		out := map[uint32]uint32{}
		entry, ok := r.RouterLsdb[RouterID(u)]
		if !ok {
			return out
		}
		rb, ok := entry.Body.(*RouterLSABody)
		if !ok {
			return out
		}
		for _, l := range rb.Links {
			if l.Type != LinkTypeP2P {
				continue
			}
			out[l.LinkID] = uint32(l.Metric)
		}
		return out
	}

	dist, prev := dijkstra(uint32(r.RouterID), edges)

	r.L1NextHop = make(map[RouterID]l1NextHop)
	for d := range dist {
		if d == uint32(r.RouterID) {
			continue
		}
		v, ok := firstHop(uint32(r.RouterID), d, prev)
		if !ok {
			continue
		}
		ifIdx, gw, ok := r.fullNeighborByRouterID(RouterID(v))
		if !ok {
			// No Full neighbor to the first hop: skip this destination,
			// per spec.md section 7's "missing next-hop" policy.
			continue
		}
		r.L1NextHop[RouterID(d)] = l1NextHop{IfIndex: ifIdx, Gateway: gw, Cost: dist[d]}
	}

	r.NextHopToShortestBorderRouter = make(map[AreaID]borderRelay)
	for id, entry := range r.RouterLsdb {
		rb, ok := entry.Body.(*RouterLSABody)
		if !ok {
			continue
		}
		for _, l := range rb.Links {
			if l.Type != LinkTypeCrossArea {
				continue
			}
			remoteArea := AreaID(l.LinkID)
			var cost uint32
			var nh l1NextHop
			if id == r.RouterID {
				ifIdx, ok := r.ifaceByLocalIP(l.LinkData)
				if !ok {
					continue
				}
				cost = uint32(l.Metric)
				nh = l1NextHop{IfIndex: ifIdx, Cost: cost}
			} else {
				base, ok := r.L1NextHop[id]
				if !ok {
					continue
				}
				cost = base.Cost + uint32(l.Metric)
				nh = l1NextHop{IfIndex: base.IfIndex, Gateway: base.Gateway, Cost: cost}
			}
			cur, ok := r.NextHopToShortestBorderRouter[remoteArea]
			if !ok || cost < cur.NextHop.Cost {
				r.NextHopToShortestBorderRouter[remoteArea] = borderRelay{BorderRouter: id, NextHop: nh}
			}
		}
	}
}

func (r *Router) fullNeighborByRouterID(id RouterID) (IfIndex, uint32, bool) {
	for _, iface := range r.Interfaces {
		for _, n := range iface.neighbors {
			if n.RouterID == id && n.State == Full {
				return iface.Index, n.IpAddress, true
			}
		}
	}
	return 0, 0, false
}

func (r *Router) ifaceByLocalIP(ip uint32) (IfIndex, bool) {
	for _, iface := range r.Interfaces {
		if iface.IpAddress == ip {
			return iface.Index, true
		}
	}
	return 0, false
}

// UpdateL2ShortestPath runs Dijkstra over the AreaLsdb graph and rebuilds
// L2NextHop, per spec.md section 4.6.
func (r *Router) UpdateL2ShortestPath() {
	edges := func(u uint32) map[uint32]uint32 {
		out := map[uint32]uint32{}
		entry, ok := r.AreaLsdb[AreaID(u)]
		if !ok {
			return out
		}
		ab, ok := entry.Body.(*AreaLSABody)
		if !ok {
			return out
		}
		for _, l := range ab.Links {
			out[uint32(l.AreaID)] = uint32(l.Metric)
		}
		return out
	}

	dist, prev := dijkstra(uint32(r.AreaID), edges)

	r.L2NextHop = make(map[AreaID]l2NextHop)
	for d := range dist {
		if d == uint32(r.AreaID) {
			continue
		}
		f, ok := firstHop(uint32(r.AreaID), d, prev)
		if !ok {
			continue
		}
		r.L2NextHop[AreaID(d)] = l2NextHop{FirstHopArea: AreaID(f), Cost: dist[d]}
	}
}
