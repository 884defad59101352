package ospfap

// HandleHello implements the Hello handler of spec.md section 4.3.
func (r *Router) HandleHello(iface *OspfInterface, src uint32, h *Hello) {
	if h.HelloInterval != iface.HelloInterval || h.RouterDeadInterval != iface.RouterDeadInterval {
		return
	}

	n, known := iface.GetNeighbor(src)
	if !known {
		n = iface.AddNeighbor(h.Header.RouterID, src, h.Header.AreaID)
	}
	if n.AreaID != h.Header.AreaID {
		n.AreaID = h.Header.AreaID
	}

	if !h.IsNeighbor(r.RouterID) {
		if n.State > Init {
			r.fallbackToInit(iface, n)
		}
		return
	}

	r.refreshDeadTimer(iface, n)
	if n.State == Init {
		n.State = ExStart
		n.DDSeqNum = r.Random.Uint32()
		n.IsMaster = true
		r.negotiateDbd(iface, n)
	}
}

func (r *Router) refreshDeadTimer(iface *OspfInterface, n *OspfNeighbor) {
	if n.deadTimer != 0 {
		r.Scheduler.Cancel(n.deadTimer)
	}
	n.LastHelloReceived = r.Clock.Now()
	n.deadTimer = r.Scheduler.Schedule(msDuration(iface.RouterDeadInterval), func() {
		r.helloTimeout(iface, n)
	})
}

func (r *Router) helloTimeout(iface *OspfInterface, n *OspfNeighbor) {
	r.fallbackToDown(iface, n)
}

func (r *Router) fallbackToDown(iface *OspfInterface, n *OspfNeighbor) {
	n.State = Down
	n.cancelAllTimers(r.Scheduler)
	iface.RemoveNeighbor(n.IpAddress)
	r.ThrottledRecomputeRouterLsa()
}

func (r *Router) fallbackToInit(iface *OspfInterface, n *OspfNeighbor) {
	n.State = Init
	n.cancelAllTimers(r.Scheduler)
	r.ThrottledRecomputeRouterLsa()
}

// negotiateDbd starts ExStart by retransmitting an empty, all-flags DBD
// until the peer responds.
func (r *Router) negotiateDbd(iface *OspfInterface, n *OspfNeighbor) {
	build := func() Packet {
		return &DatabaseDescription{
			Header:   Header{RouterID: r.RouterID, AreaID: iface.AreaID},
			MTU:      iface.MTU,
			Flags:    DDFlagI | DDFlagM | DDFlagMS,
			DDSeqNum: n.DDSeqNum,
		}
	}
	r.SendToNeighborInterval(iface, n, build)
}

// HandleDbd implements the DBD negotiation and exchange handler of
// spec.md section 4.3.
func (r *Router) HandleDbd(iface *OspfInterface, src uint32, dd *DatabaseDescription) {
	n, ok := iface.GetNeighbor(src)
	if !ok || n.State < Init {
		return
	}

	switch n.State {
	case ExStart:
		r.negotiateInitialDbd(iface, n, dd)
	case Exchange:
		r.exchangeDbd(iface, n, dd)
	}
}

func (r *Router) negotiateInitialDbd(iface *OspfInterface, n *OspfNeighbor, dd *DatabaseDescription) {
	allFlags := dd.Flags&DDFlagI != 0 && dd.Flags&DDFlagM != 0 && dd.Flags&DDFlagMS != 0
	switch {
	case n.RouterID > r.RouterID && allFlags:
		// We are Slave.
		if n.rxmtTimer != 0 {
			r.Scheduler.Cancel(n.rxmtTimer)
			n.rxmtTimer = 0
		}
		n.IsMaster = false
		n.DDSeqNum = dd.DDSeqNum
		n.dbdQueue = r.snapshotLsdbHeaders(iface, n)
		n.State = Exchange
		r.sendSlaveDbd(iface, n)
	case n.RouterID < r.RouterID && dd.Flags&DDFlagMS == 0:
		// We are Master. The Slave's reply already carries its first
		// page of headers.
		for _, h := range dd.LSAs {
			n.recordObserved(h)
		}
		if n.rxmtTimer != 0 {
			r.Scheduler.Cancel(n.rxmtTimer)
			n.rxmtTimer = 0
		}
		n.IsMaster = true
		n.dbdQueue = r.snapshotLsdbHeaders(iface, n)
		n.State = Exchange
		r.pollMasterDbd(iface, n)
	default:
		// Tie or inconsistent claim: log and drop, per spec.md section 7.
		r.log.Errorf("DBD negotiation conflict with %s", n.RouterID)
	}
}

// snapshotLsdbHeaders builds the set of LsaHeaders this neighbor is
// eligible to see: Router-LSA and L1Summary-LSA only when the neighbor
// shares this interface's area; Area-LSA and L2Summary-LSA always.
func (r *Router) snapshotLsdbHeaders(iface *OspfInterface, n *OspfNeighbor) []LsaHeader {
	var hdrs []LsaHeader
	if n.AreaID == iface.AreaID {
		for _, e := range r.RouterLsdb {
			hdrs = append(hdrs, e.Header)
		}
		for _, e := range r.L1SummaryLsdb {
			hdrs = append(hdrs, e.Header)
		}
	}
	for _, e := range r.AreaLsdb {
		hdrs = append(hdrs, e.Header)
	}
	for _, e := range r.L2SummaryLsdb {
		hdrs = append(hdrs, e.Header)
	}
	return hdrs
}

func (r *Router) sendSlaveDbd(iface *OspfInterface, n *OspfNeighbor) {
	page := n.PopMaxMtuFromDbdQueue(iface.MTU)
	flags := uint8(0)
	if !n.dbdDrained() {
		flags |= DDFlagM
	}
	dd := &DatabaseDescription{
		Header:   Header{RouterID: r.RouterID, AreaID: iface.AreaID},
		MTU:      iface.MTU,
		Flags:    flags,
		DDSeqNum: n.DDSeqNum,
		LSAs:     page,
	}
	r.SendToNeighbor(iface, n, dd)
}

func (r *Router) pollMasterDbd(iface *OspfInterface, n *OspfNeighbor) {
	page := n.PopMaxMtuFromDbdQueue(iface.MTU)
	flags := DDFlagMS
	if !n.dbdDrained() {
		flags |= DDFlagM
	}
	build := func() Packet {
		return &DatabaseDescription{
			Header:   Header{RouterID: r.RouterID, AreaID: iface.AreaID},
			MTU:      iface.MTU,
			Flags:    flags,
			DDSeqNum: n.DDSeqNum,
			LSAs:     page,
		}
	}
	r.SendToNeighborInterval(iface, n, build)
}

// exchangeDbd handles a DBD received while in state Exchange: records
// the peer's described headers, pages out our own queue, and decides
// whether to advance to Loading.
func (r *Router) exchangeDbd(iface *OspfInterface, n *OspfNeighbor, dd *DatabaseDescription) {
	for _, h := range dd.LSAs {
		n.recordObserved(h)
	}

	if n.IsMaster {
		if dd.DDSeqNum != n.DDSeqNum {
			return // stale reply, ignore; PollMasterDbd will retry
		}
		if n.rxmtTimer != 0 {
			r.Scheduler.Cancel(n.rxmtTimer)
			n.rxmtTimer = 0
		}
		n.DDSeqNum++
		if n.dbdDrained() && dd.Flags&DDFlagM == 0 {
			r.advanceToLoading(iface, n)
			return
		}
		r.pollMasterDbd(iface, n)
		return
	}

	// We are Slave: echo the Master's new DDSeqNum.
	n.DDSeqNum = dd.DDSeqNum
	moreFromMaster := dd.Flags&DDFlagM != 0
	r.sendSlaveDbd(iface, n)
	if n.dbdDrained() && !moreFromMaster {
		r.advanceToLoading(iface, n)
	}
}

// advanceToLoading computes the LSR queue (every key the peer claims at
// a strictly higher SeqNum, plus keys only they have) and starts
// requesting, or skips straight to Full if nothing is owed.
func (r *Router) advanceToLoading(iface *OspfInterface, n *OspfNeighbor) {
	n.State = Loading
	n.lsrQueue = r.computeLsrQueue(n)
	if n.lsrDrained() {
		r.advanceToFull(iface, n)
		return
	}
	r.sendNextLsr(iface, n)
}

func (r *Router) computeLsrQueue(n *OspfNeighbor) []LsaKey {
	var keys []LsaKey
	for key, seq := range n.observedSeqNum {
		local := r.localSeqNumFor(key)
		if seq > local {
			keys = append(keys, key)
		}
	}
	return keys
}

// localSeqNumFor returns the SeqNum this router currently stores for
// key, or 0 if the key is entirely unknown locally.
func (r *Router) localSeqNumFor(key LsaKey) uint32 {
	switch key.Type {
	case RouterLSAs:
		if e, ok := r.RouterLsdb[RouterID(key.AdvertisingRouter)]; ok {
			return e.Header.SeqNum
		}
	case L1SummaryLSAs:
		if e, ok := r.L1SummaryLsdb[RouterID(key.AdvertisingRouter)]; ok {
			return e.Header.SeqNum
		}
	case AreaLSAs:
		if e, ok := r.AreaLsdb[AreaID(key.LsID)]; ok {
			return e.Header.SeqNum
		}
	case L2SummaryLSAs:
		if e, ok := r.L2SummaryLsdb[AreaID(key.LsID)]; ok {
			return e.Header.SeqNum
		}
	}
	return 0
}

func (r *Router) sendNextLsr(iface *OspfInterface, n *OspfNeighbor) {
	page := n.PopMaxMtuFromLsrQueue(iface.MTU)
	build := func() Packet {
		return &LinkStateRequest{
			Header: Header{RouterID: r.RouterID, AreaID: iface.AreaID},
			Keys:   page,
		}
	}
	r.SendToNeighborInterval(iface, n, build)
}

// HandleLsr answers an LSR with an LSU containing every requested LSA
// this router has.
func (r *Router) HandleLsr(iface *OspfInterface, src uint32, lsr *LinkStateRequest) {
	n, ok := iface.GetNeighbor(src)
	if !ok || n.State < Exchange {
		return
	}
	var lsas []LSA
	for _, key := range lsr.Keys {
		if e, ok := r.lookupLsdb(key); ok {
			lsas = append(lsas, LSA{Header: e.Header, Body: e.Body})
		}
	}
	if len(lsas) == 0 {
		return
	}
	lsu := &LinkStateUpdate{
		Header: Header{RouterID: r.RouterID, AreaID: iface.AreaID},
		LSAs:   lsas,
	}
	r.SendToNeighbor(iface, n, lsu)
}

func (r *Router) lookupLsdb(key LsaKey) (lsdbEntry, bool) {
	switch key.Type {
	case RouterLSAs:
		e, ok := r.RouterLsdb[RouterID(key.AdvertisingRouter)]
		return e, ok
	case L1SummaryLSAs:
		e, ok := r.L1SummaryLsdb[RouterID(key.AdvertisingRouter)]
		return e, ok
	case AreaLSAs:
		e, ok := r.AreaLsdb[AreaID(key.LsID)]
		return e, ok
	case L2SummaryLSAs:
		e, ok := r.L2SummaryLsdb[AreaID(key.LsID)]
		return e, ok
	}
	return lsdbEntry{}, false
}

// HandleLsu installs each contained LSA via ProcessLsa, floods installed
// ones, removes satisfied keys from the neighbor's LSR queue, and
// acknowledges every LSA in the update that has a parsed body; LSAs
// without one are skipped and not acknowledged.
func (r *Router) HandleLsu(iface *OspfInterface, src uint32, lsu *LinkStateUpdate) {
	n, ok := iface.GetNeighbor(src)
	if !ok || n.State < Exchange {
		return
	}

	var acked []LsaHeader
	for _, lsa := range lsu.LSAs {
		if lsa.Body == nil {
			continue
		}
		if r.ProcessLsa(lsa.Header, lsa.Body) {
			r.FloodLsu(lsa, iface)
		}
		acked = append(acked, lsa.Header)
		r.removeFromLsrQueue(n, lsa.Header.Key())
	}
	if len(acked) > 0 {
		r.SendAck(iface, src, acked)
	}
	if n.State == Loading && n.lsrDrained() {
		r.advanceToFull(iface, n)
	}
}

func (r *Router) removeFromLsrQueue(n *OspfNeighbor, key LsaKey) {
	for i, k := range n.lsrQueue {
		if k == key {
			n.lsrQueue = append(n.lsrQueue[:i], n.lsrQueue[i+1:]...)
			return
		}
	}
}

// HandleLsAck cancels the keyed retransmit timer for every acknowledged
// LSA; no SeqNum validation is performed, per spec.md's open question.
func (r *Router) HandleLsAck(iface *OspfInterface, src uint32, ack *LinkStateAcknowledgement) {
	n, ok := iface.GetNeighbor(src)
	if !ok {
		return
	}
	for _, h := range ack.LSAs {
		n.cancelKeyedRxmt(r.Scheduler, h.Key())
	}
}

// advanceToFull completes the adjacency, recomputes this router's
// Router-LSA (the link set changed) and locally processes it, which may
// cascade into Area-LSA regeneration if this router is area leader.
func (r *Router) advanceToFull(iface *OspfInterface, n *OspfNeighbor) {
	n.State = Full
	r.ThrottledRecomputeRouterLsa()
}
