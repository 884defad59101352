package ospfap

// sendOn transmits a marshaled Packet on sock after a uniform jitter, as
// required by spec.md section 5. It is a no-op if sock is nil (interface
// down or socket not yet opened).
func (r *Router) sendOn(sock RawSocket, addr uint32, p Packet) {
	if sock == nil {
		return
	}
	b, err := MarshalPacket(p)
	if err != nil {
		r.log.Warnf("marshal outgoing packet: %v", err)
		return
	}
	r.Scheduler.Schedule(r.jitter(), func() {
		if _, err := sock.SendTo(addr, b); err != nil {
			r.log.Warnf("send to %s: %v", RouterID(addr), err)
		}
		r.traceSend(p, b)
	})
}

func (r *Router) traceSend(p Packet, b []byte) {
	if r.trace == nil {
		return
	}
	r.trace.TracePacket(r.Clock.Now(), len(b), p.wireType(), lsaLevelOf(p))
}

func lsaLevelOf(p Packet) string {
	var lsas []LSA
	var hdrs []LsaHeader
	switch v := p.(type) {
	case *LinkStateUpdate:
		lsas = v.LSAs
	case *LinkStateAcknowledgement:
		hdrs = v.LSAs
	default:
		return ""
	}
	isL1, isL2 := false, false
	for _, l := range lsas {
		markLevel(l.Header.Type, &isL1, &isL2)
	}
	for _, h := range hdrs {
		markLevel(h.Type, &isL1, &isL2)
	}
	switch {
	case isL1 && !isL2:
		return "L1"
	case isL2 && !isL1:
		return "L2"
	case isL1 && isL2:
		return "L1"
	default:
		return ""
	}
}

func markLevel(t LSType, isL1, isL2 *bool) {
	switch t {
	case RouterLSAs, L1SummaryLSAs:
		*isL1 = true
	case AreaLSAs, L2SummaryLSAs:
		*isL2 = true
	}
}

// SendHello sends a Hello on every up interface listing that interface's
// currently known neighbor RouterIds, scheduling the next Hello tick.
func (r *Router) SendHello() {
	for _, iface := range r.Interfaces {
		if !iface.Up {
			continue
		}
		ids := make([]RouterID, 0, len(iface.neighbors))
		for _, n := range iface.neighbors {
			ids = append(ids, n.RouterID)
		}
		hello := &Hello{
			Header:             Header{RouterID: r.RouterID, AreaID: iface.AreaID},
			NetworkMask:        iface.Mask,
			HelloInterval:      iface.HelloInterval,
			RouterDeadInterval: iface.RouterDeadInterval,
			NeighborIDs:        ids,
		}
		r.sendOn(iface.helloSocket, AllSPFRoutersAddr, hello)
	}
	r.helloTimer = r.Scheduler.Schedule(msDuration(r.HelloInterval), r.SendHello)
}

// SendAck unicasts an LSAck to src acknowledging headers.
func (r *Router) SendAck(iface *OspfInterface, src uint32, headers []LsaHeader) {
	ack := &LinkStateAcknowledgement{
		Header: Header{RouterID: r.RouterID, AreaID: iface.AreaID},
		LSAs:   headers,
	}
	r.sendOn(iface.unicastSocket, src, ack)
}

// SendToNeighbor unicasts one packet to a neighbor on iface.
func (r *Router) SendToNeighbor(iface *OspfInterface, n *OspfNeighbor, p Packet) {
	h := p.header()
	h.RouterID = r.RouterID
	h.AreaID = iface.AreaID
	r.sendOn(iface.unicastSocket, n.IpAddress, p)
}

// SendToNeighborInterval retransmits p to n at the LSUInterval rxmt rate
// as long as n's state is at least TwoWay, clearing the retransmit timer
// once that condition fails.
func (r *Router) SendToNeighborInterval(iface *OspfInterface, n *OspfNeighbor, build func() Packet) {
	if n.State < TwoWay {
		n.rxmtTimer = 0
		return
	}
	r.SendToNeighbor(iface, n, build())
	n.rxmtTimer = r.Scheduler.Schedule(msDuration(r.LSUInterval), func() {
		r.SendToNeighborInterval(iface, n, build)
	})
}

// SendToNeighborKeyedInterval is SendToNeighborInterval's per-LsaKey
// sibling, used for LSU retransmission: one independent timer per key,
// cancelled on a matching LSAck.
func (r *Router) SendToNeighborKeyedInterval(iface *OspfInterface, n *OspfNeighbor, key LsaKey, build func() Packet) {
	if n.State < TwoWay {
		delete(n.keyedRxmtTimer, key)
		return
	}
	r.SendToNeighbor(iface, n, build())
	n.keyedRxmtTimer[key] = r.Scheduler.Schedule(msDuration(r.LSUInterval), func() {
		r.SendToNeighborKeyedInterval(iface, n, key, build)
	})
}

// floodOriginated sends a freshly originated LSA as a one-LSA LSU to
// every eligible Full neighbor, per FloodLsu's rules with no arrival
// interface to exclude.
func (r *Router) floodOriginated(h LsaHeader, body LSABody) {
	r.FloodLsu(LSA{Header: h, Body: body}, nil)
}

// FloodLsu forwards lsa to every Full neighbor on every interface except
// arrival (nil when locally originated). L1 LSAs stay within the
// arriving area and are only sent to neighbors in the interface's own
// area; L2 LSAs may cross area boundaries.
func (r *Router) FloodLsu(lsa LSA, arrival *OspfInterface) {
	isL1 := lsa.Header.Type == RouterLSAs || lsa.Header.Type == L1SummaryLSAs
	for _, iface := range r.Interfaces {
		if iface == arrival || !iface.Up {
			continue
		}
		if isL1 && arrival != nil && iface.AreaID != arrival.AreaID {
			continue
		}
		for _, n := range iface.neighbors {
			if n.State != Full {
				continue
			}
			if isL1 && n.AreaID != iface.AreaID {
				continue
			}
			lsu := &LinkStateUpdate{
				Header: Header{RouterID: r.RouterID, AreaID: iface.AreaID},
				LSAs:   []LSA{lsa},
			}
			r.SendToNeighborKeyedInterval(iface, n, lsa.Header.Key(), func() Packet { return lsu })
		}
	}
}

// maxPacketSize bounds one read off a raw socket: larger than any MTU
// this engine's interfaces are configured with, small enough to keep
// per-goroutine buffers cheap.
const maxPacketSize = 65536

// StartReceiveLoops spawns one goroutine per open socket on every up
// interface, each looping RecvFrom and handing the result to dispatch so
// HandleRead still runs on the single logical event loop spec.md
// section 5 assumes even though the reads themselves happen on
// arbitrary goroutines. Pass the same dispatch function given to
// NewRealScheduler's runOn parameter. A loop exits silently once its
// socket's RecvFrom starts erroring, which is what Close causes. Call
// this once after StartApplication; use StartReceiveLoopsFor to cover a
// single interface that AutoSync brings up later.
func (r *Router) StartReceiveLoops(dispatch func(func())) {
	for _, iface := range r.Interfaces {
		if iface.Up {
			r.StartReceiveLoopsFor(iface, dispatch)
		}
	}
}

// StartReceiveLoopsFor spawns the same per-socket read goroutines as
// StartReceiveLoops, but only for one interface. AutoSync calls this
// exactly once per up-transition so a socket already being read is
// never handed a second, redundant reader goroutine.
func (r *Router) StartReceiveLoopsFor(iface *OspfInterface, dispatch func(func())) {
	for _, sock := range []RawSocket{iface.helloSocket, iface.lsaSocket, iface.unicastSocket} {
		if sock == nil {
			continue
		}
		go r.receiveLoop(iface, sock, dispatch)
	}
}

func (r *Router) receiveLoop(iface *OspfInterface, sock RawSocket, dispatch func(func())) {
	buf := make([]byte, maxPacketSize)
	for {
		n, src, err := sock.RecvFrom(buf)
		if err != nil {
			return
		}
		pkt := append([]byte(nil), buf[:n]...)
		dispatch(func() { r.HandleRead(iface, src, pkt) })
	}
}

// HandleRead demultiplexes one received OSPF packet, identified by the
// interface it arrived on and the sender's source IP.
func (r *Router) HandleRead(iface *OspfInterface, src uint32, b []byte) {
	p, err := ParsePacket(b)
	if err != nil {
		r.log.Warnf("drop malformed packet from %s: %v", RouterID(src), err)
		return
	}
	r.traceSend(p, b)

	switch pkt := p.(type) {
	case *Hello:
		r.HandleHello(iface, src, pkt)
	case *DatabaseDescription:
		r.HandleDbd(iface, src, pkt)
	case *LinkStateRequest:
		r.HandleLsr(iface, src, pkt)
	case *LinkStateUpdate:
		r.HandleLsu(iface, src, pkt)
	case *LinkStateAcknowledgement:
		r.HandleLsAck(iface, src, pkt)
	}
}
