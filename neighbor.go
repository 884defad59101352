package ospfap

import "time"

// OspfNeighbor is the per-neighbor adjacency record described in
// spec.md section 3: FSM state plus the queues and timers that drive it
// through Database Description exchange and loading.
type OspfNeighbor struct {
	RouterID  RouterID
	IpAddress uint32
	AreaID    AreaID
	State     NeighborState

	// DDSeqNum is the Database Description sequence number currently in
	// use for this adjacency: ours if we are Master, the peer's if Slave.
	DDSeqNum uint32
	IsMaster bool

	LastDbdSent       *DatabaseDescription
	LastHelloReceived time.Time

	// dbdQueue holds the LsaHeaders this neighbor is still owed during
	// Exchange, paged out by PopMaxMtuFromDbdQueue.
	dbdQueue []LsaHeader
	// lsrQueue holds the LsaKeys we still need to request during
	// Loading, paged out by PopMaxMtuFromLsrQueue.
	lsrQueue []LsaKey

	// observedSeqNum is this neighbor's self-reported SeqNum per key, as
	// learned from their DBD headers.
	observedSeqNum map[LsaKey]uint32

	deadTimer      TimerHandle
	rxmtTimer      TimerHandle
	keyedRxmtTimer map[LsaKey]TimerHandle
}

func newOspfNeighbor(routerID RouterID, ip uint32, area AreaID) *OspfNeighbor {
	return &OspfNeighbor{
		RouterID:       routerID,
		IpAddress:      ip,
		AreaID:         area,
		State:          Init,
		observedSeqNum: make(map[LsaKey]uint32),
		keyedRxmtTimer: make(map[LsaKey]TimerHandle),
	}
}

// PopMaxMtuFromDbdQueue pops up to ⌊(mtu−100)/20⌋ headers from the front
// of the neighbor's DBD queue, per spec.md's boundary behavior (zero
// headers for mtu < 120).
func (n *OspfNeighbor) PopMaxMtuFromDbdQueue(mtu uint16) []LsaHeader {
	return popHeaders(&n.dbdQueue, dbdPageSize(mtu))
}

// PopMaxMtuFromLsrQueue pops up to ⌊(mtu−92)/12⌋ LsaKeys from the front
// of the neighbor's LSR queue, the 12-byte Link State Request triple's
// own MTU budget (zero keys for mtu < 104).
func (n *OspfNeighbor) PopMaxMtuFromLsrQueue(mtu uint16) []LsaKey {
	budget := lsrPageSize(mtu)
	if budget > len(n.lsrQueue) {
		budget = len(n.lsrQueue)
	}
	page := append([]LsaKey(nil), n.lsrQueue[:budget]...)
	n.lsrQueue = n.lsrQueue[budget:]
	return page
}

func dbdPageSize(mtu uint16) int {
	if mtu < 120 {
		return 0
	}
	return int(mtu-100) / 20
}

func lsrPageSize(mtu uint16) int {
	if mtu < 104 {
		return 0
	}
	return int(mtu-92) / 12
}

func popHeaders(queue *[]LsaHeader, n int) []LsaHeader {
	if n > len(*queue) {
		n = len(*queue)
	}
	page := append([]LsaHeader(nil), (*queue)[:n]...)
	*queue = (*queue)[n:]
	return page
}

// dbdDrained reports whether this neighbor's DBD queue is empty, the
// condition (alongside M=0 from both sides) for advancing to Loading.
func (n *OspfNeighbor) dbdDrained() bool { return len(n.dbdQueue) == 0 }

// lsrDrained reports whether this neighbor's LSR queue is empty, the
// condition for advancing from Loading to Full.
func (n *OspfNeighbor) lsrDrained() bool { return len(n.lsrQueue) == 0 }

// recordObserved stores the peer's self-reported SeqNum for a key,
// learned from one of their DBD headers.
func (n *OspfNeighbor) recordObserved(h LsaHeader) {
	n.observedSeqNum[h.Key()] = h.SeqNum
}

// cancelKeyedRxmt clears the LSU retransmit timer for one key, e.g. on a
// matching LSAck. No-op if none is scheduled.
func (n *OspfNeighbor) cancelKeyedRxmt(s Scheduler, key LsaKey) {
	if h, ok := n.keyedRxmtTimer[key]; ok {
		s.Cancel(h)
		delete(n.keyedRxmtTimer, key)
	}
}

// cancelAllTimers clears every timer this neighbor owns: the dead timer,
// the DBD/LSR retransmit timer, and every keyed LSU retransmit timer.
func (n *OspfNeighbor) cancelAllTimers(s Scheduler) {
	if n.deadTimer != 0 {
		s.Cancel(n.deadTimer)
		n.deadTimer = 0
	}
	if n.rxmtTimer != 0 {
		s.Cancel(n.rxmtTimer)
		n.rxmtTimer = 0
	}
	for k, h := range n.keyedRxmtTimer {
		s.Cancel(h)
		delete(n.keyedRxmtTimer, k)
	}
}
