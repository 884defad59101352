package ospfap

import "time"

// TimerHandle identifies a scheduled event so it can later be cancelled.
// The zero value denotes "no timer scheduled".
type TimerHandle uint64

// A Clock reports the current time to the core. Production code backs it
// with wall-clock time; tests back it with a fake that advances only when
// told to, so FSM and throttle timing stays deterministic.
type Clock interface {
	Now() time.Time
}

// A Scheduler lets the core arrange for a function to run after a delay,
// and to cancel a previously scheduled one. The core never starts its own
// timers, and the only goroutines it spawns are the socket read loops of
// StartReceiveLoops/StartReceiveLoopsFor, which hand every packet to a
// caller-supplied dispatch function; every suspension point is an
// explicit Schedule or Cancel call, per spec.md's single-threaded
// cooperative execution model.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) TimerHandle
	Cancel(h TimerHandle)
}

// Random supplies the jitter and DDSeqNum generators the core needs,
// seeded externally so test runs can be made reproducible.
type Random interface {
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
	// Uint32 returns a uniform 32-bit value, used to seed DDSeqNums.
	Uint32() uint32
}

// A NetDevice is one interface on the host as reported by the network
// device set.
type NetDevice struct {
	Index     IfIndex
	IpAddress uint32
	Mask      uint32
	MTU       uint16
	Up        bool
	// PeerIpAddress is the address on the far end of a point-to-point
	// channel, or zero on multi-access/unknown links.
	PeerIpAddress uint32
}

// NetDeviceSet enumerates the bound devices of the host and answers
// per-device queries, abstracting away the host networking stack.
type NetDeviceSet interface {
	Devices() []NetDevice
	Device(idx IfIndex) (NetDevice, bool)
}

// RawSocket is a bound, possibly-connected IPv4 raw socket speaking OSPF
// (IP protocol 89). The core never touches a file descriptor directly.
type RawSocket interface {
	SetTTL(ttl int) error
	SetBindToDevice(idx IfIndex) error
	SetBroadcast(allow bool) error
	SendTo(addr uint32, b []byte) (int, error)
	RecvFrom(b []byte) (n int, src uint32, err error)
	Close() error
}

// RouteEntry is one row the core wants installed in, or already finds in,
// the host forwarding table.
type RouteEntry struct {
	Network uint32
	Mask    uint32
	Gateway uint32
	IfIndex IfIndex
	Metric  uint32
}

// RoutingTable abstracts the host's IPv4 forwarding table. The core only
// ever appends and removes rows it previously installed; it never touches
// rows belonging to other protocols or static configuration.
type RoutingTable interface {
	AddNetworkRouteTo(network, mask, gateway uint32, idx IfIndex, metric uint32) int
	RemoveRoute(index int)
	NRoutes() int
	RouteAt(index int) RouteEntry
}
