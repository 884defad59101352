package ospfap

import "fmt"

// A RouterID is a 32-bit identifier for a router, conventionally drawn
// from one of its interface IPv4 addresses.
type RouterID uint32

// String returns the dotted-decimal representation of id.
func (id RouterID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// An AreaID is a 32-bit identifier for an OSPF area.
type AreaID uint32

// String returns the dotted-decimal representation of id.
func (id AreaID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// An IfIndex identifies a locally bound device. Index 0 is reserved as a
// loopback placeholder and is never a valid index for an active interface.
type IfIndex uint32

// An LSType enumerates the kind of a Link State Advertisement.
type LSType uint8

// Possible LSType values. Only RouterLSAs, L1SummaryLSAs, AreaLSAs and
// L2SummaryLSAs are originated and processed by this engine; the others
// are reserved for future use and are parsed but never produced.
const (
	RouterLSAs      LSType = 1
	NetworkLSAs     LSType = 2
	SummaryLSAsIP   LSType = 3
	SummaryLSAsASBR LSType = 4
	ASExternalLSAs  LSType = 5
	AreaLSAs        LSType = 6
	L1SummaryLSAs   LSType = 7
	L2SummaryLSAs   LSType = 8
)

// An LsaKey uniquely identifies an LSA instance in an LSDB.
type LsaKey struct {
	Type              LSType
	LsID              uint32
	AdvertisingRouter RouterID
}

// String returns a human-readable representation of the key, suitable for
// the lsa_mapping.csv trace and for log fields.
func (k LsaKey) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Type, k.LsID, k.AdvertisingRouter)
}

// A NeighborState is the state of a per-neighbor adjacency state machine.
type NeighborState uint8

// Possible NeighborState values, in ascending adjacency-progress order so
// that state comparisons (e.g. "at least TwoWay") can use ordinary
// integer comparisons.
const (
	Down NeighborState = iota
	Attempt
	Init
	TwoWay
	ExStart
	Exchange
	Loading
	Full
)

// isMaster reports which side of a DBD negotiation a router with
// routerID plays against a peer with peerID, using the standard OSPF
// tie-break: the numerically larger RouterID is Master.
func isMaster(routerID, peerID RouterID) bool {
	return routerID > peerID
}
