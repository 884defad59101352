package ospfap

// Default timing attributes, all overridable per spec.md section 6.
const (
	DefaultHelloInterval           uint32 = 10_000 // ms
	DefaultRouterDeadInterval      uint32 = 30_000 // ms
	DefaultLSUInterval             uint32 = 5_000  // ms, LSU/DBD/LSR retransmit interval
	DefaultShortestPathUpdateDelay uint32 = 5_000  // ms
	DefaultMinLSInterval           uint32 = 0      // ms, off
	DefaultInitialHelloDelay       uint32 = 0      // ms

	// maxJitterMs bounds the uniform jitter added to every scheduled send.
	maxJitterMs = 5
)

// Well-known OSPF multicast groups, as 32-bit big-endian-encoded IPv4
// addresses (224.0.0.5 and 224.0.0.6).
const (
	AllSPFRoutersAddr uint32 = 0xE0000005
	AllDRoutersAddr   uint32 = 0xE0000006
)

// IPProtocolOSPF is the IP protocol number carrying OSPF (89).
const IPProtocolOSPF = 89
