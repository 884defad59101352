package ospfap

// OspfInterface is the per-bound-device record described in spec.md
// section 3: local addressing, timing attributes, and the neighbors
// discovered on this link.
type OspfInterface struct {
	Index IfIndex

	IpAddress uint32
	Mask      uint32
	Gateway   uint32

	AreaID AreaID
	Metric uint16
	MTU    uint16

	HelloInterval      uint32 // milliseconds
	RouterDeadInterval uint32 // milliseconds

	// Up mirrors the host device's link state. While Up is false,
	// StartApplication opens no sockets on this interface and SendHello
	// and FloodLsu skip it; AutoSync overwrites Up with the device's
	// current state.
	Up bool

	neighbors map[uint32]*OspfNeighbor // keyed by neighbor IpAddress

	helloSocket, lsaSocket, unicastSocket RawSocket
}

// NewOspfInterface returns an OspfInterface with default timing
// attributes and no neighbors.
func NewOspfInterface(idx IfIndex, ip, mask uint32, area AreaID) *OspfInterface {
	return &OspfInterface{
		Index:              idx,
		IpAddress:          ip,
		Mask:               mask,
		AreaID:             area,
		Metric:             1,
		MTU:                1500,
		HelloInterval:      DefaultHelloInterval,
		RouterDeadInterval: DefaultRouterDeadInterval,
		neighbors:          make(map[uint32]*OspfNeighbor),
	}
}

// AddNeighbor records a newly discovered neighbor in state Init, or
// returns the existing record if ip is already known.
func (i *OspfInterface) AddNeighbor(routerID RouterID, ip uint32, area AreaID) *OspfNeighbor {
	if n, ok := i.neighbors[ip]; ok {
		return n
	}
	n := newOspfNeighbor(routerID, ip, area)
	i.neighbors[ip] = n
	return n
}

// GetNeighbor looks up a neighbor by its source IP on this interface.
func (i *OspfInterface) GetNeighbor(ip uint32) (*OspfNeighbor, bool) {
	n, ok := i.neighbors[ip]
	return n, ok
}

// IsNeighbor reports whether ip is a known neighbor on this interface.
func (i *OspfInterface) IsNeighbor(ip uint32) bool {
	_, ok := i.neighbors[ip]
	return ok
}

// RemoveNeighbor drops a neighbor record, e.g. on dead-timer expiry.
func (i *OspfInterface) RemoveNeighbor(ip uint32) {
	delete(i.neighbors, ip)
}

// ClearNeighbors drops every neighbor record on this interface.
func (i *OspfInterface) ClearNeighbors() {
	i.neighbors = make(map[uint32]*OspfNeighbor)
}

// Neighbors returns the live neighbor records on this interface.
func (i *OspfInterface) Neighbors() []*OspfNeighbor {
	out := make([]*OspfNeighbor, 0, len(i.neighbors))
	for _, n := range i.neighbors {
		out = append(out, n)
	}
	return out
}

// GetActiveRouterLinks returns one RouterLink per neighbor currently in
// state Full, classified per spec.md section 4.2: Type 1 (intra-area)
// when the neighbor's area matches this interface's area, Type 5
// (cross-area, the area-proxy extension) otherwise.
func (i *OspfInterface) GetActiveRouterLinks() []RouterLink {
	links := make([]RouterLink, 0, len(i.neighbors))
	for _, n := range i.neighbors {
		if n.State != Full {
			continue
		}
		if n.AreaID == i.AreaID {
			links = append(links, RouterLink{
				LinkID:   uint32(n.RouterID),
				LinkData: i.IpAddress,
				Type:     LinkTypeP2P,
				Metric:   i.Metric,
			})
		} else {
			links = append(links, RouterLink{
				LinkID:   uint32(n.AreaID),
				LinkData: i.IpAddress,
				Type:     LinkTypeCrossArea,
				Metric:   i.Metric,
			})
		}
	}
	return links
}
