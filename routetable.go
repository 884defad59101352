package ospfap

import (
	"net"

	"github.com/vishvananda/netlink"
)

// InMemoryRoutingTable is a RoutingTable collaborator that keeps rows in
// a slice, for tests and for any deployment that projects OSPF routes
// into something other than the Linux kernel table.
type InMemoryRoutingTable struct {
	rows []RouteEntry
	live []bool
}

// NewInMemoryRoutingTable returns an empty InMemoryRoutingTable.
func NewInMemoryRoutingTable() *InMemoryRoutingTable {
	return &InMemoryRoutingTable{}
}

// AddNetworkRouteTo appends a row and returns its index.
func (t *InMemoryRoutingTable) AddNetworkRouteTo(network, mask, gateway uint32, idx IfIndex, metric uint32) int {
	t.rows = append(t.rows, RouteEntry{Network: network, Mask: mask, Gateway: gateway, IfIndex: idx, Metric: metric})
	t.live = append(t.live, true)
	return len(t.rows) - 1
}

// RemoveRoute marks a row dead; NRoutes/RouteAt skip dead rows.
func (t *InMemoryRoutingTable) RemoveRoute(index int) {
	if index >= 0 && index < len(t.live) {
		t.live[index] = false
	}
}

// NRoutes returns the number of live rows.
func (t *InMemoryRoutingTable) NRoutes() int {
	n := 0
	for _, l := range t.live {
		if l {
			n++
		}
	}
	return n
}

// RouteAt returns the i-th live row, in insertion order.
func (t *InMemoryRoutingTable) RouteAt(i int) RouteEntry {
	for idx, l := range t.live {
		if !l {
			continue
		}
		if i == 0 {
			return t.rows[idx]
		}
		i--
	}
	return RouteEntry{}
}

var _ RoutingTable = (*InMemoryRoutingTable)(nil)

// NetlinkRoutingTable is a RoutingTable collaborator that installs
// routes into the Linux kernel's IPv4 table via github.com/vishvananda/
// netlink's RouteAdd/RouteDel, the same library moby/moby's libnetwork
// uses to program the kernel route table from Go. Indexes returned by
// AddNetworkRouteTo are positions in an in-process mirror used only so
// RemoveRoute/RouteAt can answer without a netlink round-trip; the
// mirror also keeps the exact netlink.Route value RouteAdd was given,
// since RouteDel matches on the same fields (Dst/Gw/LinkIndex/Priority).
type NetlinkRoutingTable struct {
	rows []RouteEntry
	live []bool
	refs []netlink.Route
}

// NewNetlinkRoutingTable returns a NetlinkRoutingTable. Unlike a raw
// netlink socket there is nothing to open ahead of time; the error
// return is kept so callers (NewRouterFromConfig) don't need to change
// when this falls back to an in-memory table on unsupported platforms.
func NewNetlinkRoutingTable() (*NetlinkRoutingTable, error) {
	return &NetlinkRoutingTable{}, nil
}

// AddNetworkRouteTo issues RouteAdd and returns the new row's index.
// A failed RouteAdd (no CAP_NET_ADMIN, route already present, etc.) is
// not fatal: the row is still tracked so RouteAt/NRoutes reflect what
// this router believes it has installed, mirroring how the FSM itself
// never blocks origination on a failed kernel syscall.
func (t *NetlinkRoutingTable) AddNetworkRouteTo(network, mask, gateway uint32, idx IfIndex, metric uint32) int {
	route := netlink.Route{
		Dst:       &net.IPNet{IP: u32ToIP(network), Mask: net.CIDRMask(int(maskLen(mask)), 32)},
		LinkIndex: int(idx),
		Priority:  int(metric),
	}
	if gateway != 0 {
		route.Gw = u32ToIP(gateway)
	}
	netlink.RouteAdd(&route)

	t.rows = append(t.rows, RouteEntry{Network: network, Mask: mask, Gateway: gateway, IfIndex: idx, Metric: metric})
	t.live = append(t.live, true)
	t.refs = append(t.refs, route)
	return len(t.rows) - 1
}

// RemoveRoute issues RouteDel for the row at index and marks it dead in
// the in-process mirror.
func (t *NetlinkRoutingTable) RemoveRoute(index int) {
	if index < 0 || index >= len(t.live) || !t.live[index] {
		return
	}
	netlink.RouteDel(&t.refs[index])
	t.live[index] = false
}

// NRoutes returns the number of live rows.
func (t *NetlinkRoutingTable) NRoutes() int {
	n := 0
	for _, l := range t.live {
		if l {
			n++
		}
	}
	return n
}

// RouteAt returns the i-th live row, in installation order.
func (t *NetlinkRoutingTable) RouteAt(i int) RouteEntry {
	for idx, l := range t.live {
		if !l {
			continue
		}
		if i == 0 {
			return t.rows[idx]
		}
		i--
	}
	return RouteEntry{}
}

var _ RoutingTable = (*NetlinkRoutingTable)(nil)

func maskLen(mask uint32) uint8 {
	var n uint8
	for i := 31; i >= 0; i-- {
		if mask&(1<<uint(i)) == 0 {
			break
		}
		n++
	}
	return n
}

func u32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
