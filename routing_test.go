package ospfap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateRoutingL1WinsOverL2(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)

	dest := routeKey{Network: 0x0A000000, Mask: 0xFFFFFF00}

	r.L1NextHop = map[RouterID]l1NextHop{2: {IfIndex: 1, Gateway: 0x0A0000FE, Cost: 1}}
	r.L1SummaryLsdb[2] = lsdbEntry{Body: NewL1SummaryLSABody([]SummaryRoute{
		{Address: dest.Network, Mask: dest.Mask, Metric: 1},
	})}

	r.L2NextHop = map[AreaID]l2NextHop{9: {FirstHopArea: 9, Cost: 1}}
	r.NextHopToShortestBorderRouter = map[AreaID]borderRelay{
		9: {BorderRouter: 3, NextHop: l1NextHop{IfIndex: 2, Gateway: 0x0A0000FD, Cost: 1}},
	}
	r.L2SummaryLsdb[9] = lsdbEntry{Body: NewL2SummaryLSABody([]SummaryRoute{
		{Address: dest.Network, Mask: dest.Mask, Metric: 1},
	})}

	l1 := r.projectL1Routes()
	l2 := r.projectL2Routes(l1)

	_, inL1 := l1[dest]
	require.True(t, inL1)
	_, inL2 := l2[dest]
	require.False(t, inL2, "a route already learned via L1 must never also appear in the L2 projection")

	r.UpdateRouting()
	require.Equal(t, 1, r.Routes.NRoutes())
	row := r.Routes.RouteAt(0)
	require.Equal(t, dest.Network, row.Network)
	require.Equal(t, uint32(0x0A0000FE), row.Gateway)
}

func TestUpdateRoutingClearsStaleRows(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	r.ExternalRoutes = []ExternalRoute{
		{IfIndex: 1, DestNet: 0x0A010000, Mask: 0xFFFF0000, Metric: 1},
	}

	r.UpdateRouting()
	require.Equal(t, 1, r.Routes.NRoutes())

	r.ExternalRoutes = nil
	r.UpdateRouting()
	require.Equal(t, 0, r.Routes.NRoutes())
}

func TestProjectL1RoutesPrefersCheaperPath(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	dest := routeKey{Network: 0x0A000000, Mask: 0xFFFFFF00}

	r.L1NextHop = map[RouterID]l1NextHop{
		2: {IfIndex: 1, Cost: 10},
		3: {IfIndex: 2, Cost: 1},
	}
	r.L1SummaryLsdb[2] = lsdbEntry{Body: NewL1SummaryLSABody([]SummaryRoute{{Address: dest.Network, Mask: dest.Mask, Metric: 1}})}
	r.L1SummaryLsdb[3] = lsdbEntry{Body: NewL1SummaryLSABody([]SummaryRoute{{Address: dest.Network, Mask: dest.Mask, Metric: 1}})}

	l1 := r.projectL1Routes()
	require.Equal(t, IfIndex(2), l1[dest].IfIndex, "the router reachable at lower cost must win the projection")
}
