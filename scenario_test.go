package ospfap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ospf-areaproxy/ospfap"
	"github.com/ospf-areaproxy/ospfap/internal/simnet"
)

// driverClock/driverScheduler run a fully deterministic event loop: Run
// repeatedly pops and fires the earliest-scheduled pending callback,
// advancing its own notion of "now" to that callback's due time, until
// nothing is left pending or an iteration cap is hit. This lets a
// scenario test drive Hello/DBD/LSA exchange to convergence without a
// single real goroutine or sleep.
type driverClock struct {
	now time.Time
}

func newDriverClock() *driverClock { return &driverClock{now: time.Unix(1_700_000_000, 0)} }

func (c *driverClock) Now() time.Time { return c.now }

type pendingCall struct {
	due time.Time
	fn  func()
	seq uint64
}

type driverScheduler struct {
	clk     *driverClock
	seq     uint64
	pending map[uint64]pendingCall
}

func newDriverScheduler(clk *driverClock) *driverScheduler {
	return &driverScheduler{clk: clk, pending: make(map[uint64]pendingCall)}
}

func (s *driverScheduler) Schedule(delay time.Duration, fn func()) ospfap.TimerHandle {
	s.seq++
	s.pending[s.seq] = pendingCall{due: s.clk.now.Add(delay), fn: fn, seq: s.seq}
	return ospfap.TimerHandle(s.seq)
}

func (s *driverScheduler) Cancel(h ospfap.TimerHandle) {
	delete(s.pending, uint64(h))
}

// Run fires pending callbacks in due-time order (ties broken by schedule
// order) until the queue drains or maxSteps is exceeded, whichever comes
// first, advancing the clock to each callback's due time as it fires.
func (s *driverScheduler) Run(maxSteps int) {
	for i := 0; i < maxSteps && len(s.pending) > 0; i++ {
		var next uint64
		found := false
		for k, c := range s.pending {
			if !found || c.due.Before(s.pending[next].due) || (c.due.Equal(s.pending[next].due) && c.seq < s.pending[next].seq) {
				next = k
				found = true
			}
		}
		c := s.pending[next]
		delete(s.pending, next)
		s.clk.now = c.due
		c.fn()
	}
}

type driverRandom struct{}

func (driverRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return 0
}
func (driverRandom) Uint32() uint32 { return 0x12345678 }

// TestTwoRouterAdjacencyConverges exercises the end-to-end path named in
// spec.md section 8's S1 scenario: two directly connected routers in the
// same area reach Full adjacency and each installs a route to the
// other's injected prefix.
func TestTwoRouterAdjacencyConverges(t *testing.T) {
	clk := newDriverClock()
	sched := newDriverScheduler(clk)

	a := ospfap.NewRouter(1, 1, clk, sched, driverRandom{}, simnet.NoDevices{}, ospfap.NewInMemoryRoutingTable())
	b := ospfap.NewRouter(2, 1, clk, sched, driverRandom{}, simnet.NoDevices{}, ospfap.NewInMemoryRoutingTable())

	aIface := ospfap.NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	aIface.Up = true
	a.AddInterface(aIface)
	bIface := ospfap.NewOspfInterface(1, 0x0A000002, 0xFFFFFF00, 1)
	bIface.Up = true
	b.AddInterface(bIface)

	a.ExternalRoutes = []ospfap.ExternalRoute{{IfIndex: 1, DestNet: 0x0B000000, Mask: 0xFFFFFF00, Metric: 1}}
	b.ExternalRoutes = []ospfap.ExternalRoute{{IfIndex: 1, DestNet: 0x0C000000, Mask: 0xFFFFFF00, Metric: 1}}

	aOpener := simnet.NewOpener()
	bOpener := simnet.NewOpener()
	simnet.Connect(a, aIface, aOpener, b, bIface, bOpener)

	require.NoError(t, a.StartApplication(aOpener))
	require.NoError(t, b.StartApplication(bOpener))

	sched.Run(500)

	an, ok := aIface.GetNeighbor(bIface.IpAddress)
	require.True(t, ok)
	require.Equal(t, ospfap.Full, an.State, "two directly wired routers must converge to Full")

	bn, ok := bIface.GetNeighbor(aIface.IpAddress)
	require.True(t, ok)
	require.Equal(t, ospfap.Full, bn.State)

	_, hasA := a.RouterLsdb[2]
	require.True(t, hasA, "a must have learned b's Router-LSA")
	_, hasB := b.RouterLsdb[1]
	require.True(t, hasB, "b must have learned a's Router-LSA")

	require.Greater(t, a.Routes.NRoutes(), 0, "a must have installed at least one route after convergence")
	require.Greater(t, b.Routes.NRoutes(), 0, "b must have installed at least one route after convergence")

	foundCRoute := false
	for i := 0; i < a.Routes.NRoutes(); i++ {
		row := a.Routes.RouteAt(i)
		if row.Network == 0x0C000000 {
			foundCRoute = true
		}
	}
	require.True(t, foundCRoute, "a must have installed a route to b's injected prefix via SPF")

	foundBRoute := false
	for i := 0; i < b.Routes.NRoutes(); i++ {
		row := b.Routes.RouteAt(i)
		if row.Network == 0x0B000000 && row.Gateway == aIface.IpAddress {
			foundBRoute = true
		}
	}
	require.True(t, foundBRoute, "b must have installed a route to a's injected prefix via SPF")
}
