package ospfap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottledRecomputeImmediateWhenIntervalOff(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	r.MinLSInterval = 0

	calls := 0
	key := LsaKey{Type: AreaLSAs, LsID: 1, AdvertisingRouter: 1}
	r.throttledRecompute(key, func() { calls++ })
	r.throttledRecompute(key, func() { calls++ })

	require.Equal(t, 2, calls)
	stats := r.ThrottleStats(key)
	require.Equal(t, uint64(2), stats.RecomputeTriggers)
	require.Equal(t, uint64(2), stats.Immediate)
}

func TestThrottledRecomputeCoalescesDeferred(t *testing.T) {
	r, clk, sched := newTestRouter(1, 1)
	r.MinLSInterval = 1_000

	calls := 0
	key := LsaKey{Type: AreaLSAs, LsID: 1, AdvertisingRouter: 1}

	// First call: nothing originated yet, runs immediately.
	r.throttledRecompute(key, func() { calls++ })
	require.Equal(t, 1, calls)
	require.Equal(t, 0, sched.Pending())

	// Second call within the window: deferred.
	r.throttledRecompute(key, func() { calls++ })
	require.Equal(t, 1, calls, "a deferred call must not run synchronously")
	require.Equal(t, 1, sched.Pending())

	// Third call while one is already pending: coalesced, not a second timer.
	r.throttledRecompute(key, func() { calls++ })
	require.Equal(t, 1, sched.Pending())

	stats := r.ThrottleStats(key)
	require.Equal(t, uint64(3), stats.RecomputeTriggers)
	require.Equal(t, uint64(1), stats.Immediate)
	require.Equal(t, uint64(1), stats.DeferredScheduled)
	require.Equal(t, uint64(1), stats.CancelledPending)

	clk.Advance(1_000 * time.Millisecond)
	sched.FireAll()
	require.Equal(t, 2, calls, "the deferred run must fire exactly once")

	r.ResetLsaThrottleStats(key)
	require.Equal(t, LsaThrottleStats{}, r.ThrottleStats(key))
}

func TestRecomputeRouterLsaBumpsSeqNum(t *testing.T) {
	r, _, _ := newTestRouter(7, 1)
	iface := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface.Up = true
	r.AddInterface(iface)

	r.RecomputeRouterLsa()
	first := r.RouterLsdb[7].Header.SeqNum
	require.Equal(t, uint32(1), first)

	r.RecomputeRouterLsa()
	require.Equal(t, uint32(2), r.RouterLsdb[7].Header.SeqNum)
}

func TestRecomputeAreaLsaSuppressesUnchangedLinks(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	r.EnableAreaProxy = true
	r.IsAreaLeader = true

	r.RouterLsdb[1] = lsdbEntry{
		Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 1},
		Body: &RouterLSABody{
			Links: []RouterLink{{LinkID: 2, LinkData: 0x0A000001, Type: LinkTypeCrossArea, Metric: 1}},
		},
	}

	r.RecomputeAreaLsa()
	seq := r.AreaLsdb[r.AreaID].Header.SeqNum
	require.Equal(t, uint32(1), seq)

	// Re-running with the identical cross-area link set must not bump SeqNum.
	r.RecomputeAreaLsa()
	require.Equal(t, seq, r.AreaLsdb[r.AreaID].Header.SeqNum)
	require.Equal(t, uint64(1), r.ThrottleStats(LsaKey{Type: AreaLSAs, LsID: uint32(r.AreaID), AdvertisingRouter: r.RouterID}).Suppressed)
}
