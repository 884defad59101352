package ospfap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSmallestInArea(t *testing.T) {
	r, _, _ := newTestRouter(5, 1)
	require.True(t, r.isSmallestInArea(), "with no other RouterLsdb entries, self is trivially smallest")

	r.RouterLsdb[3] = lsdbEntry{Header: LsaHeader{AdvertisingRouter: 3}}
	require.False(t, r.isSmallestInArea())

	delete(r.RouterLsdb, 3)
	r.RouterLsdb[9] = lsdbEntry{Header: LsaHeader{AdvertisingRouter: 9}}
	require.True(t, r.isSmallestInArea())
}

func TestAreaLeaderBeginEndIdempotent(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	r.EnableAreaProxy = true

	require.False(t, r.IsAreaLeader)
	r.AreaLeaderBegin()
	require.True(t, r.IsAreaLeader)
	_, hasArea := r.AreaLsdb[r.AreaID]
	require.True(t, hasArea, "becoming leader must originate this area's AreaLSA")
	_, hasL2Summary := r.L2SummaryLsdb[r.AreaID]
	require.True(t, hasL2Summary, "becoming leader must originate this area's L2SummaryLSA")

	// A second call must not re-bump the SeqNum.
	seq := r.AreaLsdb[r.AreaID].Header.SeqNum
	r.AreaLeaderBegin()
	require.Equal(t, seq, r.AreaLsdb[r.AreaID].Header.SeqNum)

	r.AreaLeaderEnd()
	require.False(t, r.IsAreaLeader)
}

func TestUpdateLeadershipEligibilityPromotesAndDemotes(t *testing.T) {
	r, _, sched := newTestRouter(5, 1)
	r.EnableAreaProxy = true
	r.running = true

	// 5 is smallest among {5}, but promotion only ever happens through
	// the attempt timer, never synchronously.
	r.updateLeadershipEligibility()
	require.False(t, r.IsAreaLeader)
	require.Equal(t, 1, sched.Pending())
	sched.FireAll()
	require.True(t, r.IsAreaLeader)

	// A smaller router appears: demote.
	r.RouterLsdb[2] = lsdbEntry{Header: LsaHeader{AdvertisingRouter: 2}}
	r.updateLeadershipEligibility()
	require.False(t, r.IsAreaLeader)
	require.Equal(t, 2, sched.Pending(), "a demoted router should re-arm its attempt timer, alongside the L2 SPF debounce its promotion armed")

	// Firing the attempt timer while still not smallest must not promote.
	sched.FireAll()
	require.False(t, r.IsAreaLeader)

	// The smaller router disappears: updateLeadershipEligibility re-arms
	// the attempt timer rather than promoting synchronously.
	delete(r.RouterLsdb, 2)
	r.updateLeadershipEligibility()
	require.False(t, r.IsAreaLeader)
	require.Equal(t, 1, sched.Pending())
	sched.FireAll()
	require.True(t, r.IsAreaLeader)
}
