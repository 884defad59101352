package ospfap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptLsa(t *testing.T) {
	tests := []struct {
		name     string
		present  bool
		stored   LsaHeader
		incoming LsaHeader
		want     bool
	}{
		{
			name:     "absent is always accepted",
			present:  false,
			incoming: LsaHeader{SeqNum: 1, AdvertisingRouter: 5},
			want:     true,
		},
		{
			name:     "strictly newer SeqNum wins",
			present:  true,
			stored:   LsaHeader{SeqNum: 1, AdvertisingRouter: 5},
			incoming: LsaHeader{SeqNum: 2, AdvertisingRouter: 5},
			want:     true,
		},
		{
			name:     "older SeqNum is dropped",
			present:  true,
			stored:   LsaHeader{SeqNum: 2, AdvertisingRouter: 5},
			incoming: LsaHeader{SeqNum: 1, AdvertisingRouter: 5},
			want:     false,
		},
		{
			name:     "tied SeqNum breaks toward smaller AdvertisingRouter",
			present:  true,
			stored:   LsaHeader{SeqNum: 1, AdvertisingRouter: 5},
			incoming: LsaHeader{SeqNum: 1, AdvertisingRouter: 3},
			want:     true,
		},
		{
			name:     "tied SeqNum drops a larger AdvertisingRouter",
			present:  true,
			stored:   LsaHeader{SeqNum: 1, AdvertisingRouter: 3},
			incoming: LsaHeader{SeqNum: 1, AdvertisingRouter: 5},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, acceptLsa(tt.present, tt.stored, tt.incoming))
		})
	}
}

func TestProcessLsaInstallsAndDebounces(t *testing.T) {
	r, _, sched := newTestRouter(1, 10)

	h := LsaHeader{Type: RouterLSAs, LsID: 2, AdvertisingRouter: 2, SeqNum: 1}
	body := &RouterLSABody{}

	require.True(t, r.ProcessLsa(h, body))
	require.Equal(t, 1, sched.Pending(), "an SPF debounce timer should be armed")

	require.False(t, r.ProcessLsa(h, body), "re-processing the same SeqNum must be dropped")
	require.Equal(t, 1, sched.Pending(), "a dropped LSA must not arm a second debounce timer")

	newer := h
	newer.SeqNum = 2
	require.True(t, r.ProcessLsa(newer, body))
}

func TestProcessLsaAreaAndL2SummaryKeyByAreaID(t *testing.T) {
	r, _, _ := newTestRouter(1, 10)

	h := LsaHeader{Type: AreaLSAs, LsID: uint32(AreaID(10)), AdvertisingRouter: 9, SeqNum: 1}
	require.True(t, r.ProcessLsa(h, &AreaLSABody{}))

	entry, ok := r.AreaLsdb[AreaID(10)]
	require.True(t, ok)
	require.Equal(t, RouterID(9), entry.Header.AdvertisingRouter)

	h2 := LsaHeader{Type: L2SummaryLSAs, LsID: uint32(AreaID(10)), AdvertisingRouter: 9, SeqNum: 1}
	require.True(t, r.ProcessLsa(h2, NewL2SummaryLSABody(nil)))

	entry2, ok := r.L2SummaryLsdb[AreaID(10)]
	require.True(t, ok)
	require.Equal(t, RouterID(9), entry2.Header.AdvertisingRouter)
}
