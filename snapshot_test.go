package ospfap

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportImportOspfRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r, _, _ := newTestRouter(1, 1)
	iface := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface.Up = true
	r.AddInterface(iface)
	n := iface.AddNeighbor(2, 0x0A000002, 1)
	n.State = Full

	r.RouterLsdb[1] = lsdbEntry{Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 1, SeqNum: 3}, Body: &RouterLSABody{
		Links: []RouterLink{{LinkID: 2, LinkData: 0x0A000001, Type: LinkTypeP2P, Metric: 1}},
	}}
	r.L1SummaryLsdb[1] = lsdbEntry{Header: LsaHeader{Type: L1SummaryLSAs, AdvertisingRouter: 1, SeqNum: 1}, Body: NewL1SummaryLSABody([]SummaryRoute{
		{Address: 0x0B000000, Mask: 0xFFFFFF00, Metric: 1},
	})}
	r.IsAreaLeader = true
	r.ExternalRoutes = []ExternalRoute{{IfIndex: 1, DestNet: 0x0B000000, Mask: 0xFFFFFF00, Metric: 1}}

	require.NoError(t, r.ExportOspf(dir, "r1"))

	r2, _, _ := newTestRouter(1, 1)
	iface2 := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface2.Up = true
	r2.AddInterface(iface2)

	require.NoError(t, r2.ImportOspf(dir, "r1"))

	require.True(t, r2.IsAreaLeader)
	require.Len(t, r2.ExternalRoutes, 1)
	require.Equal(t, uint32(0x0B000000), r2.ExternalRoutes[0].DestNet)

	gotRouter, ok := r2.RouterLsdb[1]
	require.True(t, ok)
	require.Equal(t, uint32(3), gotRouter.Header.SeqNum)
	rb, ok := gotRouter.Body.(*RouterLSABody)
	require.True(t, ok)
	require.Len(t, rb.Links, 1)

	n2, ok := iface2.GetNeighbor(0x0A000002)
	require.True(t, ok)
	require.Equal(t, Full, n2.State)
}

func TestImportOspfRefusesTruncatedSnapshot(t *testing.T) {
	dir := t.TempDir()

	r, _, _ := newTestRouter(1, 1)
	iface := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface.Up = true
	r.AddInterface(iface)
	r.RouterLsdb[1] = lsdbEntry{Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 1}, Body: &RouterLSABody{}}
	require.NoError(t, r.ExportOspf(dir, "r1"))

	// Truncate the lsdb file so its declared entry count overruns the
	// actual bytes present.
	require.NoError(t, os.WriteFile(dir+"/r1.lsdb", []byte{0, 0, 0, 1}, 0o644))

	r2, _, _ := newTestRouter(1, 1)
	iface2 := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface2.Up = true
	r2.AddInterface(iface2)
	r2.RouterLsdb[9] = lsdbEntry{Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 9}, Body: &RouterLSABody{}}

	err := r2.ImportOspf(dir, "r1")
	require.ErrorIs(t, err, ErrImportMismatch)

	// State must be untouched by the failed import.
	_, stillHasOriginal := r2.RouterLsdb[9]
	require.True(t, stillHasOriginal)
	_, gotNew := r2.RouterLsdb[1]
	require.False(t, gotNew)
}

func TestImportOspfRefusesMissingFile(t *testing.T) {
	dir := t.TempDir()
	r, _, _ := newTestRouter(1, 1)
	err := r.ImportOspf(dir, "nonexistent")
	require.ErrorIs(t, err, ErrImportMismatch)
}
