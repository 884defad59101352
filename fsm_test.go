package ospfap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestInterface(ip uint32, area AreaID) *OspfInterface {
	iface := NewOspfInterface(1, ip, 0xFFFFFF00, area)
	iface.Up = true
	return iface
}

func TestHandleHelloOneWayDoesNotAdvance(t *testing.T) {
	r, _, _ := newTestRouter(10, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)

	hello := &Hello{
		Header:             Header{RouterID: 20, AreaID: 1},
		HelloInterval:      iface.HelloInterval,
		RouterDeadInterval: iface.RouterDeadInterval,
	}
	r.HandleHello(iface, 0x0A000002, hello)

	n, ok := iface.GetNeighbor(0x0A000002)
	require.True(t, ok)
	require.Equal(t, Init, n.State, "a Hello that doesn't list us yet must leave the neighbor in Init")
}

func TestHandleHelloTwoWayEntersExStart(t *testing.T) {
	r, _, sched := newTestRouter(10, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)

	hello := &Hello{
		Header:             Header{RouterID: 20, AreaID: 1},
		HelloInterval:      iface.HelloInterval,
		RouterDeadInterval: iface.RouterDeadInterval,
		NeighborIDs:        []RouterID{10},
	}
	r.HandleHello(iface, 0x0A000002, hello)

	n, ok := iface.GetNeighbor(0x0A000002)
	require.True(t, ok)
	require.Equal(t, ExStart, n.State)
	require.True(t, n.IsMaster, "a brand new ExStart negotiation always starts out claiming Master")
	require.Equal(t, 2, sched.Pending(), "entering ExStart must arm both the dead timer and the DBD retransmit")
}

func TestHandleHelloMismatchedTimersIgnored(t *testing.T) {
	r, _, _ := newTestRouter(10, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)

	hello := &Hello{
		Header:             Header{RouterID: 20, AreaID: 1},
		HelloInterval:      iface.HelloInterval + 1,
		RouterDeadInterval: iface.RouterDeadInterval,
	}
	r.HandleHello(iface, 0x0A000002, hello)

	_, ok := iface.GetNeighbor(0x0A000002)
	require.False(t, ok, "a Hello with mismatched timers must not even create a neighbor record")
}

// negotiateToExchange drives two routers' neighbor records through the
// ExStart Master/Slave tie-break the way two real peers' retransmitted
// DBDs would, without actually exchanging packets.
func negotiateToExchange(t *testing.T, master, slave *Router, masterIface, slaveIface *OspfInterface) (*OspfNeighbor, *OspfNeighbor) {
	t.Helper()

	mn := masterIface.AddNeighbor(slave.RouterID, slaveIface.IpAddress, slaveIface.AreaID)
	mn.State = ExStart
	mn.DDSeqNum = 0xAAAA

	sn := slaveIface.AddNeighbor(master.RouterID, masterIface.IpAddress, masterIface.AreaID)
	sn.State = ExStart

	// Slave sees the Master's all-flags DBD, adopts Slave role.
	slave.HandleDbd(slaveIface, masterIface.IpAddress, &DatabaseDescription{
		Header:   Header{RouterID: master.RouterID, AreaID: masterIface.AreaID},
		Flags:    DDFlagI | DDFlagM | DDFlagMS,
		DDSeqNum: mn.DDSeqNum,
	})
	require.Equal(t, Exchange, sn.State)
	require.False(t, sn.IsMaster)

	// Master sees the Slave's empty-flags DBD echoing its DDSeqNum.
	master.HandleDbd(masterIface, slaveIface.IpAddress, &DatabaseDescription{
		Header:   Header{RouterID: slave.RouterID, AreaID: slaveIface.AreaID},
		Flags:    0,
		DDSeqNum: mn.DDSeqNum,
	})
	require.Equal(t, Exchange, mn.State)
	require.True(t, mn.IsMaster)

	return mn, sn
}

func TestDbdNegotiationAdvancesToExchangeThenFull(t *testing.T) {
	master, _, _ := newTestRouter(20, 1) // larger RouterID wins Master
	slave, _, _ := newTestRouter(10, 1)

	masterIface := newTestInterface(0x0A000001, 1)
	master.AddInterface(masterIface)
	slaveIface := newTestInterface(0x0A000002, 1)
	slave.AddInterface(slaveIface)

	mn, sn := negotiateToExchange(t, master, slave, masterIface, slaveIface)

	// Both LSDBs are empty, so negotiateToExchange already left master
	// holding an outstanding MS-only poll at DDSeqNum unchanged. Delivering
	// that poll to the slave, and its echo back to the master, drains both
	// queues with M clear on each side, completing the exchange.
	slave.HandleDbd(slaveIface, masterIface.IpAddress, &DatabaseDescription{
		Header:   Header{RouterID: master.RouterID, AreaID: masterIface.AreaID},
		Flags:    DDFlagMS,
		DDSeqNum: mn.DDSeqNum,
	})
	require.Equal(t, Full, sn.State)

	master.HandleDbd(masterIface, slaveIface.IpAddress, &DatabaseDescription{
		Header:   Header{RouterID: slave.RouterID, AreaID: slaveIface.AreaID},
		Flags:    0,
		DDSeqNum: mn.DDSeqNum,
	})
	require.Equal(t, Full, mn.State)
}

func TestHandleLsrWithoutSocketDoesNotPanic(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)
	n := iface.AddNeighbor(2, 0x0A000002, 1)
	n.State = Exchange

	r.RouterLsdb[1] = lsdbEntry{Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 1}, Body: &RouterLSABody{}}

	r.HandleLsr(iface, 0x0A000002, &LinkStateRequest{
		Keys: []LsaKey{
			{Type: RouterLSAs, LsID: 0, AdvertisingRouter: 1},
			{Type: RouterLSAs, LsID: 0, AdvertisingRouter: 99}, // unknown, must be skipped
		},
	})
	// No panic and no crash is the behavioral contract here: HandleLsr
	// only sends through a RawSocket, which this test leaves nil.
}

func TestHandleLsuInstallsAndAcksAndAdvancesToFull(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)
	n := iface.AddNeighbor(2, 0x0A000002, 1)
	n.State = Loading
	key := LsaKey{Type: RouterLSAs, LsID: 0, AdvertisingRouter: 2}
	n.lsrQueue = []LsaKey{key}

	r.HandleLsu(iface, 0x0A000002, &LinkStateUpdate{
		LSAs: []LSA{{Header: LsaHeader{Type: RouterLSAs, AdvertisingRouter: 2, SeqNum: 1}, Body: &RouterLSABody{}}},
	})

	require.True(t, n.lsrDrained())
	require.Equal(t, Full, n.State)
	_, ok := r.RouterLsdb[2]
	require.True(t, ok)
}

func TestHandleLsAckCancelsKeyedRetransmit(t *testing.T) {
	r, _, sched := newTestRouter(1, 1)
	iface := newTestInterface(0x0A000001, 1)
	r.AddInterface(iface)
	n := iface.AddNeighbor(2, 0x0A000002, 1)
	n.State = Full

	key := LsaKey{Type: RouterLSAs, LsID: 0, AdvertisingRouter: 1}
	n.keyedRxmtTimer[key] = sched.Schedule(0, func() {})
	require.Equal(t, 1, sched.Pending())

	r.HandleLsAck(iface, 0x0A000002, &LinkStateAcknowledgement{
		LSAs: []LsaHeader{{Type: key.Type, LsID: key.LsID, AdvertisingRouter: key.AdvertisingRouter}},
	})

	require.Equal(t, 0, sched.Pending())
	_, stillArmed := n.keyedRxmtTimer[key]
	require.False(t, stillArmed)
}
