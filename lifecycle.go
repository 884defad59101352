package ospfap

import "fmt"

// RawSocketOpener opens a bound RawSocket for one interface and
// multicast/unicast role, the seam StartApplication uses so tests can
// substitute an in-memory fake.
type RawSocketOpener interface {
	OpenHelloSocket(idx IfIndex) (RawSocket, error)
	OpenLsaSocket(idx IfIndex) (RawSocket, error)
	OpenUnicastSocket(idx IfIndex) (RawSocket, error)
}

// StartApplication opens the three sockets per up interface described in
// spec.md section 4.8, arms the Hello tick and the area-leader attempt
// timer, and begins sending. It returns ErrSocketBind, wrapped with the
// offending interface, on the only startup failure that aborts.
func (r *Router) StartApplication(opener RawSocketOpener) error {
	if r.running {
		return nil
	}
	for _, iface := range r.Interfaces {
		if !iface.Up {
			continue
		}
		if err := r.openInterfaceSockets(opener, iface); err != nil {
			return err
		}
	}

	r.enabled = true
	r.running = true
	r.ThrottledRecomputeRouterLsa()
	r.ThrottledRecomputeL1SummaryLsa()
	r.ScheduleInitialLeadershipAttempt()
	r.helloTimer = r.Scheduler.Schedule(msDuration(r.InitialHelloDelay), r.SendHello)
	return nil
}

func (r *Router) openInterfaceSockets(opener RawSocketOpener, iface *OspfInterface) error {
	hs, err := opener.OpenHelloSocket(iface.Index)
	if err != nil {
		return fmt.Errorf("open Hello socket on interface %d: %w", iface.Index, ErrSocketBind)
	}
	ls, err := opener.OpenLsaSocket(iface.Index)
	if err != nil {
		return fmt.Errorf("open LSA socket on interface %d: %w", iface.Index, ErrSocketBind)
	}
	us, err := opener.OpenUnicastSocket(iface.Index)
	if err != nil {
		return fmt.Errorf("open unicast socket on interface %d: %w", iface.Index, ErrSocketBind)
	}
	hs.SetTTL(1)
	hs.SetBindToDevice(iface.Index)
	ls.SetTTL(1)
	ls.SetBindToDevice(iface.Index)
	us.SetTTL(1)
	us.SetBindToDevice(iface.Index)

	iface.helloSocket, iface.lsaSocket, iface.unicastSocket = hs, ls, us
	return nil
}

// StopApplication cancels every outstanding timer and closes every
// socket this router opened. LSDBs, neighbors, and the routing table are
// left untouched; callers wanting a clean slate should call Disable
// with ResetStateOnDisable set instead.
func (r *Router) StopApplication() {
	if !r.running {
		return
	}
	r.running = false

	if r.helloTimer != 0 {
		r.Scheduler.Cancel(r.helloTimer)
		r.helloTimer = 0
	}
	if r.areaLeaderTimer != 0 {
		r.Scheduler.Cancel(r.areaLeaderTimer)
		r.areaLeaderTimer = 0
	}
	for _, iface := range r.Interfaces {
		for _, n := range iface.neighbors {
			n.cancelAllTimers(r.Scheduler)
		}
		closeSocket(iface.helloSocket)
		closeSocket(iface.lsaSocket)
		closeSocket(iface.unicastSocket)
		iface.helloSocket, iface.lsaSocket, iface.unicastSocket = nil, nil, nil
	}
}

func closeSocket(s RawSocket) {
	if s != nil {
		s.Close()
	}
}

// Disable is StopApplication plus, when ResetStateOnDisable is set,
// clearing neighbors, LSDBs and withdrawing installed routes. Calling
// Disable twice in a row is a no-op the second time.
func (r *Router) Disable() {
	if !r.enabled {
		return
	}
	r.StopApplication()
	r.enabled = false

	if r.ResetStateOnDisable {
		for _, iface := range r.Interfaces {
			iface.ClearNeighbors()
		}
		r.RouterLsdb = make(map[RouterID]lsdbEntry)
		r.L1SummaryLsdb = make(map[RouterID]lsdbEntry)
		r.AreaLsdb = make(map[AreaID]lsdbEntry)
		r.L2SummaryLsdb = make(map[AreaID]lsdbEntry)
		r.clearInstalledRoutes()
		r.IsAreaLeader = false
	}
}

// Enable restarts the application after Disable. Calling Enable twice in
// a row is a no-op the second time.
func (r *Router) Enable(opener RawSocketOpener) error {
	if r.enabled {
		return nil
	}
	return r.StartApplication(opener)
}

// AutoSync polls the NetDeviceSet and synchronizes each OspfInterface's
// Up flag and addressing with the host, opening sockets and starting
// Hello on any newly-up interface. Per spec.md section 4.9, it is meant
// to be scheduled at InterfaceSyncInterval by the caller; a zero
// interval means "call this once at start only". dispatch, if non-nil,
// is used to start read goroutines for the newly-opened sockets via
// StartReceiveLoopsFor, the same function passed to NewRealScheduler's
// runOn and to StartReceiveLoops at startup; pass nil when driving
// AutoSync against fake sockets that need no read loop (tests, simnet).
func (r *Router) AutoSync(opener RawSocketOpener, dispatch func(func())) {
	for idx, iface := range r.Interfaces {
		dev, ok := r.Devices.Device(idx)
		if !ok {
			continue
		}
		wasUp := iface.Up
		iface.Up = dev.Up
		iface.IpAddress = dev.IpAddress
		iface.Mask = dev.Mask
		if dev.MTU != 0 {
			iface.MTU = dev.MTU
		}
		if dev.PeerIpAddress != 0 {
			iface.Gateway = dev.PeerIpAddress
		}
		if iface.Up && !wasUp && r.running {
			r.openInterfaceSockets(opener, iface)
			if dispatch != nil {
				r.StartReceiveLoopsFor(iface, dispatch)
			}
			r.SendHello()
		}
	}
}
