// Package simnet wires ospfap.Router instances directly to each other in
// process, standing in for real sockets. It is used by scenario_test.go;
// it is not part of the core's public contract.
package simnet

import (
	"errors"

	"github.com/ospf-areaproxy/ospfap"
)

var errNoRecv = errors.New("simnet: RecvFrom is not supported, delivery is push-based")

// Socket is a RawSocket that forwards every SendTo call straight into a
// peer router's HandleRead, skipping marshaling over a real network.
type Socket struct {
	srcIP   uint32
	deliver func(src uint32, b []byte)
	up      bool
}

func (s *Socket) SetTTL(int) error            { return nil }
func (s *Socket) SetBindToDevice(ospfap.IfIndex) error { return nil }
func (s *Socket) SetBroadcast(bool) error     { return nil }
func (s *Socket) Close() error                { s.up = false; return nil }

func (s *Socket) SendTo(addr uint32, b []byte) (int, error) {
	if s.deliver == nil || !s.up {
		return len(b), nil
	}
	cp := append([]byte(nil), b...)
	s.deliver(s.srcIP, cp)
	return len(b), nil
}

func (s *Socket) RecvFrom([]byte) (int, uint32, error) { return 0, 0, errNoRecv }

// SetUp controls whether SendTo actually delivers, letting examples
// simulate a link going down without tearing down the wiring.
func (s *Socket) SetUp(up bool) { s.up = up }

// Opener is a RawSocketOpener backed by a fixed set of pre-wired Sockets,
// one per interface index, shared across the Hello/LSA/unicast roles.
type Opener struct {
	sockets map[ospfap.IfIndex]*Socket
}

// NewOpener returns an empty Opener.
func NewOpener() *Opener {
	return &Opener{sockets: make(map[ospfap.IfIndex]*Socket)}
}

func (o *Opener) OpenHelloSocket(idx ospfap.IfIndex) (ospfap.RawSocket, error) {
	return o.sockets[idx], nil
}

func (o *Opener) OpenLsaSocket(idx ospfap.IfIndex) (ospfap.RawSocket, error) {
	return o.sockets[idx], nil
}

func (o *Opener) OpenUnicastSocket(idx ospfap.IfIndex) (ospfap.RawSocket, error) {
	return o.sockets[idx], nil
}

// Socket returns the wired Socket for idx, e.g. so an example can flap it
// with SetUp(false).
func (o *Opener) Socket(idx ospfap.IfIndex) *Socket { return o.sockets[idx] }

// Connect wires a's and b's interfaces to each other bidirectionally and
// marks both sockets up.
func Connect(a *ospfap.Router, aIface *ospfap.OspfInterface, aOpener *Opener, b *ospfap.Router, bIface *ospfap.OspfInterface, bOpener *Opener) {
	sa := &Socket{srcIP: aIface.IpAddress, up: true}
	sb := &Socket{srcIP: bIface.IpAddress, up: true}
	sa.deliver = func(src uint32, p []byte) { b.HandleRead(bIface, src, p) }
	sb.deliver = func(src uint32, p []byte) { a.HandleRead(aIface, src, p) }
	aOpener.sockets[aIface.Index] = sa
	bOpener.sockets[bIface.Index] = sb
}

// NoDevices is a NetDeviceSet with no devices, suitable for routers built
// without AutoSync.
type NoDevices struct{}

func (NoDevices) Devices() []ospfap.NetDevice                      { return nil }
func (NoDevices) Device(ospfap.IfIndex) (ospfap.NetDevice, bool) { return ospfap.NetDevice{}, false }
