package ospfap

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// IPv4RawSocket is the production RawSocket: a raw IPv4 socket speaking
// protocol 89 (OSPF), built on golang.org/x/net/ipv4 the way the
// teacher package builds its OSPFv3 transport on golang.org/x/net/ipv6.
type IPv4RawSocket struct {
	conn *net.IPConn
	pc   *ipv4.RawConn
}

// dialRawIPv4 opens a raw IPv4 socket bound to laddr (ANY if zero) and,
// when group is non-zero, joins that multicast group on the device
// identified by ifaceName.
func dialRawIPv4(laddr uint32, group uint32, ifaceName string) (*IPv4RawSocket, error) {
	conn, err := net.ListenIP("ip4:ospfigp", &net.IPAddr{IP: ipFromU32(laddr)})
	if err != nil {
		return nil, fmt.Errorf("ospfap: listen raw ip4: %w", err)
	}
	pc, err := ipv4.NewRawConn(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ospfap: wrap raw conn: %w", err)
	}
	if group != 0 {
		ifi, err := net.InterfaceByName(ifaceName)
		if err == nil {
			pc.JoinGroup(ifi, &net.IPAddr{IP: ipFromU32(group)})
		}
	}
	return &IPv4RawSocket{conn: conn, pc: pc}, nil
}

func ipFromU32(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func u32FromIP(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}

// SetTTL sets the outgoing IP TTL (1 for all OSPF multicast traffic).
func (s *IPv4RawSocket) SetTTL(ttl int) error {
	return s.pc.SetTTL(ttl)
}

// SetBindToDevice binds the socket to a specific interface using
// SO_BINDTODEVICE, mirroring the per-interface scoping spec.md section 6
// requires of the collaborator raw socket.
func (s *IPv4RawSocket) SetBindToDevice(idx IfIndex) error {
	ifi, err := net.InterfaceByIndex(int(idx))
	if err != nil {
		return fmt.Errorf("ospfap: lookup interface %d: %w", idx, err)
	}
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, ifi.Name)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SetBroadcast enables or disables SO_BROADCAST.
func (s *IPv4RawSocket) SetBroadcast(allow bool) error {
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	v := 0
	if allow {
		v = 1
	}
	err = rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, v)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SendTo writes an OSPF packet to addr, wrapping it in a minimal IPv4
// header with protocol 89.
func (s *IPv4RawSocket) SendTo(addr uint32, b []byte) (int, error) {
	hdr := &ipv4.Header{
		Version:  4,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(b),
		TTL:      1,
		Protocol: IPProtocolOSPF,
		Dst:      ipFromU32(addr),
	}
	if err := s.pc.WriteTo(hdr, b, nil); err != nil {
		return 0, err
	}
	return len(b), nil
}

// RecvFrom reads one OSPF packet, peeling the IPv4 header and returning
// the payload and sender address.
func (s *IPv4RawSocket) RecvFrom(b []byte) (int, uint32, error) {
	hdr, payload, _, err := s.pc.ReadFrom(b)
	if err != nil {
		return 0, 0, err
	}
	n := copy(b, payload)
	return n, u32FromIP(hdr.Src), nil
}

// Close closes the underlying socket.
func (s *IPv4RawSocket) Close() error { return s.conn.Close() }

var _ RawSocket = (*IPv4RawSocket)(nil)

// SystemDeviceOpener is the production RawSocketOpener: it resolves an
// IfIndex to a real host interface name via a NetDeviceSet and opens the
// three raw sockets spec.md section 4.8 describes.
type SystemDeviceOpener struct {
	Devices NetDeviceSet
}

func (o SystemDeviceOpener) ifaceName(idx IfIndex) (string, uint32, error) {
	dev, ok := o.Devices.Device(idx)
	if !ok {
		return "", 0, fmt.Errorf("ospfap: unknown device index %d", idx)
	}
	ifi, err := net.InterfaceByIndex(int(idx))
	if err != nil {
		return "", 0, err
	}
	return ifi.Name, dev.IpAddress, nil
}

// OpenHelloSocket opens a socket bound to this host and joined to
// 224.0.0.5, the well-known Hello multicast group.
func (o SystemDeviceOpener) OpenHelloSocket(idx IfIndex) (RawSocket, error) {
	name, laddr, err := o.ifaceName(idx)
	if err != nil {
		return nil, err
	}
	return dialRawIPv4(laddr, AllSPFRoutersAddr, name)
}

// OpenLsaSocket opens a socket joined to 224.0.0.6, the LSA multicast
// group.
func (o SystemDeviceOpener) OpenLsaSocket(idx IfIndex) (RawSocket, error) {
	name, laddr, err := o.ifaceName(idx)
	if err != nil {
		return nil, err
	}
	return dialRawIPv4(laddr, AllDRoutersAddr, name)
}

// OpenUnicastSocket opens a socket bound to ANY with no multicast
// membership, used for unicast DBD/LSR/LSU/LSAck traffic.
func (o SystemDeviceOpener) OpenUnicastSocket(idx IfIndex) (RawSocket, error) {
	_, laddr, err := o.ifaceName(idx)
	if err != nil {
		return nil, err
	}
	return dialRawIPv4(laddr, 0, "")
}

var _ RawSocketOpener = SystemDeviceOpener{}
