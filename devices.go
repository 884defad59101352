package ospfap

import "net"

// SystemDeviceSet is the production NetDeviceSet: it reports the host's
// real network interfaces via the net package.
type SystemDeviceSet struct{}

// Devices enumerates every non-loopback host interface with at least
// one IPv4 address.
func (SystemDeviceSet) Devices() []NetDevice {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []NetDevice
	for _, ifi := range ifs {
		if d, ok := deviceFromInterface(ifi); ok {
			out = append(out, d)
		}
	}
	return out
}

// Device looks up one interface by index.
func (SystemDeviceSet) Device(idx IfIndex) (NetDevice, bool) {
	ifi, err := net.InterfaceByIndex(int(idx))
	if err != nil {
		return NetDevice{}, false
	}
	return deviceFromInterface(*ifi)
}

func deviceFromInterface(ifi net.Interface) (NetDevice, bool) {
	if ifi.Flags&net.FlagLoopback != 0 {
		return NetDevice{}, false
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return NetDevice{}, false
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipnet.IP.To4()
		if ip4 == nil {
			continue
		}
		mask := ipnet.Mask
		return NetDevice{
			Index:     IfIndex(ifi.Index),
			IpAddress: u32FromIP(ip4),
			Mask:      u32FromIP(net.IP(mask)),
			MTU:       uint16(ifi.MTU),
			Up:        ifi.Flags&net.FlagUp != 0,
		}, true
	}
	return NetDevice{}, false
}

var _ NetDeviceSet = SystemDeviceSet{}
