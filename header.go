package ospfap

import (
	"encoding/binary"
	"fmt"
)

const (
	ospfVersion = 2

	headerLen = 24
)

// A packetType is the wire type byte of an OSPF packet.
type packetType uint8

// Possible packetType values.
const (
	typeHello                    packetType = 1
	typeDatabaseDescription      packetType = 2
	typeLinkStateRequest         packetType = 3
	typeLinkStateUpdate          packetType = 4
	typeLinkStateAcknowledgement packetType = 5
)

// A Header is the common 24 byte OSPF packet header described in
// spec.md section 3. Checksum and AuType/Authentication are always
// written as zero on marshal and are never validated on parse;
// EnableChecksum is reserved for future use.
type Header struct {
	Type           packetType
	TotalLength    uint16
	RouterID       RouterID
	AreaID         AreaID
	Checksum       uint16
	AuType         uint16
	Authentication uint64
}

// marshal packs h's bytes into b. It assumes b has allocated headerLen
// bytes to avoid a panic.
func (h *Header) marshal(b []byte) {
	b[0] = ospfVersion
	b[1] = byte(h.Type)
	binary.BigEndian.PutUint16(b[2:4], h.TotalLength)
	binary.BigEndian.PutUint32(b[4:8], uint32(h.RouterID))
	binary.BigEndian.PutUint32(b[8:12], uint32(h.AreaID))
	// Checksum, AuType and Authentication are always zeroed: checksums are
	// not validated and authentication is out of scope for this engine.
}

// parseHeader parses a Header and returns it; the declared total packet
// length is carried in its TotalLength field. It returns an error and a
// zero Header when the buffer is too short, the version is unsupported, or the declared
// length is inconsistent with the available bytes.
func parseHeader(b []byte) (Header, error) {
	if l := len(b); l < headerLen {
		return Header{}, fmt.Errorf("not enough bytes for OSPF header: %d: %w", l, errParse)
	}

	if v := b[0]; v != ospfVersion {
		return Header{}, fmt.Errorf("unsupported OSPF version: %d: %w", v, errParse)
	}

	plen := binary.BigEndian.Uint16(b[2:4])
	if plen < headerLen {
		return Header{}, fmt.Errorf("header total length %d is too short for a valid packet: %w", plen, errParse)
	}
	if l := len(b); int(plen) > l {
		return Header{}, fmt.Errorf("header total length is %d bytes but only %d are available: %w", plen, l, errParse)
	}

	h := Header{
		Type:        packetType(b[1]),
		TotalLength: plen,
		RouterID:    RouterID(binary.BigEndian.Uint32(b[4:8])),
		AreaID:      AreaID(binary.BigEndian.Uint32(b[8:12])),
		Checksum:    binary.BigEndian.Uint16(b[12:14]),
		AuType:      binary.BigEndian.Uint16(b[14:16]),
	}
	// b[16:24] Authentication is parsed but ignored per the zero/unused
	// contract; still decoded so round-trips preserve caller-set bits in
	// the in-memory struct when they choose to inspect them.
	h.Authentication = binary.BigEndian.Uint64(b[16:24])

	return h, nil
}
