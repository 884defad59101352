package ospfap

import (
	"encoding/binary"
	"fmt"
)

const (
	helloFixedLen = 20
	ddFixedLen    = 8
	lsrEntryLen   = 12
	lsuFixedLen   = 4
)

// DBD flag bits.
const (
	DDFlagMS uint8 = 1 << 0
	DDFlagM  uint8 = 1 << 1
	DDFlagI  uint8 = 1 << 2
)

// A Packet is a complete OSPF packet: the common Header plus one of the
// five payload types. The concrete type is determined by Header.Type.
type Packet interface {
	header() *Header
	wireType() packetType
	payloadLen() int
	marshalPayload(b []byte) error
	unmarshalPayload(b []byte) error
}

// ParsePacket parses a Header and its trailing payload from b, returning
// the concrete Packet implementation for the header's type. It returns
// an error, and callers must drop the packet, on any malformed input:
// truncation, an unsupported version, a declared length that disagrees
// with the available bytes, or an unrecognized packet type.
func ParsePacket(b []byte) (Packet, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, fmt.Errorf("ospfap: failed to parse header: %w", err)
	}

	var p Packet
	switch h.Type {
	case typeHello:
		p = &Hello{Header: h}
	case typeDatabaseDescription:
		p = &DatabaseDescription{Header: h}
	case typeLinkStateRequest:
		p = &LinkStateRequest{Header: h}
	case typeLinkStateUpdate:
		p = &LinkStateUpdate{Header: h}
	case typeLinkStateAcknowledgement:
		p = &LinkStateAcknowledgement{Header: h}
	default:
		return nil, fmt.Errorf("ospfap: unrecognized packet type: %d: %w", h.Type, errParse)
	}

	if err := p.unmarshalPayload(b[headerLen:h.TotalLength]); err != nil {
		return nil, fmt.Errorf("ospfap: failed to parse payload: %w", err)
	}
	return p, nil
}

// MarshalPacket turns a Packet into its wire bytes, stamping Header.Type
// and Header.TotalLength along the way.
func MarshalPacket(p Packet) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("ospfap: cannot marshal nil Packet: %w", errMarshal)
	}

	h := p.header()
	h.Type = p.wireType()
	h.TotalLength = uint16(headerLen + p.payloadLen())
	b := make([]byte, h.TotalLength)
	h.marshal(b[:headerLen])
	if err := p.marshalPayload(b[headerLen:]); err != nil {
		return nil, fmt.Errorf("ospfap: failed to marshal payload: %w", err)
	}
	return b, nil
}

func putMsSeconds16(b []byte, ms uint32) { binary.BigEndian.PutUint16(b, uint16(ms)) }
func getMsSeconds16(b []byte) uint32     { return uint32(binary.BigEndian.Uint16(b)) }

var _ Packet = &Hello{}

// A Hello is an OSPF Hello packet as described in spec.md section 3.
type Hello struct {
	Header             Header
	NetworkMask        uint32
	HelloInterval      uint32 // milliseconds
	Options            uint8
	RouterPriority     uint8
	RouterDeadInterval uint32 // milliseconds
	DR                 uint32
	BDR                uint32
	NeighborIDs        []RouterID
}

func (h *Hello) header() *Header { return &h.Header }

func (h *Hello) wireType() packetType { return typeHello }

func (h *Hello) payloadLen() int { return helloFixedLen + 4*len(h.NeighborIDs) }

// IsNeighbor reports whether id appears in the Hello's neighbor list,
// i.e. whether the sender has heard from this router (two-way Hello).
func (h *Hello) IsNeighbor(id RouterID) bool {
	for _, n := range h.NeighborIDs {
		if n == id {
			return true
		}
	}
	return false
}

func (h *Hello) marshalPayload(b []byte) error {
	binary.BigEndian.PutUint32(b[0:4], h.NetworkMask)
	putMsSeconds16(b[4:6], h.HelloInterval)
	b[6] = h.Options
	b[7] = h.RouterPriority
	binary.BigEndian.PutUint32(b[8:12], h.RouterDeadInterval)
	binary.BigEndian.PutUint32(b[12:16], h.DR)
	binary.BigEndian.PutUint32(b[16:20], h.BDR)

	off := helloFixedLen
	for _, n := range h.NeighborIDs {
		binary.BigEndian.PutUint32(b[off:off+4], uint32(n))
		off += 4
	}
	return nil
}

func (h *Hello) unmarshalPayload(b []byte) error {
	if len(b) < helloFixedLen {
		return errTruncated("Hello", len(b))
	}
	h.NetworkMask = binary.BigEndian.Uint32(b[0:4])
	h.HelloInterval = getMsSeconds16(b[4:6])
	h.Options = b[6]
	h.RouterPriority = b[7]
	h.RouterDeadInterval = binary.BigEndian.Uint32(b[8:12])
	h.DR = binary.BigEndian.Uint32(b[12:16])
	h.BDR = binary.BigEndian.Uint32(b[16:20])

	rest := b[helloFixedLen:]
	n := len(rest) / 4
	h.NeighborIDs = make([]RouterID, 0, n)
	for i := 0; i < n; i++ {
		h.NeighborIDs = append(h.NeighborIDs, RouterID(binary.BigEndian.Uint32(rest[i*4:i*4+4])))
	}
	return nil
}

var _ Packet = &DatabaseDescription{}

// A DatabaseDescription is an OSPF DBD packet as described in spec.md
// section 3.
type DatabaseDescription struct {
	Header         Header
	MTU            uint16
	Options        uint8
	Flags          uint8
	DDSeqNum       uint32
	LSAs           []LsaHeader
}

func (dd *DatabaseDescription) header() *Header { return &dd.Header }

func (dd *DatabaseDescription) wireType() packetType { return typeDatabaseDescription }

func (dd *DatabaseDescription) payloadLen() int {
	return ddFixedLen + lsaHeaderLen*len(dd.LSAs)
}

func (dd *DatabaseDescription) marshalPayload(b []byte) error {
	binary.BigEndian.PutUint16(b[0:2], dd.MTU)
	b[2] = dd.Options
	b[3] = dd.Flags
	binary.BigEndian.PutUint32(b[4:8], dd.DDSeqNum)

	off := ddFixedLen
	for _, h := range dd.LSAs {
		h.marshal(b[off : off+lsaHeaderLen])
		off += lsaHeaderLen
	}
	return nil
}

func (dd *DatabaseDescription) unmarshalPayload(b []byte) error {
	if len(b) < ddFixedLen {
		return errTruncated("DatabaseDescription", len(b))
	}
	dd.MTU = binary.BigEndian.Uint16(b[0:2])
	dd.Options = b[2]
	dd.Flags = b[3]
	dd.DDSeqNum = binary.BigEndian.Uint32(b[4:8])
	dd.LSAs = parseLsaHeaders(b[ddFixedLen:])
	return nil
}

var _ Packet = &LinkStateRequest{}

// A LinkStateRequest is an OSPF LSR packet: a list of LsaKeys the sender
// wants the peer to send back as a LinkStateUpdate.
type LinkStateRequest struct {
	Header Header
	Keys   []LsaKey
}

func (lsr *LinkStateRequest) header() *Header { return &lsr.Header }

func (lsr *LinkStateRequest) wireType() packetType { return typeLinkStateRequest }

func (lsr *LinkStateRequest) payloadLen() int { return lsrEntryLen * len(lsr.Keys) }

func (lsr *LinkStateRequest) marshalPayload(b []byte) error {
	off := 0
	for _, k := range lsr.Keys {
		binary.BigEndian.PutUint32(b[off:off+4], uint32(k.Type))
		binary.BigEndian.PutUint32(b[off+4:off+8], k.LsID)
		binary.BigEndian.PutUint32(b[off+8:off+12], uint32(k.AdvertisingRouter))
		off += lsrEntryLen
	}
	return nil
}

func (lsr *LinkStateRequest) unmarshalPayload(b []byte) error {
	n := len(b) / lsrEntryLen
	lsr.Keys = make([]LsaKey, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsrEntryLen
		typ := binary.BigEndian.Uint32(b[start : start+4])
		if typ == 0 || typ > uint32(L2SummaryLSAs) {
			// Unknown LsType: skip this entry, keep valid ones.
			continue
		}
		lsr.Keys = append(lsr.Keys, LsaKey{
			Type:              LSType(typ),
			LsID:              binary.BigEndian.Uint32(b[start+4 : start+8]),
			AdvertisingRouter: RouterID(binary.BigEndian.Uint32(b[start+8 : start+12])),
		})
	}
	return nil
}

var _ Packet = &LinkStateUpdate{}

// A LinkStateUpdate is an OSPF LSU packet carrying complete LSAs. Per
// spec.md's design notes, this engine always originates and retransmits
// single-LSA LSUs so per-key acknowledgement stays unambiguous, but
// HandleLsu must still accept multi-LSA LSUs from any peer.
type LinkStateUpdate struct {
	Header Header
	LSAs   []LSA
}

func (lsu *LinkStateUpdate) header() *Header { return &lsu.Header }

func (lsu *LinkStateUpdate) wireType() packetType { return typeLinkStateUpdate }

func (lsu *LinkStateUpdate) payloadLen() int {
	n := lsuFixedLen
	for _, l := range lsu.LSAs {
		n += lsaHeaderLen + l.Body.length()
	}
	return n
}

func (lsu *LinkStateUpdate) marshalPayload(b []byte) error {
	binary.BigEndian.PutUint32(b[0:4], uint32(len(lsu.LSAs)))
	off := lsuFixedLen
	for _, l := range lsu.LSAs {
		raw := marshalLSA(l)
		copy(b[off:off+len(raw)], raw)
		off += len(raw)
	}
	return nil
}

func (lsu *LinkStateUpdate) unmarshalPayload(b []byte) error {
	if len(b) < lsuFixedLen {
		return errTruncated("LinkStateUpdate", len(b))
	}
	declared := binary.BigEndian.Uint32(b[0:4])
	rest := b[lsuFixedLen:]

	lsu.LSAs = make([]LSA, 0, declared)
	for i := uint32(0); i < declared; i++ {
		if len(rest) < lsaHeaderLen {
			break
		}
		l, n, err := parseLSA(rest)
		if err != nil || n == 0 {
			// An oversized declared length for this LSA: stop, keeping
			// the whole LSAs parsed so far.
			break
		}
		if l.Body != nil {
			lsu.LSAs = append(lsu.LSAs, l)
		}
		rest = rest[n:]
	}
	return nil
}

var _ Packet = &LinkStateAcknowledgement{}

// A LinkStateAcknowledgement is an OSPF LSAck packet: a list of LsaHeaders
// being acknowledged.
type LinkStateAcknowledgement struct {
	Header Header
	LSAs   []LsaHeader
}

func (ack *LinkStateAcknowledgement) header() *Header { return &ack.Header }

func (ack *LinkStateAcknowledgement) wireType() packetType { return typeLinkStateAcknowledgement }

func (ack *LinkStateAcknowledgement) payloadLen() int { return lsaHeaderLen * len(ack.LSAs) }

func (ack *LinkStateAcknowledgement) marshalPayload(b []byte) error {
	off := 0
	for _, h := range ack.LSAs {
		h.marshal(b[off : off+lsaHeaderLen])
		off += lsaHeaderLen
	}
	return nil
}

func (ack *LinkStateAcknowledgement) unmarshalPayload(b []byte) error {
	ack.LSAs = parseLsaHeaders(b)
	return nil
}
