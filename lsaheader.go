package ospfap

import (
	"encoding/binary"
	"fmt"
)

const lsaHeaderLen = 20

// An LsaHeader is the 20 byte header prefixing every LSA body, as
// described in spec.md section 3. LsAge and Checksum are carried on the
// wire but never inspected: this core has no MaxAge eviction and does
// not validate checksums.
type LsaHeader struct {
	LsAge             uint16
	Options           uint8
	Type              LSType
	LsID              uint32
	AdvertisingRouter RouterID
	SeqNum            uint32
	Checksum          uint16
	Length            uint16
}

// Key returns the LsaKey identifying the LSA this header describes.
func (h LsaHeader) Key() LsaKey {
	return LsaKey{Type: h.Type, LsID: h.LsID, AdvertisingRouter: h.AdvertisingRouter}
}

// marshal packs h's bytes into b. It assumes b has allocated lsaHeaderLen
// bytes to avoid a panic.
func (h LsaHeader) marshal(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], h.LsAge)
	b[2] = h.Options
	b[3] = byte(h.Type)
	binary.BigEndian.PutUint32(b[4:8], h.LsID)
	binary.BigEndian.PutUint32(b[8:12], uint32(h.AdvertisingRouter))
	binary.BigEndian.PutUint32(b[12:16], h.SeqNum)
	binary.BigEndian.PutUint16(b[16:18], h.Checksum)
	binary.BigEndian.PutUint16(b[18:20], h.Length)
}

// parseLsaHeader unpacks an LsaHeader from a 20 byte slice. The caller
// must ensure len(b) >= lsaHeaderLen.
func parseLsaHeader(b []byte) LsaHeader {
	return LsaHeader{
		LsAge:             binary.BigEndian.Uint16(b[0:2]),
		Options:           b[2],
		Type:              LSType(b[3]),
		LsID:              binary.BigEndian.Uint32(b[4:8]),
		AdvertisingRouter: RouterID(binary.BigEndian.Uint32(b[8:12])),
		SeqNum:            binary.BigEndian.Uint32(b[12:16]),
		Checksum:          binary.BigEndian.Uint16(b[16:18]),
		Length:            binary.BigEndian.Uint16(b[18:20]),
	}
}

// parseLsaHeaders parses as many whole LsaHeader records as fit in b,
// silently dropping a trailing partial record.
func parseLsaHeaders(b []byte) []LsaHeader {
	n := len(b) / lsaHeaderLen
	hdrs := make([]LsaHeader, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsaHeaderLen
		hdrs = append(hdrs, parseLsaHeader(b[start:start+lsaHeaderLen]))
	}
	return hdrs
}

func errTruncated(what string, l int) error {
	return fmt.Errorf("not enough bytes for %s: %d: %w", what, l, errParse)
}
