package ospfap

import (
	"encoding/binary"
	"fmt"
)

const (
	routerLinkLen   = 12
	areaLinkLen     = 12
	summaryRouteLen = 12

	routerBodyFixedLen = 4
	areaBodyFixedLen   = 4
	summaryFixedLen    = 4
)

// RouterLSA flag bits: bits 7, 6 and 5 of the 16-bit flags word (its
// low byte).
const (
	routerFlagV uint16 = 1 << 7
	routerFlagE uint16 = 1 << 6
	routerFlagB uint16 = 1 << 5
)

// RouterLink types.
const (
	// LinkTypeP2P is an intra-area point-to-point link: LinkID is the
	// peer RouterID, LinkData is the local interface IP.
	LinkTypeP2P uint8 = 1
	// LinkTypeCrossArea is the area-proxy extension for a link whose
	// neighbor is in a different area: LinkID is the peer AreaID,
	// LinkData is the local interface IP.
	LinkTypeCrossArea uint8 = 5
)

// A RouterLink describes one adjacency listed in a RouterLSA.
type RouterLink struct {
	LinkID  uint32
	LinkData uint32
	Type    uint8
	TOS     uint8
	Metric  uint16
}

func (l RouterLink) marshal(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], l.LinkID)
	binary.BigEndian.PutUint32(b[4:8], l.LinkData)
	b[8] = l.Type
	b[9] = l.TOS
	binary.BigEndian.PutUint16(b[10:12], l.Metric)
}

func parseRouterLink(b []byte) RouterLink {
	return RouterLink{
		LinkID:   binary.BigEndian.Uint32(b[0:4]),
		LinkData: binary.BigEndian.Uint32(b[4:8]),
		Type:     b[8],
		TOS:      b[9],
		Metric:   binary.BigEndian.Uint16(b[10:12]),
	}
}

// A RouterLSABody is the body of a RouterLSA: the originating router's
// flags and its set of links.
type RouterLSABody struct {
	FlagV bool
	FlagE bool
	FlagB bool
	Links []RouterLink
}

func (b *RouterLSABody) lsType() LSType { return RouterLSAs }

func (rb *RouterLSABody) length() int {
	return routerBodyFixedLen + routerLinkLen*len(rb.Links)
}

func (rb *RouterLSABody) marshal(b []byte) {
	var flags uint16
	if rb.FlagV {
		flags |= routerFlagV
	}
	if rb.FlagE {
		flags |= routerFlagE
	}
	if rb.FlagB {
		flags |= routerFlagB
	}
	binary.BigEndian.PutUint16(b[0:2], flags)
	binary.BigEndian.PutUint16(b[2:4], uint16(len(rb.Links)))

	off := routerBodyFixedLen
	for _, l := range rb.Links {
		l.marshal(b[off : off+routerLinkLen])
		off += routerLinkLen
	}
}

func (rb *RouterLSABody) unmarshal(b []byte) error {
	if len(b) < routerBodyFixedLen {
		return errTruncated("RouterLSA body", len(b))
	}
	flags := binary.BigEndian.Uint16(b[0:2])
	rb.FlagV = flags&routerFlagV != 0
	rb.FlagE = flags&routerFlagE != 0
	rb.FlagB = flags&routerFlagB != 0

	n := int(binary.BigEndian.Uint16(b[2:4]))
	rest := b[routerBodyFixedLen:]
	avail := len(rest) / routerLinkLen
	if n > avail {
		n = avail
	}
	rb.Links = make([]RouterLink, 0, n)
	for i := 0; i < n; i++ {
		start := i * routerLinkLen
		rb.Links = append(rb.Links, parseRouterLink(rest[start:start+routerLinkLen]))
	}
	return nil
}

// An AreaLink describes one inter-area relay listed in an AreaLSA.
type AreaLink struct {
	AreaID    AreaID
	IPAddress uint32
	Metric    uint16
}

func (l AreaLink) marshal(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], uint32(l.AreaID))
	binary.BigEndian.PutUint32(b[4:8], l.IPAddress)
	binary.BigEndian.PutUint16(b[8:10], 0) // reserved
	binary.BigEndian.PutUint16(b[10:12], l.Metric)
}

func parseAreaLink(b []byte) AreaLink {
	return AreaLink{
		AreaID:    AreaID(binary.BigEndian.Uint32(b[0:4])),
		IPAddress: binary.BigEndian.Uint32(b[4:8]),
		Metric:    binary.BigEndian.Uint16(b[10:12]),
	}
}

// An AreaLSABody is the body of an AreaLSA: the inter-area topology as
// seen by the originating area's leader.
type AreaLSABody struct {
	Links []AreaLink
}

func (ab *AreaLSABody) lsType() LSType { return AreaLSAs }

func (ab *AreaLSABody) length() int {
	return areaBodyFixedLen + areaLinkLen*len(ab.Links)
}

func (ab *AreaLSABody) marshal(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], 0) // reserved
	binary.BigEndian.PutUint16(b[2:4], uint16(len(ab.Links)))

	off := areaBodyFixedLen
	for _, l := range ab.Links {
		l.marshal(b[off : off+areaLinkLen])
		off += areaLinkLen
	}
}

func (ab *AreaLSABody) unmarshal(b []byte) error {
	if len(b) < areaBodyFixedLen {
		return errTruncated("AreaLSA body", len(b))
	}
	n := int(binary.BigEndian.Uint16(b[2:4]))
	rest := b[areaBodyFixedLen:]
	avail := len(rest) / areaLinkLen
	if n > avail {
		n = avail
	}
	ab.Links = make([]AreaLink, 0, n)
	for i := 0; i < n; i++ {
		start := i * areaLinkLen
		ab.Links = append(ab.Links, parseAreaLink(rest[start:start+areaLinkLen]))
	}
	return nil
}

// A SummaryRoute is one prefix carried in an L1SummaryLSA or
// L2SummaryLSA body.
type SummaryRoute struct {
	Address uint32
	Mask    uint32
	Metric  uint32
}

func (r SummaryRoute) marshal(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], r.Address)
	binary.BigEndian.PutUint32(b[4:8], r.Mask)
	binary.BigEndian.PutUint32(b[8:12], r.Metric)
}

func parseSummaryRoute(b []byte) SummaryRoute {
	return SummaryRoute{
		Address: binary.BigEndian.Uint32(b[0:4]),
		Mask:    binary.BigEndian.Uint32(b[4:8]),
		Metric:  binary.BigEndian.Uint32(b[8:12]),
	}
}

// summaryLSABody is the shared layout of L1SummaryLSA and L2SummaryLSA
// bodies: an unordered, deduplicated set of SummaryRoutes.
type summaryLSABody struct {
	typ    LSType
	Routes []SummaryRoute
}

func (sb *summaryLSABody) lsType() LSType { return sb.typ }

func (sb *summaryLSABody) length() int {
	return summaryFixedLen + summaryRouteLen*len(sb.Routes)
}

func (sb *summaryLSABody) marshal(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], uint32(len(sb.Routes)))
	off := summaryFixedLen
	for _, r := range sb.Routes {
		r.marshal(b[off : off+summaryRouteLen])
		off += summaryRouteLen
	}
}

func (sb *summaryLSABody) unmarshal(b []byte) error {
	if len(b) < summaryFixedLen {
		return errTruncated("summary LSA body", len(b))
	}
	n := int(binary.BigEndian.Uint32(b[0:4]))
	rest := b[summaryFixedLen:]
	avail := len(rest) / summaryRouteLen
	if n > avail {
		n = avail
	}
	sb.Routes = make([]SummaryRoute, 0, n)
	for i := 0; i < n; i++ {
		start := i * summaryRouteLen
		sb.Routes = append(sb.Routes, parseSummaryRoute(rest[start:start+summaryRouteLen]))
	}
	return nil
}

// An L1SummaryLSABody carries the external prefixes originated by a
// single router, projected for intra-area (L1) routing.
type L1SummaryLSABody struct{ summaryLSABody }

// NewL1SummaryLSABody returns an L1SummaryLSABody carrying routes.
func NewL1SummaryLSABody(routes []SummaryRoute) *L1SummaryLSABody {
	return &L1SummaryLSABody{summaryLSABody{typ: L1SummaryLSAs, Routes: routes}}
}

// An L2SummaryLSABody carries the union of an area's L1SummaryLSA
// prefixes, originated by the area leader for inter-area (L2) routing.
type L2SummaryLSABody struct{ summaryLSABody }

// NewL2SummaryLSABody returns an L2SummaryLSABody carrying routes.
func NewL2SummaryLSABody(routes []SummaryRoute) *L2SummaryLSABody {
	return &L2SummaryLSABody{summaryLSABody{typ: L2SummaryLSAs, Routes: routes}}
}

// An LSABody is the tagged-variant payload following an LsaHeader. The
// concrete type is determined by LsaHeader.Type.
type LSABody interface {
	lsType() LSType
	length() int
	marshal(b []byte)
	unmarshal(b []byte) error
}

var (
	_ LSABody = (*RouterLSABody)(nil)
	_ LSABody = (*AreaLSABody)(nil)
	_ LSABody = (*L1SummaryLSABody)(nil)
	_ LSABody = (*L2SummaryLSABody)(nil)
)

// newLSABody allocates the zero value of the body type for t, or nil if
// t is not one of the four types this engine understands.
func newLSABody(t LSType) LSABody {
	switch t {
	case RouterLSAs:
		return &RouterLSABody{}
	case AreaLSAs:
		return &AreaLSABody{}
	case L1SummaryLSAs:
		return &L1SummaryLSABody{summaryLSABody{typ: L1SummaryLSAs}}
	case L2SummaryLSAs:
		return &L2SummaryLSABody{summaryLSABody{typ: L2SummaryLSAs}}
	default:
		return nil
	}
}

// An LSA is a complete Link State Advertisement: header plus body.
type LSA struct {
	Header LsaHeader
	Body   LSABody
}

// marshalLSA packs the header and body of l into a fresh byte slice,
// stamping Header.Length along the way.
func marshalLSA(l LSA) []byte {
	l.Header.Length = uint16(lsaHeaderLen + l.Body.length())
	l.Header.Type = l.Body.lsType()
	b := make([]byte, l.Header.Length)
	l.Header.marshal(b[:lsaHeaderLen])
	l.Body.marshal(b[lsaHeaderLen:])
	return b
}

// parseLSA parses one length-prefixed LSA (header + body) from the front
// of b and returns it along with the number of bytes consumed. It
// returns an error and 0 consumed bytes when the header is truncated or
// the declared length overruns the buffer. An LsType this engine does
// not originate or process is not an error: the declared length is
// consumed and the LSA is returned with a nil Body, so callers can skip
// it and continue.
func parseLSA(b []byte) (LSA, int, error) {
	if len(b) < lsaHeaderLen {
		return LSA{}, 0, errTruncated("LSA header", len(b))
	}
	hdr := parseLsaHeader(b[:lsaHeaderLen])
	if int(hdr.Length) < lsaHeaderLen || int(hdr.Length) > len(b) {
		return LSA{}, 0, fmt.Errorf("LSA declared length %d exceeds available %d bytes: %w", hdr.Length, len(b), errParse)
	}

	body := newLSABody(hdr.Type)
	if body == nil {
		// Unknown/unsupported type: still consume the declared length so
		// the caller can continue parsing subsequent records.
		return LSA{Header: hdr}, int(hdr.Length), nil
	}
	if err := body.unmarshal(b[lsaHeaderLen:hdr.Length]); err != nil {
		return LSA{}, 0, err
	}
	return LSA{Header: hdr, Body: body}, int(hdr.Length), nil
}
