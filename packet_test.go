package ospfap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func merge(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{name: "empty"},
		{
			name: "short",
			b:    make([]byte, headerLen-1),
		},
		{
			name: "bad version",
			b:    append([]byte{3}, make([]byte, headerLen-1)...),
		},
		{
			name: "length too short for header",
			b:    append([]byte{ospfVersion, 1, 0x00, 0x01}, make([]byte, headerLen-4)...),
		},
		{
			name: "declared length overruns buffer",
			b:    append([]byte{ospfVersion, 1, 0xff, 0xff}, make([]byte, headerLen-4)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHeader(tt.b)
			if diff := cmp.Diff(errParse, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("unexpected error (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    Packet
	}{
		{
			name: "hello",
			p: &Hello{
				Header:             Header{RouterID: 1, AreaID: 2},
				NetworkMask:        0xFFFFFF00,
				HelloInterval:      10_000,
				Options:            0x02,
				RouterPriority:     1,
				RouterDeadInterval: 30_000,
				DR:                 0x0A000001,
				BDR:                0x0A000002,
				NeighborIDs:        []RouterID{3, 4},
			},
		},
		{
			name: "database description",
			p: &DatabaseDescription{
				Header:   Header{RouterID: 1, AreaID: 2},
				MTU:      1500,
				Options:  0x02,
				Flags:    DDFlagI | DDFlagM | DDFlagMS,
				DDSeqNum: 0xAABBCCDD,
				LSAs: []LsaHeader{
					{Type: RouterLSAs, LsID: 1, AdvertisingRouter: 1, SeqNum: 5, Length: lsaHeaderLen},
					{Type: AreaLSAs, LsID: 9, AdvertisingRouter: 1, SeqNum: 1, Length: lsaHeaderLen},
				},
			},
		},
		{
			name: "link state request",
			p: &LinkStateRequest{
				Header: Header{RouterID: 1, AreaID: 2},
				Keys: []LsaKey{
					{Type: RouterLSAs, LsID: 1, AdvertisingRouter: 1},
					{Type: L1SummaryLSAs, LsID: 1, AdvertisingRouter: 1},
				},
			},
		},
		{
			name: "link state update",
			p: &LinkStateUpdate{
				Header: Header{RouterID: 1, AreaID: 2},
				LSAs: []LSA{
					{
						Header: LsaHeader{Type: RouterLSAs, LsID: 1, AdvertisingRouter: 1, SeqNum: 1, Length: lsaHeaderLen + routerBodyFixedLen + routerLinkLen},
						Body: &RouterLSABody{
							FlagB: true,
							Links: []RouterLink{{LinkID: 2, LinkData: 0x0A000001, Type: LinkTypeP2P, Metric: 1}},
						},
					},
				},
			},
		},
		{
			name: "link state acknowledgement",
			p: &LinkStateAcknowledgement{
				Header: Header{RouterID: 1, AreaID: 2},
				LSAs: []LsaHeader{
					{Type: RouterLSAs, LsID: 1, AdvertisingRouter: 1, SeqNum: 5, Length: lsaHeaderLen},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalPacket(tt.p)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			p1, err := ParsePacket(b)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			if diff := cmp.Diff(tt.p, p1); diff != "" {
				t.Fatalf("unexpected packet (-want +got):\n%s", diff)
			}

			b2, err := MarshalPacket(p1)
			if err != nil {
				t.Fatalf("failed to re-marshal: %v", err)
			}
			if diff := cmp.Diff(b, b2); diff != "" {
				t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePacketErrors(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{
			name: "unrecognized type",
			b: merge(
				[]byte{ospfVersion, 0xff, 0x00, headerLen},
				make([]byte, headerLen-4),
			),
		},
		{
			name: "truncated hello payload",
			b: merge(
				[]byte{ospfVersion, uint8(typeHello), 0x00, headerLen + 3},
				make([]byte, headerLen-4),
				[]byte{0x01, 0x02, 0x03},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePacket(tt.b); err == nil {
				t.Fatal("expected an error, got nil")
			}
		})
	}
}

func TestMarshalPacketErrors(t *testing.T) {
	tests := []struct {
		name string
		p    Packet
	}{
		{name: "untyped nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalPacket(tt.p)
			if diff := cmp.Diff(errMarshal, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("unexpected error (-want +got):\n%s", diff)
			}
		})
	}
}
