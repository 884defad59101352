package ospfap

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRecvSocket is a RawSocket whose RecvFrom yields a fixed queue of
// (payload, src) pairs, then returns an error forever, mimicking what
// Close does to a real socket's RecvFrom loop.
type fakeRecvSocket struct {
	mu    sync.Mutex
	queue []fakeRecvFrame
}

type fakeRecvFrame struct {
	payload []byte
	src     uint32
}

func (s *fakeRecvSocket) SetTTL(int) error                    { return nil }
func (s *fakeRecvSocket) SetBindToDevice(IfIndex) error       { return nil }
func (s *fakeRecvSocket) SetBroadcast(bool) error             { return nil }
func (s *fakeRecvSocket) Close() error                        { return nil }
func (s *fakeRecvSocket) SendTo(uint32, []byte) (int, error)  { return 0, nil }

func (s *fakeRecvSocket) RecvFrom(b []byte) (int, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, 0, errors.New("fakeRecvSocket: closed")
	}
	f := s.queue[0]
	s.queue = s.queue[1:]
	n := copy(b, f.payload)
	return n, f.src, nil
}

// TestStartReceiveLoopsForDispatchesToHandleRead verifies that a packet
// queued on a socket's RecvFrom is handed to HandleRead through the
// dispatch function, not executed directly on the reader goroutine.
func TestStartReceiveLoopsForDispatchesToHandleRead(t *testing.T) {
	r, _, _ := newTestRouter(1, 1)

	iface := NewOspfInterface(1, 0x0A000001, 0xFFFFFF00, 1)
	iface.Up = true
	r.AddInterface(iface)

	hello := &Hello{
		Header:             Header{RouterID: 2, AreaID: 1},
		NetworkMask:        0xFFFFFF00,
		HelloInterval:      iface.HelloInterval,
		RouterDeadInterval: iface.RouterDeadInterval,
	}
	b, err := MarshalPacket(hello)
	require.NoError(t, err)

	sock := &fakeRecvSocket{queue: []fakeRecvFrame{{payload: b, src: 0x0A000002}}}
	iface.helloSocket = sock

	var mu sync.Mutex
	var dispatched int
	done := make(chan struct{}, 1)
	dispatch := func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
		select {
		case done <- struct{}{}:
		default:
		}
	}

	r.StartReceiveLoopsFor(iface, dispatch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	mu.Lock()
	got := dispatched
	mu.Unlock()
	require.Equal(t, 1, got)

	n, ok := iface.GetNeighbor(0x0A000002)
	require.True(t, ok, "HandleRead must have created a neighbor from the dispatched Hello")
	require.Equal(t, RouterID(2), n.RouterID)
}
