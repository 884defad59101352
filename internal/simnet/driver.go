package simnet

import (
	"time"

	"github.com/ospf-areaproxy/ospfap"
)

// DriverClock and Driver together give a deterministic, due-time-ordered
// event loop (scenario_test.go carries its own copy rather than using
// these): no goroutine, no
// wall-clock sleep, no root privilege. Driver fires the earliest
// pending callback, advances its clock to that callback's due time,
// and repeats until the queue drains or a step cap is hit.
type DriverClock struct {
	now time.Time
}

// NewDriverClock returns a DriverClock starting at a fixed, arbitrary
// instant so successive runs are bit-for-bit reproducible.
func NewDriverClock() *DriverClock { return &DriverClock{now: time.Unix(1_700_000_000, 0)} }

// Now returns the driver's current simulated time.
func (c *DriverClock) Now() time.Time { return c.now }

type pendingCall struct {
	due time.Time
	fn  func()
	seq uint64
}

// Driver is an ospfap.Scheduler that queues callbacks in memory and
// fires them in (due time, schedule order) order when Run is called.
type Driver struct {
	clk     *DriverClock
	seq     uint64
	pending map[uint64]pendingCall
}

// NewDriver returns a Driver bound to clk.
func NewDriver(clk *DriverClock) *Driver {
	return &Driver{clk: clk, pending: make(map[uint64]pendingCall)}
}

// Schedule queues fn to run after delay, measured from the driver's
// current simulated time.
func (d *Driver) Schedule(delay time.Duration, fn func()) ospfap.TimerHandle {
	d.seq++
	d.pending[d.seq] = pendingCall{due: d.clk.now.Add(delay), fn: fn, seq: d.seq}
	return ospfap.TimerHandle(d.seq)
}

// Cancel drops a previously scheduled callback. A no-op if it already fired.
func (d *Driver) Cancel(h ospfap.TimerHandle) {
	delete(d.pending, uint64(h))
}

// Run fires pending callbacks in due-time order until the queue drains
// or maxSteps is exceeded, whichever comes first, advancing the clock
// to each callback's due time as it fires. It returns the number of
// callbacks fired.
func (d *Driver) Run(maxSteps int) int {
	fired := 0
	for ; fired < maxSteps && len(d.pending) > 0; fired++ {
		var next uint64
		found := false
		for k, c := range d.pending {
			if !found || c.due.Before(d.pending[next].due) || (c.due.Equal(d.pending[next].due) && c.seq < d.pending[next].seq) {
				next = k
				found = true
			}
		}
		c := d.pending[next]
		delete(d.pending, next)
		d.clk.now = c.due
		c.fn()
	}
	return fired
}

// RunFor fires pending callbacks up to and including simulated deadline,
// useful for driving a topology through one more hello/timeout cycle
// after a link flap.
func (d *Driver) RunFor(deadline time.Duration, maxSteps int) int {
	stop := d.clk.now.Add(deadline)
	fired := 0
	for ; fired < maxSteps && len(d.pending) > 0; fired++ {
		var next uint64
		found := false
		for k, c := range d.pending {
			if !found || c.due.Before(d.pending[next].due) || (c.due.Equal(d.pending[next].due) && c.seq < d.pending[next].seq) {
				next = k
				found = true
			}
		}
		if !found || d.pending[next].due.After(stop) {
			break
		}
		c := d.pending[next]
		delete(d.pending, next)
		d.clk.now = c.due
		c.fn()
	}
	return fired
}

// ZeroRandom is a Random with fixed outputs, so jitter and DD sequence
// numbers are reproducible: Intn always returns 0 and Uint32 always
// returns 0x2a2a2a2a.
type ZeroRandom struct{}

func (ZeroRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return 0
}
func (ZeroRandom) Uint32() uint32 { return 0x2a2a2a2a }
