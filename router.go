package ospfap

import "time"

// ExternalRoute is a prefix locally injected by this router, not
// re-originated per router but carried in its L1SummaryLSA.
type ExternalRoute struct {
	IfIndex IfIndex
	DestNet uint32
	Mask    uint32
	Gateway uint32
	Metric  uint32
}

// lsdbEntry pairs a stored LsaHeader with its parsed body, the unit the
// four LSDB maps hold.
type lsdbEntry struct {
	Header LsaHeader
	Body   LSABody
}

// Router is the per-router control block: the one piece of mutable state
// passed by reference to every subcomponent, per spec.md section 9's
// design note against process-wide singletons.
type Router struct {
	RouterID RouterID
	AreaID   AreaID

	Clock     Clock
	Scheduler Scheduler
	Random    Random
	Devices   NetDeviceSet
	Routes    RoutingTable

	Interfaces map[IfIndex]*OspfInterface

	RouterLsdb     map[RouterID]lsdbEntry
	L1SummaryLsdb  map[RouterID]lsdbEntry
	AreaLsdb       map[AreaID]lsdbEntry
	L2SummaryLsdb  map[AreaID]lsdbEntry

	SeqNumbers map[LsaKey]uint32

	ExternalRoutes []ExternalRoute

	IsAreaLeader bool

	L1NextHop                   map[RouterID]l1NextHop
	L2NextHop                   map[AreaID]l2NextHop
	NextHopToShortestBorderRouter map[AreaID]borderRelay

	// installedRoutes are the indexes, within Routes, of rows this
	// router itself installed, in installation order.
	installedRoutes []int

	HelloInterval           uint32
	RouterDeadInterval      uint32
	LSUInterval             uint32
	ShortestPathUpdateDelay uint32
	MinLSInterval           uint32
	InitialHelloDelay       uint32
	AutoSyncInterfaces      bool
	InterfaceSyncInterval   uint32
	ResetStateOnDisable     bool

	EnableAreaProxy bool

	enabled bool
	running bool

	spfL1Pending    bool
	spfL2Pending    bool
	areaLeaderTimer TimerHandle

	throttle lsaThrottleState

	helloTimer    TimerHandle
	lastL1Trigger LsaKey

	log Logger
	met *Metrics
	trace Tracer
}

type l1NextHop struct {
	IfIndex IfIndex
	Gateway uint32
	Cost    uint32
}

type l2NextHop struct {
	FirstHopArea AreaID
	Cost         uint32
}

type borderRelay struct {
	BorderRouter RouterID
	NextHop      l1NextHop
}

// NewRouter returns a Router wired to its collaborators and defaulted
// timing attributes, ready to have interfaces added and StartApplication
// called.
func NewRouter(id RouterID, area AreaID, clock Clock, sched Scheduler, rnd Random, devs NetDeviceSet, rt RoutingTable) *Router {
	return &Router{
		RouterID:   id,
		AreaID:     area,
		Clock:      clock,
		Scheduler:  sched,
		Random:     rnd,
		Devices:    devs,
		Routes:     rt,

		Interfaces: make(map[IfIndex]*OspfInterface),

		RouterLsdb:    make(map[RouterID]lsdbEntry),
		L1SummaryLsdb: make(map[RouterID]lsdbEntry),
		AreaLsdb:      make(map[AreaID]lsdbEntry),
		L2SummaryLsdb: make(map[AreaID]lsdbEntry),

		SeqNumbers: make(map[LsaKey]uint32),

		L1NextHop:                     make(map[RouterID]l1NextHop),
		L2NextHop:                     make(map[AreaID]l2NextHop),
		NextHopToShortestBorderRouter: make(map[AreaID]borderRelay),

		HelloInterval:           DefaultHelloInterval,
		RouterDeadInterval:      DefaultRouterDeadInterval,
		LSUInterval:             DefaultLSUInterval,
		ShortestPathUpdateDelay: DefaultShortestPathUpdateDelay,
		MinLSInterval:           DefaultMinLSInterval,
		InitialHelloDelay:       DefaultInitialHelloDelay,

		throttle: newLsaThrottleState(),
		log:      nopLogger{},
	}
}

// AddInterface registers a bound device with this router.
func (r *Router) AddInterface(i *OspfInterface) {
	r.Interfaces[i.Index] = i
}

func (r *Router) jitter() time.Duration {
	return time.Duration(r.Random.Intn(maxJitterMs+1)) * time.Millisecond
}

func msDuration(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }
