package ospfap

import (
	"fmt"
	"net"
)

// Config is the attribute set a helper layer (the CLI, a test harness,
// an embedding application) uses to construct and configure a Router.
// It mirrors the helper attribute list of spec.md section 6 field for
// field. NewRouterFromConfig applies the timing, area-proxy, auto-sync,
// reset and logging attributes; HelloAddress, LSAAddress and AreaMask
// are accepted but not applied, since the Router always uses 224.0.0.5
// and 224.0.0.6 and has no area mask.
type Config struct {
	RouterID RouterID `mapstructure:"router_id"`
	AreaID   AreaID   `mapstructure:"area_id"`

	HelloAddress uint32 `mapstructure:"hello_address"`
	LSAAddress   uint32 `mapstructure:"lsa_address"`

	HelloInterval           uint32 `mapstructure:"hello_interval_ms"`
	RouterDeadInterval      uint32 `mapstructure:"router_dead_interval_ms"`
	LSUInterval             uint32 `mapstructure:"lsu_interval_ms"`
	ShortestPathUpdateDelay uint32 `mapstructure:"shortest_path_update_delay_ms"`
	MinLSInterval           uint32 `mapstructure:"min_ls_interval_ms"`
	InitialHelloDelay       uint32 `mapstructure:"initial_hello_delay_ms"`

	AreaMask        uint32 `mapstructure:"area_mask"`
	EnableAreaProxy bool   `mapstructure:"enable_area_proxy"`

	AutoSyncInterfaces    bool   `mapstructure:"auto_sync_interfaces"`
	InterfaceSyncInterval uint32 `mapstructure:"interface_sync_interval_ms"`
	ResetStateOnDisable   bool   `mapstructure:"reset_state_on_disable"`

	LogDir                  string `mapstructure:"log_dir"`
	EnablePacketLog         bool   `mapstructure:"enable_packet_log"`
	IncludeHelloInPacketLog bool   `mapstructure:"include_hello_in_packet_log"`
	EnableLsaTimingLog      bool   `mapstructure:"enable_lsa_timing_log"`

	Interfaces []InterfaceConfig `mapstructure:"interfaces"`
}

// InterfaceConfig describes one OspfInterface to attach at startup.
type InterfaceConfig struct {
	Index     IfIndex `mapstructure:"index"`
	IpAddress string  `mapstructure:"ip_address"`
	Mask      string  `mapstructure:"mask"`
	Gateway   string  `mapstructure:"gateway"`
	AreaID    AreaID  `mapstructure:"area_id"`
	Metric    uint16  `mapstructure:"metric"`
}

// DefaultConfig returns a Config populated with the default timing
// attributes spec.md section 6 names (all overridable).
func DefaultConfig() Config {
	return Config{
		HelloAddress:            AllSPFRoutersAddr,
		LSAAddress:              AllDRoutersAddr,
		HelloInterval:           DefaultHelloInterval,
		RouterDeadInterval:      DefaultRouterDeadInterval,
		LSUInterval:             DefaultLSUInterval,
		ShortestPathUpdateDelay: DefaultShortestPathUpdateDelay,
		MinLSInterval:           DefaultMinLSInterval,
		InitialHelloDelay:       DefaultInitialHelloDelay,
		AutoSyncInterfaces:      false,
		InterfaceSyncInterval:   0,
		ResetStateOnDisable:     false,
	}
}

// NewRouterFromConfig builds a Router from cfg using the production
// collaborators (WallClock, RealScheduler, SystemRandom, SystemDeviceSet,
// a NetlinkRoutingTable falling back to an in-memory one). runOn is
// passed straight through to NewRealScheduler: the caller is expected to
// run it as a single dedicated goroutine draining one channel, so that
// every timer callback and, via Router.StartReceiveLoops, every packet
// read lands on that one goroutine and the single-threaded discipline of
// spec.md section 5 holds in production, not just in tests. Pass nil to
// run callbacks directly on whichever goroutine fires them (acceptable
// only for single-router, single-connection test harnesses).
func NewRouterFromConfig(cfg Config, runOn func(func())) (*Router, error) {
	routes, err := NewNetlinkRoutingTable()
	var rt RoutingTable
	if err != nil {
		rt = NewInMemoryRoutingTable()
	} else {
		rt = routes
	}

	r := NewRouter(cfg.RouterID, cfg.AreaID, WallClock{}, NewRealScheduler(runOn), SystemRandom{}, SystemDeviceSet{}, rt)
	r.HelloInterval = cfg.HelloInterval
	r.RouterDeadInterval = cfg.RouterDeadInterval
	r.LSUInterval = cfg.LSUInterval
	r.ShortestPathUpdateDelay = cfg.ShortestPathUpdateDelay
	r.MinLSInterval = cfg.MinLSInterval
	r.InitialHelloDelay = cfg.InitialHelloDelay
	r.EnableAreaProxy = cfg.EnableAreaProxy
	r.AutoSyncInterfaces = cfg.AutoSyncInterfaces
	r.InterfaceSyncInterval = cfg.InterfaceSyncInterval
	r.ResetStateOnDisable = cfg.ResetStateOnDisable

	for _, ic := range cfg.Interfaces {
		ip := u32FromIP(net.ParseIP(ic.IpAddress))
		mask := u32FromIP(net.ParseIP(ic.Mask))
		iface := NewOspfInterface(ic.Index, ip, mask, ic.AreaID)
		iface.Metric = ic.Metric
		if ic.Gateway != "" {
			iface.Gateway = u32FromIP(net.ParseIP(ic.Gateway))
		}
		r.AddInterface(iface)
	}

	if cfg.LogDir != "" {
		tracer, err := NewCSVTracer(cfg.LogDir, cfg.RouterID.String(), cfg.EnablePacketLog, cfg.IncludeHelloInPacketLog, cfg.EnableLsaTimingLog, true)
		if err != nil {
			return nil, fmt.Errorf("ospfap: open csv tracer: %w", err)
		}
		r.SetTracer(tracer)
	}

	return r, nil
}
