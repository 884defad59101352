// Package ospfap implements a link-state intra-domain routing engine
// modeled on OSPFv2, extended with a two-level "area proxy" hierarchy
// that summarizes per-router link-state into per-area link-state.
//
// The package implements the routing control plane only: the per-neighbor
// adjacency state machine, the four link-state databases, the two-level
// SPF computation, the routing-table installer, area-leader election, and
// the wire format for all packets and LSAs. Everything the engine needs
// from its environment (a clock/scheduler, raw sockets, the host routing
// table, a source of randomness) is expressed as a collaborator interface
// in collab.go so the core can run against either the production
// implementations in netio.go/clock.go/routetable.go/rng.go, or an
// in-memory fake for tests.
package ospfap
