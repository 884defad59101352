package ospfap

import "errors"

// Sentinel errors used to differentiate various types of errors in tests,
// mirroring the teacher package's errMarshal/errParse split.
var (
	errMarshal = errors.New("ospfap: failed to marshal bytes")
	errParse   = errors.New("ospfap: failed to parse bytes")

	// ErrImportMismatch is returned by ImportOspf when a snapshot file set
	// is truncated or internally inconsistent. Per spec, a mismatched
	// import is refused outright and the router keeps its current state.
	ErrImportMismatch = errors.New("ospfap: snapshot import mismatch")

	// ErrSocketBind is returned by StartApplication when a raw socket
	// cannot be bound; this is the only startup failure that aborts.
	ErrSocketBind = errors.New("ospfap: failed to bind raw socket")
)
