package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, sinks and registries return
// these (optionally wrapped) so services and handlers can translate them into
// domain errors.
//
//   - ErrNotFound: the log, source or record does not exist
//   - ErrUnavailable: a backing sink is temporarily unavailable
//   - ErrBufferFull: an async queue rejected the write
//   - ErrClosed: the component has been shut down
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrBufferFull  = errors.New("buffer full")
	ErrClosed      = errors.New("closed")
)
