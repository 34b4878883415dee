package ingest

import "errors"

// Error taxonomy for the ingestion surface. Handlers map these onto
// transport status codes; everything else is an internal error.
var (
	// ErrInvalidSnapshot rejects malformed client input. No state changed.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrStaleDuplicate marks an already-applied (node_id, timestamp)
	// retransmission. The call was a no-op and callers should treat it as
	// success.
	ErrStaleDuplicate = errors.New("stale duplicate snapshot")

	// ErrPersistence signals that the persistence provider is unavailable or
	// a write failed. The call is retryable.
	ErrPersistence = errors.New("persistence unavailable")

	// ErrUnknownNode is returned by admin operations on node ids the service
	// has never seen.
	ErrUnknownNode = errors.New("unknown node")
)
