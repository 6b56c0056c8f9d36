package rki

import "errors"

// Sentinel kinds for district-feed errors.
var (
	// ErrQueryLimit is fatal: a district result set at the upstream's
	// record limit means the query was truncated server-side and the
	// accumulated table would silently under-count.
	ErrQueryLimit = errors.New("per-district query limit exceeded")

	ErrBadRecord = errors.New("fallback record does not parse")
)
