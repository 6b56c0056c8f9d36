package series

import "errors"

// Sentinel kinds for table and filter errors.
var (
	ErrEmptyTable      = errors.New("table has no date columns")
	ErrRegionNotFound  = errors.New("region not found")
	ErrAmbiguousRegion = errors.New("region not uniquely resolvable")
)
