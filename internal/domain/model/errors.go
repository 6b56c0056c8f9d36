package model

import "errors"

// Sentinel kinds for caller-supplied names.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownLevel  = errors.New("unknown level")
)
