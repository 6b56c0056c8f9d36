package jhu

import "errors"

// Sentinel kinds for acquisition errors.
var (
	ErrBadDateHeader = errors.New("date header does not parse")
	ErrBadTimestamp  = errors.New("timestamp does not parse")
	ErrNaiveTime     = errors.New("timestamp lacks a UTC offset")
	ErrNoCommit      = errors.New("no commit before the requested time")
)
