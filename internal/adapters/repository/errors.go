package repository

import "errors"

// Sentinel kinds for region store errors.
var (
	ErrUnknownEventKind = errors.New("unknown outcome event kind")
	ErrEmptyRegion      = errors.New("event missing region")
)
