package rooms

import "errors"

// Sentinel kinds for room selection errors.
var (
	// ErrNoEligibleRoom means every listed room was full or unaffordable.
	// Not fatal: the caller retries on the next lobby poll.
	ErrNoEligibleRoom = errors.New("no eligible room")
)
