package gameapi

import "fmt"

// The client classifies failures into three kinds the loop treats
// differently: transport (skip tick), parse (skip tick, log), auth
// (fatal, stop the loop).

// TransportError wraps network, timeout and 5xx failures. Recoverable:
// the tick is skipped and the next poll proceeds.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError wraps malformed or incomplete payloads. Recoverable, but
// the snapshot is unusable: acting on partial data risks invalid actions.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError marks 401/403 responses. Fatal: retrying an invalid
// credential forever helps nobody, so the loop stops and surfaces it.
type AuthError struct {
	Op     string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error on %s: HTTP %d", e.Op, e.Status)
}
