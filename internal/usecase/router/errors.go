package router

import "errors"

var (
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrAgentPanic     = errors.New("agent panicked")
	ErrNoClassifier   = errors.New("no classifier configured")
	ErrMalformedReply = errors.New("malformed classifier reply")
	ErrInvalidRule    = errors.New("invalid routing rule")
)
