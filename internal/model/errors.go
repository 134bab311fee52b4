package model

import "errors"

// ErrArtifactTooLarge is returned by a deliverer when the artifact exceeds
// every transfer method it has
var ErrArtifactTooLarge = errors.New("artifact too large to deliver")

// ErrInvalidTransition is returned when a job is moved along an edge the
// state machine does not have
var ErrInvalidTransition = errors.New("invalid job transition")
