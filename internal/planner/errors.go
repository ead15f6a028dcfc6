package planner

import "errors"

var (
	// ErrMalformedOutput marks a role reply that could not be parsed. Roles turn it
	// into sentinel results; it never reaches the loop.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrNoPlan is returned when every attempt failed to produce a plan.
	ErrNoPlan = errors.New("failed to generate a plan after all attempts")

	// ErrAborted is returned when the human reviewer abandons the run.
	ErrAborted = errors.New("planning aborted by user")
)
