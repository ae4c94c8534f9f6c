package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBagFull is returned when an add would push a bag past MaxBagSize.
	ErrBagFull = errors.New("bag is full")
	// ErrAlreadyInBag is returned when the disc is already part of the bag.
	ErrAlreadyInBag = errors.New("disc already in bag")
	// ErrNotInBag is returned when removing a disc that has no bag entry.
	ErrNotInBag = errors.New("disc not in bag")
	// ErrDiscNotFound is returned when an id has no match in the loaded catalog.
	ErrDiscNotFound = errors.New("disc not found in catalog")
	// ErrNoIdentity is returned when an operation needs a signed-in user and none is resolved.
	ErrNoIdentity = errors.New("no user identity")
	// ErrAnalysisInProgress is returned when a recommendation run is already in flight.
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrEngineUnavailable is returned when no recommendation engine is configured.
	ErrEngineUnavailable = errors.New("recommendation engine unavailable")
)

// EngineError wraps a transport or engine-reported failure of the recommendation engine.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("recommendation engine failed: %v", e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }

// ParseError reports engine output that does not honour the expected contract
// (no JSON array, malformed JSON, wrong element shape).
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparsable recommendation output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unparsable recommendation output: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
