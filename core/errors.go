package core

import (
	"errors"
	"fmt"
)

// Programmer-error sentinels (spec §7). These are asserted against, never
// recovered from — a caller hitting one has violated a documented
// invariant of a slab, pool, or phase.
var (
	// ErrStaleHandle is returned when a slab key's generation no longer
	// matches the slot's current generation.
	ErrStaleHandle = errors.New("corepipeline: stale handle")

	// ErrPoolExhausted is returned when a descriptor-set pool (or any
	// other bounded pool) hit its configured maximum.
	ErrPoolExhausted = errors.New("corepipeline: pool exhausted")

	// ErrInvalidPhaseUsage is returned when a feature callback is invoked
	// outside of the phase it belongs to.
	ErrInvalidPhaseUsage = errors.New("corepipeline: invalid phase usage")

	// ErrNotImplemented marks a design-level-only surface (the render
	// graph companion) that intentionally has no driver behind it yet.
	ErrNotImplemented = errors.New("corepipeline: not implemented")
)

// ResourceCreateFailedError wraps a backend creation failure (out of
// memory, invalid combination of parameters, ...). It always propagates to
// the caller of get_or_insert — unlike phase or asset errors it is never
// swallowed locally.
type ResourceCreateFailedError struct {
	Kind string
	Err  error
}

func (e *ResourceCreateFailedError) Error() string {
	return fmt.Sprintf("corepipeline: failed to create %s: %v", e.Kind, e.Err)
}

func (e *ResourceCreateFailedError) Unwrap() error { return e.Err }

// DeviceLostError signals a lost GPU device. It is fatal to the frame that
// observed it; the driver is expected to re-initialize the device before
// attempting the next frame.
type DeviceLostError struct {
	Reason string
}

func (e *DeviceLostError) Error() string {
	return fmt.Sprintf("corepipeline: device lost: %s", e.Reason)
}

// FeatureFailureError wraps an error returned from a feature's phase
// callback. The driver logs it and skips the remainder of that feature's
// work for the current phase; other features continue unaffected.
type FeatureFailureError struct {
	Feature string
	Phase   string
	Err     error
}

func (e *FeatureFailureError) Error() string {
	return fmt.Sprintf("corepipeline: feature %q failed during %s: %v", e.Feature, e.Phase, e.Err)
}

func (e *FeatureFailureError) Unwrap() error { return e.Err }
