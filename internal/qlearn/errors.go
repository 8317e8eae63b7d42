package qlearn

import "errors"

var (
	// ErrNoCandidates is returned when selection is asked to choose from nothing.
	ErrNoCandidates = errors.New("no candidate content")

	// ErrActionOverflow is returned when a content id cannot be projected
	// onto the action space.
	ErrActionOverflow = errors.New("action space overflow")

	// ErrInvalidState is returned for buckets outside [0, NumStates).
	ErrInvalidState = errors.New("invalid state bucket")

	// ErrInvalidReward is returned for NaN or infinite rewards.
	ErrInvalidReward = errors.New("invalid reward")

	// ErrIncompatibleSnapshot is returned when importing a snapshot written
	// by an incompatible format version or action space.
	ErrIncompatibleSnapshot = errors.New("incompatible Q-table snapshot")
)
