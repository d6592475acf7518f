package chem

import "errors"

// Engine error categories. Every one of them is recovered locally by
// the tick path; command paths surface them to the caller. The worst
// outcome of any of these is "no observable change this tick".
var (
	// ErrUnknownElement marks an atom whose proton count has no
	// catalog entry; such atoms never bond.
	ErrUnknownElement = errors.New("element not in catalog")

	// ErrValenceExceeded marks a bond request against an atom already
	// at its element's max bond count.
	ErrValenceExceeded = errors.New("atom is at its maximum bond count")

	// ErrDuplicateBond marks a re-request of an existing bond.
	// Callers creating bonds treat it as an idempotent no-op.
	ErrDuplicateBond = errors.New("bond already exists for this pair")

	// ErrInsufficientEnergy marks a bond or reaction whose activation
	// cost exceeds the current system energy.
	ErrInsufficientEnergy = errors.New("system energy below activation energy")

	// ErrStaleReference marks an operation referencing an atom, bond
	// or molecule that no longer exists.
	ErrStaleReference = errors.New("referenced entity no longer exists")

	// ErrReactionInFlight marks a reaction request while another
	// complex reaction holds the lock; retried naturally next tick.
	ErrReactionInFlight = errors.New("a reaction is already in flight")
)
