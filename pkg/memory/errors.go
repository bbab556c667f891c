package memory

import "errors"

// Predefined errors for the memory core.
var (
	// ErrInvalidArgument indicates a caller contract violation, e.g. a
	// non-positive importance or an unknown event kind.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence indicates a save or load against the backing store
	// failed. The in-memory registry is left untouched.
	ErrPersistence = errors.New("persistence failure")
)
