package domain

import "errors"

var (
	// ErrLookup means the object to count could not be understood.
	ErrLookup = errors.New("object name not understood")

	// ErrConnection means the recognition server stayed unreachable after all retries.
	ErrConnection = errors.New("recognition server unreachable")

	// ErrNoIntent means the utterance is not a count command.
	ErrNoIntent = errors.New("utterance does not match the count intent")

	// ErrSentinel is returned when a sentinel reply reaches the interpreter.
	ErrSentinel = errors.New("sentinel reply has no counts to interpret")
)
