package chain

import "errors"

var (
	// ErrInvalidOrder is returned when a chain is constructed with an order
	// below 1.
	ErrInvalidOrder = errors.New("chain: order must be at least 1")
	// ErrInvalidWeight is returned when a training weight is not a positive
	// integer. The chain is left unmodified.
	ErrInvalidWeight = errors.New("chain: weight must be a positive integer")
	// ErrOutOfRange is returned when a token id was never allocated by the
	// interner it is resolved against.
	ErrOutOfRange = errors.New("chain: token id out of range")
	// ErrUnknownToken is returned when seed text contains a token that was
	// never seen during training.
	ErrUnknownToken = errors.New("chain: token not in vocabulary")
	// ErrOrderMismatch is returned when two chains of different orders are
	// merged.
	ErrOrderMismatch = errors.New("chain: chain orders do not match")
)
