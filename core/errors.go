package core

import "errors"

var (
	// ErrRejectedBid is returned when a bid arrives at or after the deadline,
	// or after the auction has been finalized. Ledger state is untouched.
	ErrRejectedBid = errors.New("bid rejected: auction has ended")

	// ErrNotYetEnded is returned when finalization is attempted before the deadline.
	ErrNotYetEnded = errors.New("auction has not yet ended")

	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid bid amount")
)
