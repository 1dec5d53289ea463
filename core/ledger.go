package core

import (
	"fmt"
	"sync"
	"time"
)

// AuctionLedger owns the state of a single auction round and enforces its
// bidding and finalization rules.
//
// All operations run under one mutex so that every call is observed as atomic.
// No operation blocks beyond that lock; deadline handling is a comparison
// against Clock.Now() taken inside the critical section.
type AuctionLedger struct {
	clock Clock

	mu            sync.Mutex
	deadline      time.Time
	highestBid    uint64
	highestBidder *Address
	finalized     bool
}

// NewAuctionLedger creates an open ledger that accepts bids until deadline.
// A nil clock uses SystemClock.
func NewAuctionLedger(clock Clock, deadline time.Time) *AuctionLedger {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AuctionLedger{
		clock:    clock,
		deadline: deadline,
	}
}

// NewAuctionLedgerWithDuration creates a ledger whose deadline is d after the clock's current time.
func NewAuctionLedgerWithDuration(clock Clock, d time.Duration) *AuctionLedger {
	if clock == nil {
		clock = SystemClock{}
	}
	return NewAuctionLedger(clock, clock.Now().Add(d))
}

// SubmitBid records a bid from bidder.
//
// Bids at or after the deadline, and bids after finalization, fail with
// ErrRejectedBid and leave the ledger untouched. Otherwise the bid is accepted
// and becomes the leader only if amount is strictly greater than the current
// highest bid, so ties go to the earlier bidder.
func (l *AuctionLedger) SubmitBid(bidder Address, amount uint64) (Bid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	bid := Bid{
		Bidder:      bidder,
		Amount:      amount,
		SubmittedAt: now,
	}

	if l.finalized {
		return bid, fmt.Errorf("%w: auction is finalized", ErrRejectedBid)
	}
	if !now.Before(l.deadline) {
		return bid, fmt.Errorf("%w: submitted at %s, deadline was %s",
			ErrRejectedBid, now.Format(time.RFC3339), l.deadline.Format(time.RFC3339))
	}

	if amount > l.highestBid {
		leader := bidder
		l.highestBid = amount
		l.highestBidder = &leader
		bid.Leading = true
	}

	return bid, nil
}

// CalculateWinner closes the auction once the deadline has passed.
// The winner has already been tracked by SubmitBid; this only locks it in.
// Calling it again after success is a no-op.
func (l *AuctionLedger) CalculateWinner() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Before(l.deadline) {
		return fmt.Errorf("%w: deadline is %s, now is %s",
			ErrNotYetEnded, l.deadline.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	l.finalized = true
	return nil
}

// WinningAddress returns the current highest bidder, or ZeroAddress when no bid has been accepted.
// The value is frozen once the auction is finalized.
func (l *AuctionLedger) WinningAddress() Address {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.highestBidder == nil {
		return ZeroAddress
	}
	return *l.highestBidder
}

// Deadline returns the fixed deadline of the auction
func (l *AuctionLedger) Deadline() time.Time {
	// deadline is immutable after construction
	return l.deadline
}

// Snapshot returns a copy of the ledger's state
func (l *AuctionLedger) Snapshot() AuctionState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := AuctionState{
		Deadline:   l.deadline,
		HighestBid: l.highestBid,
		Finalized:  l.finalized,
	}
	if l.highestBidder != nil {
		leader := *l.highestBidder
		state.HighestBidder = &leader
	}
	return state
}
