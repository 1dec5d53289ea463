package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const auctionDuration = 30 * 24 * time.Hour

// testBidders returns n distinct, non-zero addresses
func testBidders(n int) []Address {
	bidders := make([]Address, n)
	for i := range bidders {
		bidders[i] = MustParseAddress(fmt.Sprintf("0x%040x", i+1))
	}
	return bidders
}

func newTestLedger(t *testing.T) (*AuctionLedger, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testStart)
	return NewAuctionLedgerWithDuration(clock, auctionDuration), clock
}

func assertLeaderInvariant(t *testing.T, state AuctionState) {
	t.Helper()
	check.Equal(t, state.HighestBid > 0, state.HighestBidder != nil)
}

func TestNewAuctionLedger_InitialState(t *testing.T) {
	ledger, _ := newTestLedger(t)

	state := ledger.Snapshot()
	check.Equal(t, testStart.Add(auctionDuration), state.Deadline)
	check.Equal(t, testStart.Add(auctionDuration), ledger.Deadline())
	check.Equal(t, uint64(0), state.HighestBid)
	check.Nil(t, state.HighestBidder)
	check.False(t, state.Finalized)
	check.Equal(t, StatusOpen, state.Status())
	check.Equal(t, ZeroAddress, ledger.WinningAddress())
}

func TestNewAuctionLedger_NilClockUsesSystemClock(t *testing.T) {
	ledger := NewAuctionLedgerWithDuration(nil, time.Hour)

	_, err := ledger.SubmitBid(testBidders(1)[0], 5)
	check.NoError(t, err)
	check.True(t, ledger.Deadline().After(time.Now()))
}

func TestSubmitBid_StrictlyGreaterWins(t *testing.T) {
	// Mirrors the reference scenario: the first 82 keeps the lead over the later 82
	ledger, clock := newTestLedger(t)
	bidders := testBidders(5)
	amounts := []uint64{37, 82, 15, 82, 9}
	expectedLeading := []bool{true, true, false, false, false}

	for i, amount := range amounts {
		clock.Advance(time.Minute)
		bid, err := ledger.SubmitBid(bidders[i], amount)
		assert.NoError(t, err)
		check.Equal(t, expectedLeading[i], bid.Leading)
		check.Equal(t, clock.Now(), bid.SubmittedAt)
		assertLeaderInvariant(t, ledger.Snapshot())
	}

	state := ledger.Snapshot()
	check.Equal(t, uint64(82), state.HighestBid)
	check.Equal(t, bidders[1], *state.HighestBidder)

	clock.Advance(31 * 24 * time.Hour)
	assert.NoError(t, ledger.CalculateWinner())
	check.Equal(t, bidders[1], ledger.WinningAddress())
}

func TestSubmitBid_MonotonicLeader(t *testing.T) {
	tests := []struct {
		name    string
		amounts []uint64
	}{
		{"increasing", []uint64{1, 2, 3, 4, 5}},
		{"decreasing", []uint64{50, 40, 30, 20, 10}},
		{"mixed with ties", []uint64{10, 30, 30, 20, 40, 40, 5}},
		{"all equal", []uint64{7, 7, 7, 7}},
		{"zero first", []uint64{0, 0, 3, 0}},
		{"max value", []uint64{1, ^uint64(0), 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, clock := newTestLedger(t)
			bidders := testBidders(len(tt.amounts))

			var maxAmount uint64
			var firstAtMax *Address
			for i, amount := range tt.amounts {
				clock.Advance(time.Second)
				_, err := ledger.SubmitBid(bidders[i], amount)
				assert.NoError(t, err)

				if amount > maxAmount {
					maxAmount = amount
					firstAtMax = &bidders[i]
				}

				state := ledger.Snapshot()
				check.Equal(t, maxAmount, state.HighestBid)
				if firstAtMax == nil {
					check.Nil(t, state.HighestBidder)
				} else {
					check.Equal(t, *firstAtMax, *state.HighestBidder)
				}
				assertLeaderInvariant(t, state)
			}
		})
	}
}

func TestSubmitBid_ZeroAmountNeverLeads(t *testing.T) {
	ledger, _ := newTestLedger(t)

	bid, err := ledger.SubmitBid(testBidders(1)[0], 0)
	check.NoError(t, err)
	check.False(t, bid.Leading)
	check.Equal(t, ZeroAddress, ledger.WinningAddress())
	assertLeaderInvariant(t, ledger.Snapshot())
}

func TestSubmitBid_SameBidderCanRaise(t *testing.T) {
	ledger, _ := newTestLedger(t)
	bidders := testBidders(2)

	_, err := ledger.SubmitBid(bidders[0], 10)
	assert.NoError(t, err)
	_, err = ledger.SubmitBid(bidders[1], 20)
	assert.NoError(t, err)
	_, err = ledger.SubmitBid(bidders[0], 25)
	assert.NoError(t, err)

	state := ledger.Snapshot()
	check.Equal(t, uint64(25), state.HighestBid)
	check.Equal(t, bidders[0], *state.HighestBidder)
}

func TestSubmitBid_RejectedAfterDeadline(t *testing.T) {
	// Late bid of 10000 must not displace the best pre-deadline bid
	ledger, clock := newTestLedger(t)
	bidders := testBidders(4)

	for i, amount := range []uint64{12, 64, 33} {
		_, err := ledger.SubmitBid(bidders[i+1], amount)
		assert.NoError(t, err)
	}
	before := ledger.Snapshot()

	clock.Advance(31 * 24 * time.Hour)

	bid, err := ledger.SubmitBid(bidders[0], 10000)
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrRejectedBid))
	check.False(t, bid.Leading)
	check.Equal(t, before, ledger.Snapshot())

	assert.NoError(t, ledger.CalculateWinner())
	check.Equal(t, bidders[2], ledger.WinningAddress())
}

func TestSubmitBid_RejectedAtExactDeadline(t *testing.T) {
	ledger, clock := newTestLedger(t)
	bidder := testBidders(1)[0]

	clock.Set(ledger.Deadline().Add(-time.Nanosecond))
	_, err := ledger.SubmitBid(bidder, 5)
	check.NoError(t, err)

	clock.Set(ledger.Deadline())
	_, err = ledger.SubmitBid(bidder, 500)
	check.True(t, errors.Is(err, ErrRejectedBid))
	check.Equal(t, uint64(5), ledger.Snapshot().HighestBid)
}

func TestSubmitBid_RejectedAfterFinalization(t *testing.T) {
	ledger, clock := newTestLedger(t)
	bidders := testBidders(2)

	_, err := ledger.SubmitBid(bidders[0], 40)
	assert.NoError(t, err)

	clock.Advance(auctionDuration)
	assert.NoError(t, ledger.CalculateWinner())

	_, err = ledger.SubmitBid(bidders[1], 41)
	check.True(t, errors.Is(err, ErrRejectedBid))
	check.Equal(t, bidders[0], ledger.WinningAddress())
	check.Equal(t, uint64(40), ledger.Snapshot().HighestBid)
}

func TestCalculateWinner_BeforeDeadline(t *testing.T) {
	// Finalizing right after construction fails and the sentinel winner remains
	ledger, _ := newTestLedger(t)

	err := ledger.CalculateWinner()
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrNotYetEnded))
	check.False(t, ledger.Snapshot().Finalized)
	check.Equal(t, ZeroAddress, ledger.WinningAddress())
}

func TestCalculateWinner_BeforeDeadlineWithBids(t *testing.T) {
	ledger, _ := newTestLedger(t)
	bidders := testBidders(3)

	for i, amount := range []uint64{18, 91, 44} {
		_, err := ledger.SubmitBid(bidders[i], amount)
		assert.NoError(t, err)
	}

	err := ledger.CalculateWinner()
	check.True(t, errors.Is(err, ErrNotYetEnded))

	state := ledger.Snapshot()
	check.False(t, state.Finalized)
	check.Equal(t, StatusOpen, state.Status())

	// Bidding stays open after a failed finalization
	_, err = ledger.SubmitBid(bidders[0], 92)
	check.NoError(t, err)
	check.Equal(t, bidders[0], ledger.WinningAddress())
}

func TestCalculateWinner_AtExactDeadline(t *testing.T) {
	ledger, clock := newTestLedger(t)

	clock.Set(ledger.Deadline().Add(-time.Nanosecond))
	check.True(t, errors.Is(ledger.CalculateWinner(), ErrNotYetEnded))

	clock.Set(ledger.Deadline())
	check.NoError(t, ledger.CalculateWinner())
	check.True(t, ledger.Snapshot().Finalized)
}

func TestCalculateWinner_Idempotent(t *testing.T) {
	ledger, clock := newTestLedger(t)
	bidders := testBidders(2)

	_, err := ledger.SubmitBid(bidders[0], 3)
	assert.NoError(t, err)
	_, err = ledger.SubmitBid(bidders[1], 8)
	assert.NoError(t, err)

	clock.Advance(auctionDuration + time.Hour)

	check.NoError(t, ledger.CalculateWinner())
	first := ledger.Snapshot()
	check.True(t, first.Finalized)
	check.Equal(t, StatusClosed, first.Status())

	clock.Advance(time.Hour)
	check.NoError(t, ledger.CalculateWinner())
	second := ledger.Snapshot()
	check.True(t, second.Finalized)
	check.Equal(t, first, second)
	check.Equal(t, bidders[1], ledger.WinningAddress())
}

func TestCalculateWinner_NoBids(t *testing.T) {
	ledger, clock := newTestLedger(t)

	check.Equal(t, ZeroAddress, ledger.WinningAddress())

	clock.Advance(auctionDuration)
	check.NoError(t, ledger.CalculateWinner())
	check.Equal(t, ZeroAddress, ledger.WinningAddress())
	check.Equal(t, "0x0000000000000000000000000000000000000000", ledger.WinningAddress().Hex())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ledger, _ := newTestLedger(t)
	bidders := testBidders(2)

	_, err := ledger.SubmitBid(bidders[0], 10)
	assert.NoError(t, err)

	state := ledger.Snapshot()
	*state.HighestBidder = bidders[1]

	check.Equal(t, bidders[0], ledger.WinningAddress())
}

func TestSubmitBid_Concurrent(t *testing.T) {
	ledger, _ := newTestLedger(t)
	bidders := testBidders(64)

	var wg sync.WaitGroup
	for i, bidder := range bidders {
		wg.Add(1)
		go func(bidder Address, amount uint64) {
			defer wg.Done()
			_, _ = ledger.SubmitBid(bidder, amount)
		}(bidder, uint64(i+1))
	}
	wg.Wait()

	state := ledger.Snapshot()
	check.Equal(t, uint64(len(bidders)), state.HighestBid)
	check.Equal(t, bidders[len(bidders)-1], *state.HighestBidder)
	assertLeaderInvariant(t, state)
}
