package core

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AddressLength is the number of bytes in an Address
const AddressLength = 20

// Address identifies a bidder. The core never validates or authenticates it.
type Address [AddressLength]byte

// ZeroAddress is the sentinel "no winner" identity.
var ZeroAddress Address

// ParseAddress parses a 40 hex digit address, with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	var addr Address

	raw := strings.TrimSpace(s)
	if len(raw) >= 2 && (raw[:2] == "0x" || raw[:2] == "0X") {
		raw = raw[2:]
	}
	if len(raw) != hex.EncodedLen(AddressLength) {
		return addr, fmt.Errorf("%w: %q must be %d hex digits", ErrInvalidAddress, s, hex.EncodedLen(AddressLength))
	}

	if _, err := hex.Decode(addr[:], []byte(raw)); err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}

	return addr, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Hex returns the lowercase 0x-prefixed form of the address
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether a is the sentinel address
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Bid is a single submission. Bids are returned to the submitter and never retained by the ledger.
type Bid struct {
	Bidder      Address   `json:"bidder"`
	Amount      uint64    `json:"amount"`
	SubmittedAt time.Time `json:"submitted_at"`

	// Leading is true when this bid became the highest bid
	Leading bool `json:"leading"`
}

// AuctionStatus is the lifecycle state of a ledger.
type AuctionStatus string

const (
	StatusOpen   AuctionStatus = "open"
	StatusClosed AuctionStatus = "closed"
)

// AuctionState is a point-in-time copy of the ledger's state record.
type AuctionState struct {
	Deadline   time.Time `json:"deadline"`
	HighestBid uint64    `json:"highest_bid"`

	// HighestBidder is nil until a bid with a positive amount has been accepted
	HighestBidder *Address `json:"highest_bidder,omitempty"`

	Finalized bool `json:"finalized"`
}

// Status returns StatusClosed once the auction has been finalized.
// An auction past its deadline that nobody has finalized is still open.
func (s AuctionState) Status() AuctionStatus {
	if s.Finalized {
		return StatusClosed
	}
	return StatusOpen
}

// WinningAddress returns the highest bidder, or ZeroAddress if there is none.
func (s AuctionState) WinningAddress() Address {
	if s.HighestBidder == nil {
		return ZeroAddress
	}
	return *s.HighestBidder
}
