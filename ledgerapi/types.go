package ledgerapi

import (
	"time"

	"github.com/cloudx-io/openledger/core"
)

// Request types understood by ledgerd
const (
	RequestTypePing            = "ping"
	RequestTypeKey             = "key_request"
	RequestTypeSubmitBid       = "submit_bid"
	RequestTypeCalculateWinner = "calculate_winner"
	RequestTypeWinningAddress  = "winning_address"
	RequestTypeAuctionState    = "auction_state"
)

// Error codes carried in failed responses
const (
	ErrorCodeRejectedBid    = "rejected_bid"
	ErrorCodeNotYetEnded    = "not_yet_ended"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInternal       = "internal"
)

// BaseRequest is decoded first to route a request by type
type BaseRequest struct {
	Type string `json:"type"`
}

// SubmitBidRequest carries a single bid.
// Amount is a decimal string so that values beyond float64 precision survive JSON.
type SubmitBidRequest struct {
	Type   string `json:"type"`
	Bidder string `json:"bidder"`
	Amount string `json:"amount"`
}

// SubmitBidResponse acknowledges a bid. On success BidHash can later be
// recomputed from the bid and the nonce published in the winner receipt.
type SubmitBidResponse struct {
	Type        string    `json:"type"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	ErrorCode   string    `json:"error_code,omitempty"`
	BidID       string    `json:"bid_id,omitempty"`
	BidHash     string    `json:"bid_hash,omitempty"`
	Leading     bool      `json:"leading"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CalculateWinnerResponse is returned by a finalization attempt
type CalculateWinnerResponse struct {
	Type                  string                `json:"type"`
	Success               bool                  `json:"success"`
	Message               string                `json:"message"`
	ErrorCode             string                `json:"error_code,omitempty"`
	WinningAddress        string                `json:"winning_address,omitempty"`
	ReceiptCOSEBase64     ReceiptCOSEBase64     `json:"receipt_cose_base64,omitempty"`
	AttestationCOSEBase64 AttestationCOSEBase64 `json:"attestation_cose_base64,omitempty"` // Only present inside a Nitro enclave
}

// WinningAddressResponse reports the current winner, or the zero address if there is none
type WinningAddressResponse struct {
	Type           string `json:"type"`
	WinningAddress string `json:"winning_address"`
	Finalized      bool   `json:"finalized"`
}

// AuctionStateResponse exposes the full state record
type AuctionStateResponse struct {
	Type           string             `json:"type"`
	AuctionID      string             `json:"auction_id"`
	Status         core.AuctionStatus `json:"status"`
	Deadline       time.Time          `json:"deadline"`
	HighestBid     string             `json:"highest_bid"`
	WinningAddress string             `json:"winning_address"`
	Finalized      bool               `json:"finalized"`
}

// KeyResponse returns the PEM public key that verifies winner receipts
type KeyResponse struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id"`
	PublicKey string `json:"public_key"` // PEM format
	Algorithm string `json:"algorithm"`  // COSE algorithm name, e.g. "ES256"
}

// ErrorResponse is returned for requests that could not be routed or decoded
type ErrorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// WinnerReceipt is the signed statement produced when an auction is finalized.
// It is CBOR-encoded and wrapped in a COSE_Sign1 envelope.
type WinnerReceipt struct {
	AuctionID      string `cbor:"auction_id" json:"auction_id"`
	Deadline       int64  `cbor:"deadline" json:"deadline"`       // Unix seconds
	WinningAddress string `cbor:"winner" json:"winning_address"`  // 0x-prefixed hex, zero address if no bids
	HighestBid     uint64 `cbor:"highest_bid" json:"highest_bid"` // 0 if no bids
	IssuedAt       int64  `cbor:"issued_at" json:"issued_at"`     // Unix seconds, time the receipt was signed
	BidHashNonce   string `cbor:"bid_hash_nonce" json:"bid_hash_nonce"`
}

// ReceiptAttestationUserData is embedded in a Nitro attestation of a receipt
type ReceiptAttestationUserData struct {
	AuctionID     string `json:"auction_id"`
	ReceiptDigest string `json:"receipt_digest"` // SHA256 of the CBOR receipt payload
}
