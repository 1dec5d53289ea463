package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
)

// LedgerService translates API requests into ledger operations.
// It is shared by the vsock server and the HTTP bridge.
type LedgerService struct {
	auctionID    string
	ledger       *core.AuctionLedger
	clock        core.Clock
	keyManager   *KeyManager
	attester     EnclaveAttester // nil outside a Nitro enclave
	bidHashNonce string
}

// NewLedgerService wraps ledger with a fresh auction ID and bid hash nonce
func NewLedgerService(ledger *core.AuctionLedger, clock core.Clock, keyManager *KeyManager, attester EnclaveAttester) (*LedgerService, error) {
	if clock == nil {
		clock = core.SystemClock{}
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bid hash nonce: %w", err)
	}

	return &LedgerService{
		auctionID:    uuid.NewString(),
		ledger:       ledger,
		clock:        clock,
		keyManager:   keyManager,
		attester:     attester,
		bidHashNonce: nonce,
	}, nil
}

// AuctionID returns the identifier of the auction served by this instance
func (s *LedgerService) AuctionID() string {
	return s.auctionID
}

// HandleSubmitBid validates and submits a bid
func (s *LedgerService) HandleSubmitBid(req ledgerapi.SubmitBidRequest) ledgerapi.SubmitBidResponse {
	resp := ledgerapi.SubmitBidResponse{Type: "submit_bid_response"}

	bidder, err := core.ParseAddress(req.Bidder)
	if err != nil {
		resp.Message = fmt.Sprintf("Invalid bidder: %v", err)
		resp.ErrorCode = ledgerapi.ErrorCodeInvalidRequest
		return resp
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		resp.Message = fmt.Sprintf("Invalid amount: %v", err)
		resp.ErrorCode = ledgerapi.ErrorCodeInvalidRequest
		return resp
	}

	bid, err := s.ledger.SubmitBid(bidder, amount)
	resp.SubmittedAt = bid.SubmittedAt.UTC()
	if err != nil {
		log.Printf("INFO: Bid from %s rejected: %v", bidder, err)
		resp.Message = err.Error()
		resp.ErrorCode = errorCode(err)
		return resp
	}

	bidID := uuid.NewString()
	resp.Success = true
	resp.BidID = bidID
	resp.BidHash = core.ComputeBidHash(bidID, bidder, amount, s.bidHashNonce)
	resp.Leading = bid.Leading
	if bid.Leading {
		resp.Message = fmt.Sprintf("Bid %s accepted and is leading", bidID)
	} else {
		resp.Message = fmt.Sprintf("Bid %s accepted", bidID)
	}

	log.Printf("INFO: Bid %s from %s accepted: amount=%d, leading=%t", bidID, bidder, amount, bid.Leading)
	return resp
}

// HandleCalculateWinner finalizes the auction and returns a signed winner receipt
func (s *LedgerService) HandleCalculateWinner() ledgerapi.CalculateWinnerResponse {
	resp := ledgerapi.CalculateWinnerResponse{Type: "calculate_winner_response"}

	if err := s.ledger.CalculateWinner(); err != nil {
		log.Printf("INFO: Finalization of auction %s refused: %v", s.auctionID, err)
		resp.Message = err.Error()
		resp.ErrorCode = errorCode(err)
		return resp
	}

	// State is frozen after a successful CalculateWinner
	state := s.ledger.Snapshot()
	winner := state.WinningAddress()
	resp.WinningAddress = winner.Hex()

	receipt := &ledgerapi.WinnerReceipt{
		AuctionID:      s.auctionID,
		Deadline:       state.Deadline.Unix(),
		WinningAddress: winner.Hex(),
		HighestBid:     state.HighestBid,
		IssuedAt:       s.clock.Now().Unix(),
		BidHashNonce:   s.bidHashNonce,
	}

	signed, payload, err := GenerateWinnerReceipt(s.keyManager, receipt)
	if err != nil {
		log.Printf("ERROR: Failed to generate winner receipt: %v", err)
		resp.Message = fmt.Sprintf("Auction finalized but receipt generation failed: %v", err)
		resp.ErrorCode = ledgerapi.ErrorCodeInternal
		return resp
	}
	resp.ReceiptCOSEBase64 = signed.EncodeBase64()

	if s.attester != nil {
		attestation, err := GenerateReceiptAttestation(s.attester, s.auctionID, payload)
		if err != nil {
			log.Printf("WARNING: Receipt attestation unavailable: %v", err)
		} else {
			resp.AttestationCOSEBase64 = attestation.EncodeBase64()
		}
	}

	resp.Success = true
	resp.Message = fmt.Sprintf("Auction %s finalized", s.auctionID)
	log.Printf("INFO: Auction %s finalized: winner=%s, highest_bid=%d", s.auctionID, winner, state.HighestBid)
	return resp
}

// HandleWinningAddress reports the current winner without changing state
func (s *LedgerService) HandleWinningAddress() ledgerapi.WinningAddressResponse {
	state := s.ledger.Snapshot()
	return ledgerapi.WinningAddressResponse{
		Type:           "winning_address_response",
		WinningAddress: state.WinningAddress().Hex(),
		Finalized:      state.Finalized,
	}
}

// HandleAuctionState reports the full state record
func (s *LedgerService) HandleAuctionState() ledgerapi.AuctionStateResponse {
	state := s.ledger.Snapshot()
	return ledgerapi.AuctionStateResponse{
		Type:           "auction_state_response",
		AuctionID:      s.auctionID,
		Status:         state.Status(),
		Deadline:       state.Deadline.UTC(),
		HighestBid:     core.FormatAmount(state.HighestBid),
		WinningAddress: state.WinningAddress().Hex(),
		Finalized:      state.Finalized,
	}
}

// HandleKeyRequest returns the public key that verifies winner receipts
func (s *LedgerService) HandleKeyRequest() (*ledgerapi.KeyResponse, error) {
	if s.keyManager == nil {
		return nil, fmt.Errorf("key manager is nil")
	}

	publicKeyPEM, err := s.keyManager.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}

	return &ledgerapi.KeyResponse{
		Type:      "key_response",
		AuctionID: s.auctionID,
		PublicKey: publicKeyPEM,
		Algorithm: receiptAlgorithm.String(),
	}, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrRejectedBid):
		return ledgerapi.ErrorCodeRejectedBid
	case errors.Is(err, core.ErrNotYetEnded):
		return ledgerapi.ErrorCodeNotYetEnded
	case errors.Is(err, core.ErrInvalidAddress), errors.Is(err, core.ErrInvalidAmount):
		return ledgerapi.ErrorCodeInvalidRequest
	default:
		return ledgerapi.ErrorCodeInternal
	}
}
