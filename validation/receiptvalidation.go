package validation

import (
	"fmt"
	"strings"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
)

// ValidateWinnerReceipt validates a signed winner receipt and verifies:
// - The receipt was signed by the ledger key
// - Auction ID matches (if expected)
// - Winner matches (if expected)
// - A submitted bid hash can be recomputed with the published nonce (if provided)
// - A Nitro attestation covers this exact receipt (if provided)
//
// Returns:
//   - ReceiptValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input)
func ValidateWinnerReceipt(input *ReceiptValidationInput) (*ReceiptValidationResult, error) {
	if input == nil {
		return nil, fmt.Errorf("validation input is nil")
	}

	receiptCOSE, err := input.Receipt.Decode()
	if err != nil {
		return nil, err
	}

	result := &ReceiptValidationResult{
		ValidationDetails: []string{},
	}

	payload, err := VerifyCOSESignature(receiptCOSE, input.PublicKeyPEM)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signature invalid: %v", err))
		return result, nil
	}
	result.SignatureValid = true
	result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")

	receipt, err := ledgerapi.UnmarshalReceipt(payload)
	if err != nil {
		return nil, fmt.Errorf("signed payload is not a winner receipt: %w", err)
	}
	result.Receipt = receipt

	result.AuctionIDValid = validateAuctionID(input, receipt, result)
	result.WinnerValid = validateWinner(input, receipt, result)

	if input.Bid != nil {
		result.checkedBidHash = true
		result.BidHashValid = validateBidHash(input.Bid, receipt, result)
	}

	if input.Attestation != "" {
		result.checkedAttestation = true
		result.AttestationValid = validateReceiptAttestation(input, receipt, payload, result)
	}

	return result, nil
}

func validateAuctionID(input *ReceiptValidationInput, receipt *ledgerapi.WinnerReceipt, result *ReceiptValidationResult) bool {
	if input.ExpectedAuctionID == "" {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Auction ID: %s (not checked)", receipt.AuctionID))
		return true
	}

	if input.ExpectedAuctionID == receipt.AuctionID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Auction ID matches: %s", receipt.AuctionID))
		return true
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Auction ID mismatch: expected %s, receipt has %s", input.ExpectedAuctionID, receipt.AuctionID))
	return false
}

func validateWinner(input *ReceiptValidationInput, receipt *ledgerapi.WinnerReceipt, result *ReceiptValidationResult) bool {
	receiptWinner, err := core.ParseAddress(receipt.WinningAddress)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt winner is malformed: %v", err))
		return false
	}

	// The zero address must only appear together with a zero highest bid
	if receiptWinner.IsZero() != (receipt.HighestBid == 0) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt is inconsistent: winner %s with highest bid %d", receiptWinner, receipt.HighestBid))
		return false
	}

	if input.ExpectedWinner == "" {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner: %s with %d (not checked)", receiptWinner, receipt.HighestBid))
		return true
	}

	expected, err := core.ParseAddress(input.ExpectedWinner)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Expected winner is malformed: %v", err))
		return false
	}

	if expected == receiptWinner {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner matches: %s with %d", receiptWinner, receipt.HighestBid))
		return true
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner mismatch: expected %s, receipt has %s", expected, receiptWinner))
	return false
}

func validateBidHash(bid *BidCheck, receipt *ledgerapi.WinnerReceipt, result *ReceiptValidationResult) bool {
	if receipt.BidHashNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Bid hash nonce missing from receipt")
		return false
	}

	bidder, err := core.ParseAddress(bid.Bidder)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid check bidder is malformed: %v", err))
		return false
	}

	amount, err := core.ParseAmount(bid.Amount)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid check amount is malformed: %v", err))
		return false
	}

	computedHash := core.ComputeBidHash(bid.BidID, bidder, amount, receipt.BidHashNonce)
	if strings.EqualFold(computedHash, bid.BidHash) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid hash matches: %s", computedHash))
		return true
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid hash mismatch: computed %s, ledger returned %s", computedHash, bid.BidHash))
	return false
}
