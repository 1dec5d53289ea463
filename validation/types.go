package validation

import "github.com/cloudx-io/openledger/ledgerapi"

// ReceiptValidationInput contains all inputs needed for winner receipt validation
type ReceiptValidationInput struct {
	Receipt      ledgerapi.ReceiptCOSEBase64
	PublicKeyPEM string // From KeyResponse.PublicKey

	// Optional expectations; empty values are not checked
	ExpectedAuctionID string
	ExpectedWinner    string // 0x-prefixed hex; use the zero address to expect no winner

	// Optional bid inclusion check against the hash returned on submission
	Bid *BidCheck

	// Optional Nitro attestation over the receipt digest
	Attestation ledgerapi.AttestationCOSEBase64
	KnownPCRs   []PCRSet
}

// BidCheck identifies a bid the caller submitted and the hash the ledger returned for it
type BidCheck struct {
	BidID   string
	Bidder  string
	Amount  string
	BidHash string
}

// ReceiptValidationResult contains the outcome of each check
type ReceiptValidationResult struct {
	SignatureValid   bool
	AuctionIDValid   bool
	WinnerValid      bool
	BidHashValid     bool
	AttestationValid bool

	// Checks that were requested
	checkedBidHash     bool
	checkedAttestation bool

	Receipt           *ledgerapi.WinnerReceipt
	ValidationDetails []string
}

// IsValid returns true if every requested check passed
func (r *ReceiptValidationResult) IsValid() bool {
	valid := r.SignatureValid && r.AuctionIDValid && r.WinnerValid
	if r.checkedBidHash {
		valid = valid && r.BidHashValid
	}
	if r.checkedAttestation {
		valid = valid && r.AttestationValid
	}
	return valid
}

// PCRSet represents a known-good set of PCR measurements
type PCRSet struct {
	PCR0       string `json:"pcr0"`
	PCR1       string `json:"pcr1"`
	PCR2       string `json:"pcr2"`
	CommitHash string `json:"commit_hash"` // repo commit used to build the enclave image
}

// PCRConfig represents the PCR configuration file structure
type PCRConfig struct {
	PCRSets []PCRSet `json:"pcr_sets"`
}
