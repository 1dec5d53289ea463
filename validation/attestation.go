package validation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
	"github.com/cloudx-io/openledger/ledgerapi/parsing"
)

// LoadPCRsFromFile loads known PCR sets from a JSON file
func LoadPCRsFromFile(path string) ([]PCRSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCR config file: %w", err)
	}

	var config PCRConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse PCR config: %w", err)
	}

	if len(config.PCRSets) == 0 {
		return nil, fmt.Errorf("no PCR sets found in config file")
	}

	return config.PCRSets, nil
}

// ValidatePCRs checks if PCRs match any known valid set
// Returns: (match bool, matched set index)
// If no match, returns (false, -1)
func ValidatePCRs(pcrs map[uint64][]byte, knownSets []PCRSet) (bool, int) {
	pcr0 := parsing.FormatPCR(pcrs[0])
	pcr1 := parsing.FormatPCR(pcrs[1])
	pcr2 := parsing.FormatPCR(pcrs[2])

	for i, knownSet := range knownSets {
		if pcr0 == knownSet.PCR0 && pcr1 == knownSet.PCR1 && pcr2 == knownSet.PCR2 {
			return true, i
		}
	}
	return false, -1
}

// validateReceiptAttestation checks that the attestation user data commits to this receipt.
// PCRs are only checked when known sets are supplied. The NSM certificate chain is not verified here.
func validateReceiptAttestation(input *ReceiptValidationInput, receipt *ledgerapi.WinnerReceipt, receiptPayload []byte, result *ReceiptValidationResult) bool {
	attestation, err := input.Attestation.Decode()
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation invalid: %v", err))
		return false
	}

	doc, err := parsing.ParseNitroAttestation(attestation)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation invalid: %v", err))
		return false
	}

	userData, err := parsing.ParseReceiptUserData(doc)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation invalid: %v", err))
		return false
	}

	valid := true

	digest := core.ComputeReceiptDigest(receiptPayload)
	if userData.ReceiptDigest == digest && userData.AuctionID == receipt.AuctionID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation covers receipt digest %s", digest))
	} else {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation does not cover this receipt: attested %s/%s, receipt %s/%s",
			userData.AuctionID, userData.ReceiptDigest, receipt.AuctionID, digest))
		valid = false
	}

	if len(input.KnownPCRs) > 0 {
		pcrMatch, matchedSet := ValidatePCRs(doc.PCRs, input.KnownPCRs)
		if pcrMatch {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Matched PCR set: #%d (commit: %s)",
				matchedSet, input.KnownPCRs[matchedSet].CommitHash))
		} else {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("PCR0: %s (no match)", parsing.FormatPCR(doc.PCRs[0])))
			valid = false
		}
	}

	return valid
}
