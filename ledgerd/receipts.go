package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
)

// EnclaveAttester interface for dependency injection and testing
type EnclaveAttester interface {
	Attest(options enclave.AttestationOptions) ([]byte, error)
}

// getEnclaveAttester attempts to get the NSM attester, returns error if not available
func getEnclaveAttester() (EnclaveAttester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

// generateSecureRandomBytes generates cryptographically secure random bytes
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateWinnerReceipt encodes receipt as CBOR and signs it.
// Returns the COSE_Sign1 bytes and the CBOR payload that was signed.
func GenerateWinnerReceipt(keyManager *KeyManager, receipt *ledgerapi.WinnerReceipt) (ledgerapi.ReceiptCOSE, []byte, error) {
	if keyManager == nil {
		return nil, nil, fmt.Errorf("key manager is nil")
	}

	payload, err := ledgerapi.MarshalReceipt(receipt)
	if err != nil {
		return nil, nil, err
	}

	signed, err := keyManager.Sign(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign winner receipt: %w", err)
	}

	log.Printf("INFO: Winner receipt signed for auction %s: %d bytes", receipt.AuctionID, len(signed))

	return ledgerapi.ReceiptCOSE(signed), payload, nil
}

// GenerateReceiptAttestation asks the NSM to attest the digest of a signed receipt payload
func GenerateReceiptAttestation(attester EnclaveAttester, auctionID string, receiptPayload []byte) (ledgerapi.AttestationCOSE, error) {
	if attester == nil {
		return nil, fmt.Errorf("enclave attester is nil")
	}

	userData := &ledgerapi.ReceiptAttestationUserData{
		AuctionID:     auctionID,
		ReceiptDigest: core.ComputeReceiptDigest(receiptPayload),
	}

	userDataBytes, err := json.Marshal(userData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user data: %w", err)
	}

	randomNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation nonce: %w", err)
	}

	attestationCBOR, err := attester.Attest(enclave.AttestationOptions{
		UserData: userDataBytes,
		Nonce:    []byte(randomNonce),
	})
	if err != nil {
		log.Printf("ERROR: NSM attestation failed: %v", err)
		return nil, fmt.Errorf("NSM attestation failed: %w", err)
	}

	log.Printf("INFO: NSM receipt attestation generated: %d bytes", len(attestationCBOR))

	return ledgerapi.AttestationCOSE(attestationCBOR), nil
}
