package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/veraison/go-cose"
)

// receiptAlgorithm is the COSE algorithm used to sign winner receipts
const receiptAlgorithm = cose.AlgorithmES256

// KeyManager holds the ledger's receipt signing key
type KeyManager struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
	signer     cose.Signer
}

// NewKeyManager creates a new KeyManager with a fresh P-256 key pair
func NewKeyManager() (*KeyManager, error) {
	// In a TEE environment, crypto/rand uses NSM-enhanced entropy
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key pair: %w", err)
	}

	signer, err := cose.NewSigner(receiptAlgorithm, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}

	return &KeyManager{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		signer:     signer,
	}, nil
}

// PublicKeyPEM returns the public key in PEM format
func (km *KeyManager) PublicKeyPEM() (string, error) {
	// Marshal public key to PKIX format
	derBytes, err := x509.MarshalPKIXPublicKey(km.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// Sign wraps payload in a COSE_Sign1 envelope signed with the ledger key
func (km *KeyManager) Sign(payload []byte) ([]byte, error) {
	headers := cose.Headers{
		Protected: cose.ProtectedHeader{
			cose.HeaderLabelAlgorithm: receiptAlgorithm,
		},
	}

	signed, err := cose.Sign1(rand.Reader, km.signer, headers, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sign COSE message: %w", err)
	}
	return signed, nil
}
