package parsing

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/openledger/ledgerapi"
)

// NitroAttestationDocument represents the raw CBOR structure from AWS Nitro Enclaves
type NitroAttestationDocument struct {
	ModuleID    string            `cbor:"module_id"`
	Digest      string            `cbor:"digest"`
	Timestamp   uint64            `cbor:"timestamp"`
	PCRs        map[uint64][]byte `cbor:"pcrs"`
	Certificate []byte            `cbor:"certificate"`
	CABundle    [][]byte          `cbor:"cabundle"`
	PublicKey   []byte            `cbor:"public_key"`
	UserData    []byte            `cbor:"user_data"`
	Nonce       []byte            `cbor:"nonce"`
}

// ParseNitroAttestation decodes the attestation document carried in an NSM COSE_Sign1 envelope
func ParseNitroAttestation(attestation ledgerapi.AttestationCOSE) (*NitroAttestationDocument, error) {
	payload, err := ExtractCOSEPayload(attestation)
	if err != nil {
		return nil, err
	}

	var doc NitroAttestationDocument
	if err := cbor.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse attestation document: %w", err)
	}

	return &doc, nil
}

// ParseReceiptUserData decodes the receipt user data embedded in an attestation document
func ParseReceiptUserData(doc *NitroAttestationDocument) (*ledgerapi.ReceiptAttestationUserData, error) {
	if len(doc.UserData) == 0 {
		return nil, fmt.Errorf("attestation has no user data")
	}

	var userData ledgerapi.ReceiptAttestationUserData
	if err := json.Unmarshal(doc.UserData, &userData); err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}

	return &userData, nil
}

// FormatPCR formats PCR bytes as hex string
func FormatPCR(pcrData []byte) string {
	if len(pcrData) == 0 {
		return ""
	}
	return fmt.Sprintf("%x", pcrData)
}
