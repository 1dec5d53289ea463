package ledgerapi

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ReceiptCOSE holds raw COSE_Sign1 bytes of a signed WinnerReceipt
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is the standard base64 transport form of ReceiptCOSE
type ReceiptCOSEBase64 string

// EncodeBase64 encodes the receipt for JSON transport
func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

// Decode returns the raw COSE bytes
func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode receipt base64: %w", err)
	}
	return ReceiptCOSE(data), nil
}

func (r ReceiptCOSEBase64) String() string {
	return string(r)
}

// AttestationCOSE holds raw NSM attestation bytes
type AttestationCOSE []byte

// AttestationCOSEBase64 is the standard base64 transport form of AttestationCOSE
type AttestationCOSEBase64 string

// EncodeBase64 encodes the attestation for JSON transport
func (a AttestationCOSE) EncodeBase64() AttestationCOSEBase64 {
	return AttestationCOSEBase64(base64.StdEncoding.EncodeToString(a))
}

// Decode returns the raw attestation bytes
func (a AttestationCOSEBase64) Decode() (AttestationCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("decode attestation base64: %w", err)
	}
	return AttestationCOSE(data), nil
}

// MarshalReceipt encodes a receipt as CBOR
func MarshalReceipt(receipt *WinnerReceipt) ([]byte, error) {
	data, err := cbor.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}
	return data, nil
}

// UnmarshalReceipt decodes a CBOR receipt payload
func UnmarshalReceipt(data []byte) (*WinnerReceipt, error) {
	var receipt WinnerReceipt
	if err := cbor.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &receipt, nil
}
