package ledgerapi

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestReceiptCOSE_Base64(t *testing.T) {
	receipt := ReceiptCOSE([]byte("mock-cose-receipt-data"))

	encoded := receipt.EncodeBase64()
	check.NotEqual(t, "", encoded.String())

	decoded, err := encoded.Decode()
	check.NoError(t, err)
	check.Equal(t, receipt, decoded)
}

func TestReceiptCOSEBase64_DecodeInvalid(t *testing.T) {
	_, err := ReceiptCOSEBase64("not base64!!!").Decode()
	check.Error(t, err)

	_, err = AttestationCOSEBase64("%%%").Decode()
	check.Error(t, err)
}

func TestMarshalReceipt(t *testing.T) {
	receipt := &WinnerReceipt{
		AuctionID:      "7d2b8a1e-2a55-4b3c-9a57-13f0c1f0d6a1",
		Deadline:       1711886400,
		WinningAddress: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		HighestBid:     82,
		IssuedAt:       1711972800,
		BidHashNonce:   "abc123",
	}

	data, err := MarshalReceipt(receipt)
	assert.NoError(t, err)
	check.True(t, len(data) > 0)

	decoded, err := UnmarshalReceipt(data)
	assert.NoError(t, err)
	check.Equal(t, receipt, decoded)
}

func TestUnmarshalReceipt_Invalid(t *testing.T) {
	_, err := UnmarshalReceipt([]byte{0xff, 0x00})
	check.Error(t, err)
}

func TestCalculateWinnerResponse_OmitsEmptyAttestation(t *testing.T) {
	resp := CalculateWinnerResponse{
		Type:              "calculate_winner_response",
		Success:           true,
		WinningAddress:    "0x0000000000000000000000000000000000000000",
		ReceiptCOSEBase64: ReceiptCOSE([]byte("receipt")).EncodeBase64(),
	}

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var raw map[string]any
	assert.NoError(t, json.Unmarshal(data, &raw))
	_, hasAttestation := raw["attestation_cose_base64"]
	check.False(t, hasAttestation)
	check.Equal(t, "cmVjZWlwdA==", raw["receipt_cose_base64"])
}
