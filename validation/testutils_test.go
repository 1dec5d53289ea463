package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openledger/core"
	"github.com/cloudx-io/openledger/ledgerapi"
)

const (
	testAuctionID = "6f1c2a3e-7a0b-4c1e-9a55-3d2f1b0c9e11"
	testWinner    = "0x00000000000000000000000000000000000000aa"
	testNonce     = "4e6f6e63652d666f722d62696420686173686573"
)

var testPCRs = map[uint64][]byte{
	0: {0x3b, 0x4c, 0xef, 0x27},
	1: {0x01, 0x02},
	2: {0x0a, 0x0b},
}

// testSigner mirrors the ledger's receipt signing key
type testSigner struct {
	privateKey   *ecdsa.PrivateKey
	publicKeyPEM string
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	assert.NoError(t, err)

	return &testSigner{
		privateKey:   privateKey,
		publicKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
}

// sign returns the base64 COSE_Sign1 receipt and the CBOR payload that was signed
func (s *testSigner) sign(t *testing.T, receipt *ledgerapi.WinnerReceipt) (ledgerapi.ReceiptCOSEBase64, []byte) {
	t.Helper()

	payload, err := ledgerapi.MarshalReceipt(receipt)
	assert.NoError(t, err)

	signer, err := cose.NewSigner(cose.AlgorithmES256, s.privateKey)
	assert.NoError(t, err)

	headers := cose.Headers{
		Protected: cose.ProtectedHeader{
			cose.HeaderLabelAlgorithm: cose.AlgorithmES256,
		},
	}
	signed, err := cose.Sign1(rand.Reader, signer, headers, payload, nil)
	assert.NoError(t, err)

	return ledgerapi.ReceiptCOSE(signed).EncodeBase64(), payload
}

func testReceipt() *ledgerapi.WinnerReceipt {
	return &ledgerapi.WinnerReceipt{
		AuctionID:      testAuctionID,
		Deadline:       1711886400,
		WinningAddress: testWinner,
		HighestBid:     82,
		IssuedAt:       1711890000,
		BidHashNonce:   testNonce,
	}
}

// mockAttestation builds an NSM-shaped document whose user data covers payload
func mockAttestation(t *testing.T, auctionID string, payload []byte) ledgerapi.AttestationCOSEBase64 {
	t.Helper()

	userData, err := json.Marshal(&ledgerapi.ReceiptAttestationUserData{
		AuctionID:     auctionID,
		ReceiptDigest: core.ComputeReceiptDigest(payload),
	})
	assert.NoError(t, err)

	nestedBytes, err := cbor.Marshal(map[string]any{
		"module_id": "test-enclave-12345",
		"digest":    "SHA384",
		"timestamp": uint64(1234567890),
		"pcrs":      testPCRs,
		"user_data": userData,
		"nonce":     []byte("nonce"),
	})
	assert.NoError(t, err)

	result, err := cbor.Marshal([]any{
		[]byte{0x01, 0x02, 0x03},
		map[string]any{},
		nestedBytes,
		[]byte{0x04, 0x05, 0x06},
	})
	assert.NoError(t, err)

	return ledgerapi.AttestationCOSE(result).EncodeBase64()
}
