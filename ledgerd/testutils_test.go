package main

import (
	"fmt"
	"testing"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"

	"github.com/cloudx-io/openledger/core"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const testAuctionDuration = 30 * 24 * time.Hour

// MockEnclaveHandle implements the Attest method for testing
type MockEnclaveHandle struct {
	AttestFunc func(options enclave.AttestationOptions) ([]byte, error)
	calls      int
}

func (m *MockEnclaveHandle) Attest(options enclave.AttestationOptions) ([]byte, error) {
	m.calls++
	if m.AttestFunc != nil {
		return m.AttestFunc(options)
	}
	return nil, fmt.Errorf("mock not configured")
}

// CreateMockEnclave creates a mock enclave handle that returns a minimal NSM-shaped COSE document
func CreateMockEnclave(t *testing.T) *MockEnclaveHandle {
	t.Helper()
	return &MockEnclaveHandle{
		AttestFunc: func(options enclave.AttestationOptions) ([]byte, error) {
			nestedDoc := map[string]any{
				"module_id":   "test-enclave-12345",
				"digest":      "SHA384",
				"timestamp":   uint64(1234567890),
				"pcrs":        map[uint64][]byte{0: {0x3b, 0x4c, 0xef, 0x27}},
				"certificate": []byte("test-certificate-data"),
				"cabundle":    [][]byte{[]byte("test-ca-cert")},
				"public_key":  []byte("test-public-key-data"),
				"user_data":   options.UserData,
				"nonce":       options.Nonce,
			}

			nestedBytes, err := cbor.Marshal(nestedDoc)
			if err != nil {
				return nil, err
			}

			// AWS Nitro 4-element array format: [header, metadata, nested_doc, signature]
			return cbor.Marshal([]any{
				[]byte{0x01, 0x02, 0x03},
				map[string]any{},
				nestedBytes,
				[]byte{0x04, 0x05, 0x06},
			})
		},
	}
}

// newTestService builds a service over a fresh ledger driven by a manual clock
func newTestService(t *testing.T, attester EnclaveAttester) (*LedgerService, *core.ManualClock) {
	t.Helper()

	clock := core.NewManualClock(testStart)
	ledger := core.NewAuctionLedgerWithDuration(clock, testAuctionDuration)

	keyManager, err := NewKeyManager()
	assert.NoError(t, err)

	service, err := NewLedgerService(ledger, clock, keyManager, attester)
	assert.NoError(t, err)

	return service, clock
}

func testBidder(i int) string {
	return fmt.Sprintf("0x%040x", i)
}
