package core

import (
	"crypto/sha256"
	"fmt"
)

// ComputeBidHash computes the hash handed back to a bidder when a bid is accepted.
// The nonce is published in the winner receipt so the bidder can later recompute it.
//
// Formula: SHA256(bid_id + "|" + bidder_hex + "|" + amount + "|" + nonce)
func ComputeBidHash(bidID string, bidder Address, amount uint64, nonce string) string {
	data := fmt.Sprintf("%s|%s|%d|%s", bidID, bidder.Hex(), amount, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeReceiptDigest computes the SHA256 digest of an encoded winner receipt.
func ComputeReceiptDigest(payload []byte) string {
	hash := sha256.Sum256(payload)
	return fmt.Sprintf("%x", hash)
}
