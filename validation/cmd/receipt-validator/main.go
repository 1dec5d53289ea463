package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/openledger/ledgerapi"
	"github.com/cloudx-io/openledger/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput     = flag.String("receipt", "", "Base64 COSE winner receipt (file path or inline)")
		publicKeyInput   = flag.String("public-key", "", "Ledger public key PEM (file path or inline)")
		auctionID        = flag.String("auction-id", "", "Expected auction ID")
		winner           = flag.String("winner", "", "Expected winning address")
		bidID            = flag.String("bid-id", "", "Bid ID returned on submission")
		bidder           = flag.String("bidder", "", "Address the bid was submitted from")
		amount           = flag.String("amount", "", "Bid amount as a decimal integer")
		bidHash          = flag.String("bid-hash", "", "Bid hash returned on submission")
		attestationInput = flag.String("attestation", "", "Base64 Nitro attestation (file path or inline)")
		pcrsFile         = flag.String("pcrs", "", "JSON file of known-good PCR sets")
		outputFormat     = flag.String("format", "text", "Output format: text or json")
		help             = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	// Show help
	if *help {
		showUsage()
		os.Exit(0)
	}

	if *receiptInput == "" || *publicKeyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --receipt and --public-key are required\n")
		os.Exit(1)
	}

	input := &validation.ReceiptValidationInput{
		Receipt:           ledgerapi.ReceiptCOSEBase64(readInput(*receiptInput)),
		PublicKeyPEM:      readInput(*publicKeyInput),
		ExpectedAuctionID: *auctionID,
		ExpectedWinner:    *winner,
	}

	bidFlags := []string{*bidID, *bidder, *amount, *bidHash}
	if anySet(bidFlags) {
		if !allSet(bidFlags) {
			fmt.Fprintf(os.Stderr, "Error: --bid-id, --bidder, --amount and --bid-hash must be given together\n")
			os.Exit(2)
		}
		input.Bid = &validation.BidCheck{
			BidID:   *bidID,
			Bidder:  *bidder,
			Amount:  *amount,
			BidHash: *bidHash,
		}
	}

	if *attestationInput != "" {
		input.Attestation = ledgerapi.AttestationCOSEBase64(readInput(*attestationInput))
	}

	if *pcrsFile != "" {
		knownPCRs, err := validation.LoadPCRsFromFile(*pcrsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading PCRs: %v\n", err)
			os.Exit(2)
		}
		input.KnownPCRs = knownPCRs
	}

	// Validate using library
	result, err := validation.ValidateWinnerReceipt(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	// Output results
	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	// Exit with appropriate code
	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Auction Ledger Winner Receipt Validator")
	fmt.Println()
	fmt.Println("Validates a signed winner receipt returned by calculate_winner.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <base64> --public-key <pem> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <base64>                receipt_cose_base64 from the finalize response")
	fmt.Println("  --public-key <pem>                public_key from the key_request response")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --auction-id <id>                 Expected auction ID")
	fmt.Println("  --winner <address>                Expected winning address")
	fmt.Println("  --bid-id <id>                     Bid ID (requires --bidder, --amount, --bid-hash)")
	fmt.Println("  --bidder <address>                Bidder address of the checked bid")
	fmt.Println("  --amount <integer>                Amount of the checked bid")
	fmt.Println("  --bid-hash <hex>                  Bid hash returned when the bid was accepted")
	fmt.Println("  --attestation <base64>            attestation_cose_base64 from the finalize response")
	fmt.Println("  --pcrs <file>                     Known-good PCR sets JSON")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  --receipt, --public-key and --attestation accept a file path or an inline value.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  receipt-validator \\")
	fmt.Println("    --receipt receipt.b64 \\")
	fmt.Println("    --public-key ledger.pem \\")
	fmt.Println("    --winner 0x00000000000000000000000000000000000000aa")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) string {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(input)
}

func anySet(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}

func allSet(values []string) bool {
	for _, v := range values {
		if v == "" {
			return false
		}
	}
	return true
}

func outputJSON(result *validation.ReceiptValidationResult) {
	output := map[string]any{
		"valid":             result.IsValid(),
		"signature_valid":   result.SignatureValid,
		"auction_id_valid":  result.AuctionIDValid,
		"winner_valid":      result.WinnerValid,
		"bid_hash_valid":    result.BidHashValid,
		"attestation_valid": result.AttestationValid,
		"receipt":           result.Receipt,
		"details":           result.ValidationDetails,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(2)
	}
}

func outputText(result *validation.ReceiptValidationResult) {
	fmt.Println("=== Winner Receipt Validation ===")
	fmt.Println()

	if result.Receipt != nil {
		fmt.Printf("Auction:      %s\n", result.Receipt.AuctionID)
		fmt.Printf("Winner:       %s\n", result.Receipt.WinningAddress)
		fmt.Printf("Highest bid:  %d\n", result.Receipt.HighestBid)
		fmt.Println()
	}

	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}
	fmt.Println()

	if result.IsValid() {
		fmt.Println("RESULT: VALID")
	} else {
		fmt.Println("RESULT: INVALID")
	}
}
