package parsing

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ExtractCOSEPayload extracts the payload from a COSE_Sign1 4-element array
// COSE_Sign1 structure: [protected, unprotected, payload, signature]
// Both tagged (tag 18) and untagged encodings are accepted.
func ExtractCOSEPayload(coseBytes []byte) ([]byte, error) {
	var coseArray []any
	err := cbor.Unmarshal(coseBytes, &coseArray)
	if err != nil {
		var tagged cbor.Tag
		if tagErr := cbor.Unmarshal(coseBytes, &tagged); tagErr != nil {
			return nil, fmt.Errorf("parse COSE array: %w", err)
		}
		inner, ok := tagged.Content.([]any)
		if !ok {
			return nil, fmt.Errorf("parse COSE array: tag %d does not wrap an array", tagged.Number)
		}
		coseArray = inner
	}

	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	payload, ok := coseArray[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}

	return payload, nil
}
