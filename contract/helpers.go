package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("regtrace.contract")

// Constants for input validation and limits
const (
	maxStringInputLength    = 256
	maxNotesLength          = 1024
	maxSubmissionsPerReport = 50
	dataHashLength          = 32 // content digests are fixed 32-byte values
)

// --- Validation Helper Functions ---

func validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%s cannot be empty: %w", field, ErrInvalidArgument)
	}
	if len(input) > max {
		return fmt.Errorf("%s exceeds max length %d: %w", field, max, ErrInvalidArgument)
	}
	return nil
}

func validateOptionalString(input, field string, max int) error {
	if input != "" && len(input) > max {
		return fmt.Errorf("%s exceeds max length %d: %w", field, max, ErrInvalidArgument)
	}
	return nil
}

// decodeHash decodes a hex-encoded digest. When requiredLen is positive the
// decoded value must be exactly that many bytes.
func decodeHash(hexStr, field string, requiredLen int) ([]byte, error) {
	trimmed := strings.TrimSpace(hexStr)
	if trimmed == "" {
		return nil, fmt.Errorf("%s cannot be empty: %w", field, ErrInvalidArgument)
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", field, ErrInvalidArgument)
	}
	if requiredLen > 0 && len(decoded) != requiredLen {
		return nil, fmt.Errorf("%s must be exactly %d bytes, got %d: %w", field, requiredLen, len(decoded), ErrInvalidArgument)
	}
	return decoded, nil
}

// --- Ledger Helper Functions ---

// txTimestamp returns the transaction timestamp as unix seconds. Every *Date
// field stamped by a registry uses this counter; it is non-decreasing across
// transactions and never wall-clock read by the contracts themselves.
func txTimestamp(ctx contractapi.TransactionContextInterface) (int64, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime().Unix(), nil
}

// putRecord marshals a record and writes it under the given key.
func putRecord(ctx contractapi.TransactionContextInterface, key string, record interface{}) error {
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for key '%s': %w", key, err)
	}
	if err := ctx.GetStub().PutState(key, recordBytes); err != nil {
		return fmt.Errorf("failed to save record for key '%s': %w", key, err)
	}
	return nil
}

// readRecord reads and unmarshals the record under the given key into out.
// Returns false without error when the key is absent.
func readRecord(ctx contractapi.TransactionContextInterface, key string, out interface{}) (bool, error) {
	recordBytes, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, fmt.Errorf("failed to read record for key '%s': %w", key, err)
	}
	if recordBytes == nil {
		return false, nil
	}
	if err := json.Unmarshal(recordBytes, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal record for key '%s': %w", key, err)
	}
	return true, nil
}

// emitEvent sends a chaincode event. Event failures are logged, never fatal:
// the mutation has already been validated and written.
func emitEvent(ctx contractapi.TransactionContextInterface, eventName string, payload map[string]interface{}) {
	eventBytes, err := json.Marshal(payload)
	if err != nil {
		logger.Warningf("emitEvent: failed to marshal payload for event '%s': %v", eventName, err)
		return
	}
	if err := ctx.GetStub().SetEvent(eventName, eventBytes); err != nil {
		logger.Warningf("emitEvent: failed to set event '%s': %v", eventName, err)
	}
}
