// Package mocks provides stateful in-memory fakes of the Fabric stub and
// client identity for contract tests. Only the surface the contracts touch
// is meaningfully implemented; the rest of the stub interface returns
// not-implemented errors so accidental use fails loudly.
package mocks

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var errNotImplemented = errors.New("not implemented in mock stub")

// Composite key layout mirrors the shim: a zero-rune namespace prefix, then
// the object type and each attribute, each terminated by a zero rune.
const (
	minUnicodeRuneValue   = 0
	maxUnicodeRuneValue   = utf8.MaxRune
	compositeKeyNamespace = "\x00"
)

// Stub is an in-memory shim.ChaincodeStubInterface. State survives across
// invocations on the same Stub, so one Stub models one world state.
type Stub struct {
	State   map[string][]byte
	Events  map[string][]byte
	TxTime  time.Time
	TxID    string
	Channel string
}

// NewStub returns an empty world state with the transaction clock at a fixed
// starting point.
func NewStub() *Stub {
	return &Stub{
		State:  make(map[string][]byte),
		Events: make(map[string][]byte),
		TxTime: time.Unix(1_700_000_000, 0),
	}
}

// Tick advances the transaction clock, modeling a later block.
func (s *Stub) Tick(d time.Duration) {
	s.TxTime = s.TxTime.Add(d)
}

func (s *Stub) GetState(key string) ([]byte, error) {
	value, ok := s.State[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *Stub) PutState(key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	s.State[key] = value
	return nil
}

func (s *Stub) DelState(key string) error {
	delete(s.State, key)
	return nil
}

func (s *Stub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	ck := compositeKeyNamespace + objectType + string(rune(minUnicodeRuneValue))
	for _, att := range attributes {
		ck += att + string(rune(minUnicodeRuneValue))
	}
	return ck, nil
}

func (s *Stub) SplitCompositeKey(compositeKey string) (string, []string, error) {
	componentIndex := 1
	var components []string
	for i := 1; i < len(compositeKey); i++ {
		if compositeKey[i] == minUnicodeRuneValue {
			components = append(components, compositeKey[componentIndex:i])
			componentIndex = i + 1
		}
	}
	if len(components) == 0 {
		return "", nil, errors.New("invalid composite key")
	}
	return components[0], components[1:], nil
}

func (s *Stub) GetStateByPartialCompositeKey(objectType string, keys []string) (shim.StateQueryIteratorInterface, error) {
	prefix, err := s.CreateCompositeKey(objectType, keys)
	if err != nil {
		return nil, err
	}
	// CreateCompositeKey terminates the last attribute with a zero rune,
	// which is exactly the prefix boundary a partial key needs.
	var matched []string
	for key := range s.State {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return &stateIterator{stub: s, keys: matched}, nil
}

func (s *Stub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	var matched []string
	for key := range s.State {
		if key >= startKey && (endKey == "" || key < endKey) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return &stateIterator{stub: s, keys: matched}, nil
}

func (s *Stub) SetEvent(name string, payload []byte) error {
	if name == "" {
		return errors.New("event name cannot be empty")
	}
	s.Events[name] = payload
	return nil
}

func (s *Stub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(s.TxTime), nil
}

func (s *Stub) GetTxID() string      { return s.TxID }
func (s *Stub) GetChannelID() string { return s.Channel }

// --- Unused interface surface ---

func (s *Stub) GetArgs() [][]byte                            { return nil }
func (s *Stub) GetStringArgs() []string                      { return nil }
func (s *Stub) GetFunctionAndParameters() (string, []string) { return "", nil }
func (s *Stub) GetArgsSlice() ([]byte, error)                { return nil, errNotImplemented }

func (s *Stub) InvokeChaincode(string, [][]byte, string) pb.Response {
	return pb.Response{Status: shim.ERROR, Message: errNotImplemented.Error()}
}

func (s *Stub) SetStateValidationParameter(string, []byte) error      { return errNotImplemented }
func (s *Stub) GetStateValidationParameter(string) ([]byte, error)    { return nil, errNotImplemented }

func (s *Stub) GetStateByRangeWithPagination(string, string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errNotImplemented
}

func (s *Stub) GetStateByPartialCompositeKeyWithPagination(string, []string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errNotImplemented
}

func (s *Stub) GetQueryResult(string) (shim.StateQueryIteratorInterface, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetQueryResultWithPagination(string, int32, string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {
	return nil, nil, errNotImplemented
}

func (s *Stub) GetHistoryForKey(string) (shim.HistoryQueryIteratorInterface, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetPrivateData(string, string) ([]byte, error)     { return nil, errNotImplemented }
func (s *Stub) GetPrivateDataHash(string, string) ([]byte, error) { return nil, errNotImplemented }
func (s *Stub) PutPrivateData(string, string, []byte) error       { return errNotImplemented }
func (s *Stub) DelPrivateData(string, string) error               { return errNotImplemented }
func (s *Stub) PurgePrivateData(string, string) error             { return errNotImplemented }

func (s *Stub) SetPrivateDataValidationParameter(string, string, []byte) error {
	return errNotImplemented
}

func (s *Stub) GetPrivateDataValidationParameter(string, string) ([]byte, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetPrivateDataByRange(string, string, string) (shim.StateQueryIteratorInterface, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetPrivateDataByPartialCompositeKey(string, string, []string) (shim.StateQueryIteratorInterface, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetPrivateDataQueryResult(string, string) (shim.StateQueryIteratorInterface, error) {
	return nil, errNotImplemented
}

func (s *Stub) GetCreator() ([]byte, error)            { return nil, nil }
func (s *Stub) GetTransient() (map[string][]byte, error) { return nil, nil }
func (s *Stub) GetBinding() ([]byte, error)            { return nil, nil }
func (s *Stub) GetDecorations() map[string][]byte      { return nil }
func (s *Stub) GetSignedProposal() (*pb.SignedProposal, error) { return nil, errNotImplemented }

// stateIterator walks a sorted snapshot of matching keys.
type stateIterator struct {
	stub *Stub
	keys []string
	pos  int
}

func (it *stateIterator) HasNext() bool {
	return it.pos < len(it.keys)
}

func (it *stateIterator) Next() (*queryresult.KV, error) {
	if !it.HasNext() {
		return nil, errors.New("no more items in iterator")
	}
	key := it.keys[it.pos]
	it.pos++
	return &queryresult.KV{Key: key, Value: it.stub.State[key]}, nil
}

func (it *stateIterator) Close() error { return nil }
