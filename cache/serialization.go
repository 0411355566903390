package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Values saved through Cache are CBOR encoded so that every driver only ever
// stores bytes. Encoding is canonical; decoding is bounded.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

//nolint:gochecknoinits // CBOR modes are fixed for the process lifetime
func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoding mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 100000,
		MaxMapPairs:      100000,
		MaxNestedLevels:  32,
		DefaultMapType:   mapStringAnyType,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoding mode: %v", err))
	}
}

// Marshal serializes a value to CBOR bytes.
func Marshal[T any](v T) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal failed: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes CBOR bytes into a value of type T.
func Unmarshal[T any](data []byte) (T, error) {
	var v T
	if err := decMode.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("cbor unmarshal failed: %w", err)
	}
	return v, nil
}

func decodeInto(data []byte, dest any) error {
	if err := decMode.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cbor unmarshal failed: %w", err)
	}
	return nil
}
