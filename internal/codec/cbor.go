// Package codec encodes document snapshots for the local backing store.
//
// Snapshots are CBOR with Core Deterministic Encoding (RFC 8949 §4.2), so the
// same document state always produces the same bytes and therefore the same
// checksum. Consumers import this package rather than fxamacker/cbor.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Block props decode into map[string]any so they can be validated
		// against JSON Schemas without conversion.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value used to delay payload decoding
// until its checksum has been verified.
type RawMessage = cbor.RawMessage
