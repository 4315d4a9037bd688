package awsapi

import (
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf8"

	"ecsboss/internal/structure"
)

// opaqueFields are wire fields whose mapping values are user data keyed by
// arbitrary strings (log driver options, docker labels). Their keys must not
// be case-transformed.
var opaqueFields = map[string]bool{
	"options":      true,
	"dockerLabels": true,
}

// structToWire converts an SDK response type into the JSON wire structure the
// merge engine operates on. The SDK's Go field names are the UpperCamel form
// of the lowerCamel wire names, so marshalling and lower-casing the first
// rune of every key recovers the wire shape. Null fields are dropped.
func structToWire(v interface{}) (structure.Structure, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	wire, _ := lowerKeys(raw).(map[string]interface{})
	return wire, nil
}

// decodeInput fills an SDK input struct from a wire structure. encoding/json
// matches field names case-insensitively, so the lowerCamel wire keys land on
// the SDK's UpperCamel fields directly, and keys the input doesn't know are
// ignored.
func decodeInput(wire structure.Structure, target interface{}) error {
	data, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

func lowerKeys(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for key, element := range value {
			if element == nil {
				continue
			}
			lowered := lowerFirst(key)
			if opaqueFields[lowered] {
				out[lowered] = element
				continue
			}
			out[lowered] = lowerKeys(element)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, element := range value {
			out[i] = lowerKeys(element)
		}
		return out
	default:
		return v
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
