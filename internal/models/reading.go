package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LocationKey is the key under which a reading nests its position fields.
const LocationKey = "location"

// ErrUnsupportedPayload is returned when a delivered payload is neither an object nor an array.
var ErrUnsupportedPayload = errors.New("unsupported reading payload")

// Reading is one payload delivered by the SDK's location callback. Its shape is
// owned by the SDK; only the optional nested "location" mapping is interpreted.
type Reading map[string]any

// NormalizePayload converts whatever the SDK delivered into a single Reading.
// Arrays are unwrapped to their first element and raw JSON is decoded first.
func NormalizePayload(payload any) (Reading, error) {
	switch v := payload.(type) {
	case nil:
		return Reading{}, nil
	case Reading:
		return v, nil
	case map[string]any:
		return Reading(v), nil
	case []any:
		if len(v) == 0 {
			return Reading{}, nil
		}
		return NormalizePayload(v[0])
	case []map[string]any:
		if len(v) == 0 {
			return Reading{}, nil
		}
		return Reading(v[0]), nil
	case []Reading:
		if len(v) == 0 {
			return Reading{}, nil
		}
		return v[0], nil
	case json.RawMessage:
		return decodePayload(v)
	case []byte:
		return decodePayload(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

func decodePayload(raw []byte) (Reading, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode reading payload: %w", err)
	}
	return NormalizePayload(decoded)
}

// Location returns the nested location fields, or an empty map when absent or not a mapping.
func (r Reading) Location() map[string]any {
	if loc, ok := r[LocationKey].(map[string]any); ok {
		return loc
	}
	return map[string]any{}
}

// Details returns every field except the nested location.
func (r Reading) Details() map[string]any {
	details := make(map[string]any, len(r))
	for k, v := range r {
		if k == LocationKey {
			continue
		}
		details[k] = v
	}
	return details
}
