package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ArgUint64 is a uint64 that accepts both JSON numbers and hex or decimal
// strings on the wire, and always renders as a 0x-prefixed hex string.
type ArgUint64 uint64

// Hex returns the 0x-prefixed hex rendering of the value.
func (a ArgUint64) Hex() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// MarshalJSON encodes the value as a hex string.
func (a ArgUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON accepts a JSON number, a "0x…" hex string or a decimal string.
func (a *ArgUint64) UnmarshalJSON(data []byte) error {
	var num uint64
	if err := json.Unmarshal(data, &num); err == nil {
		*a = ArgUint64(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid uint64 value: %s", data)
	}

	var parsed uint64
	var err error
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		parsed, err = strconv.ParseUint(str[2:], 16, 64)
	} else {
		parsed, err = strconv.ParseUint(str, 10, 64)
	}
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q: %w", str, err)
	}

	*a = ArgUint64(parsed)
	return nil
}
