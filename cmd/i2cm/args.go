package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// parseAddress accepts a 7-bit address in any Go integer notation.
func parseAddress(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v > 0x7F {
		return 0, fmt.Errorf("address %#x does not fit in 7 bits", v)
	}
	return uint8(v), nil
}

// parseData decodes hex bytes; spaces, colons and a 0x prefix are ignored.
func parseData(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "_", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

func parseInt(s string, min, max int) (int, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if int(v) < min || int(v) > max {
		return 0, fmt.Errorf("%d out of range %d..%d", v, min, max)
	}
	return int(v), nil
}
