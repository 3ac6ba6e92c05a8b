package models

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ZeroAddress is the null identity. It parses, but never names a real principal.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var ErrMalformedAddress = errors.New("malformed address")

// Address is a stable external identity: "0x" followed by 40 hex digits, lower case.
type Address string

// ParseAddress validates s and returns its normalized form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", ErrMalformedAddress
	}

	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrMalformedAddress
	}

	return Address("0x" + body), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Valid reports whether a is well formed and already normalized.
func (a Address) Valid() bool {
	parsed, err := ParseAddress(string(a))
	return err == nil && parsed == a
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
