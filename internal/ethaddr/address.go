// Package ethaddr provides pure address-normalization helpers shared by
// every component that touches a 20-byte EVM address: checksum encoding,
// validation, and byte-for-byte equality.
package ethaddr

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Parse validates that s is a well-formed hex address (with or without
// checksum casing) and returns its EIP-55 checksummed form.
func Parse(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%q is not a valid 20-byte hex address", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// MustParse panics on an invalid address; reserved for static chain config.
func MustParse(s string) string {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Equal compares two address strings irrespective of checksum casing.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Less reports whether a sorts strictly before b under lowercase hex
// comparison, the ordering the canonical pair function relies on.
func Less(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
