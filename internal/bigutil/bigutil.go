// Package bigutil holds the arbitrary-precision integer arithmetic the
// orchestrator needs to stay byte-exact with on-chain amounts: every
// value that ultimately reaches the signed message or the executor
// calldata is a big.Int, never a float.
package bigutil

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeUint interprets s as an unsigned integer per spec.md §4.I step 9:
// strings with a fractional part are truncated at the decimal point,
// negatives clamp to zero, an empty string becomes zero, and anything
// that isn't a finite number is rejected.
func NormalizeUint(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a finite number", s)
	}
	if d.IsNegative() {
		return big.NewInt(0), nil
	}
	return d.Truncate(0).BigInt(), nil
}

// CeilDiv computes ceil(num/den) for non-negative big.Ints via
// (num + den - 1) / den, per spec.md §4.I step 9.
func CeilDiv(num, den *big.Int) *big.Int {
	if den.Sign() == 0 {
		return new(big.Int)
	}
	numerator := new(big.Int).Add(num, den)
	numerator.Sub(numerator, big.NewInt(1))
	return numerator.Div(numerator, den)
}

// ClampBps clamps a fee in basis points to [0, 9999], the valid executor
// fee range (spec.md §3, §4.I step 9).
func ClampBps(bps int) int {
	if bps < 0 {
		return 0
	}
	if bps > 9999 {
		return 9999
	}
	return bps
}

// ClampNonNegative clamps an int64 seconds value to >= 0 (spec.md §4.I step 10).
func ClampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
