// Package pairutil implements the canonical-pair function shared by the
// pair admission store and the quote orchestrator: a pure mapping from an
// unordered (sell, buy) token pair to its canonical (token0, token1) form.
package pairutil

import "github.com/aquaprotocol/rfq-issuer/internal/ethaddr"

// Canonical returns (token0, token1, aIsToken0) where token0 < token1 under
// lowercase hex comparison of the checksummed addresses. It is
// commutative: Canonical(a, b) and Canonical(b, a) always agree on
// (token0, token1), differing only in aIsToken0.
func Canonical(a, b string) (token0, token1 string, aIsToken0 bool) {
	if ethaddr.Less(a, b) {
		return a, b, true
	}
	return b, a, false
}
