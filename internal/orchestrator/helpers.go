package orchestrator

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/aquaprotocol/rfq-issuer/internal/bigutil"
)

// computeGrossOut implements spec.md §4.I step 9's fee-grossing
// invariant: after the executor skims fb bps from grossOut, the taker
// still receives at least netOut.
func computeGrossOut(netOut *big.Int, fb int) *big.Int {
	num := new(big.Int).Mul(netOut, big.NewInt(10000))
	den := big.NewInt(int64(10000 - fb))
	return bigutil.CeilDiv(num, den)
}

const msThreshold = int64(1_000_000_000_000) // 10^12

// normalizeExpiry implements spec.md §4.I step 10: treat values above
// 10^12 as milliseconds, floor-divide to seconds; otherwise the value
// is already seconds. Clamp to >= 0.
func normalizeExpiry(raw json.Number) (int64, error) {
	if f, err := raw.Float64(); err == nil && raw.String() != "" {
		if i, ierr := raw.Int64(); ierr == nil {
			return normalizeExpirySeconds(i), nil
		}
		return normalizeExpirySeconds(int64(f)), nil
	}
	return 0, fmt.Errorf("expiry %q is not numeric", raw.String())
}

func normalizeExpirySeconds(v int64) int64 {
	if v > msThreshold {
		v = v / 1000
	}
	return bigutil.ClampNonNegative(v)
}

func bigutilParse(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

func bigIntFromInt64(v int64) *big.Int {
	return big.NewInt(v)
}

func hexToBytes(s string) ([]byte, error) {
	return hexutil.Decode(s)
}

func addressFromHex(s string) common.Address {
	return common.HexToAddress(s)
}
